package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/dto"
)

func TestParseFlags(t *testing.T) {
	t.Setenv(tokenEnv, "env-token")

	opts, err := parseFlags([]string{"-base", "appA", "-json", "-wait", "1s"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "appA", opts.baseID)
	assert.Equal(t, "env-token", opts.token)
	assert.True(t, opts.asJSON)
	assert.Equal(t, time.Second, opts.wait)
	assert.Equal(t, "ws://127.0.0.1:3434/rpc", opts.server)
}

func TestParseFlags_Required(t *testing.T) {
	t.Setenv(tokenEnv, "")

	_, err := parseFlags([]string{"-token", "tkn"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-base")

	_, err = parseFlags([]string{"-base", "appA"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-token")
}

func TestRun_ServerUnreachable(t *testing.T) {
	var stderr bytes.Buffer

	code := run(context.Background(),
		[]string{"-base", "appA", "-token", "tkn", "-server", "ws://127.0.0.1:1/rpc", "-wait", "300ms"},
		&bytes.Buffer{}, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "could not connect")
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer

	printSummary(&out, &dto.BaseResponse{
		ID:   "appA",
		Name: "Inventory",
		Tables: map[string]dto.TableResponse{
			"tblB": {ID: "tblB", Name: "Suppliers", Records: map[string]dto.RecordResponse{"rec1": {}}},
			"tblA": {ID: "tblA", Name: "Parts", Records: map[string]dto.RecordResponse{"rec2": {}, "rec3": {}}},
		},
	})

	got := out.String()
	assert.Contains(t, got, "Inventory (appA)")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Parts")), bytes.Index(out.Bytes(), []byte("Suppliers")))
	assert.Contains(t, got, "2 tables, 3 records mirrored")
}
