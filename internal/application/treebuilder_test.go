package application

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TejAtParkourOps/Airetable/internal/domain/model"
)

func rawTasksTable() model.RawTable {
	return model.RawTable{
		ID:             "tblTasks",
		Name:           "Tasks",
		Description:    "Open work",
		PrimaryFieldID: "fldName",
		Fields: []model.RawField{
			{ID: "fldName", Name: "Name", Type: model.FieldTypeSingleLineText},
			{ID: "fldDone", Name: "Done", Type: model.FieldTypeCheckbox},
			{ID: "fldEst", Name: "Estimate", Type: model.FieldTypeNumber},
		},
	}
}

func rawTaskRecords(n int) []model.RawRecord {
	records := make([]model.RawRecord, 0, n)
	for i := range n {
		records = append(records, model.RawRecord{
			ID:          fmt.Sprintf("rec%03d", i),
			CreatedTime: "2024-01-01T00:00:00.000Z",
			Fields: map[string]model.CellValue{
				"fldName": model.TextValue(fmt.Sprintf("task %d", i)),
				"fldDone": model.BoolValue(i%2 == 0),
			},
		})
	}
	return records
}

func TestBuildTable_Properties(t *testing.T) {
	raw := rawTasksTable()
	fields := BuildFields(raw.Fields)
	records, err := BuildRecords(rawTaskRecords(25), fields)
	require.NoError(t, err)

	table, err := BuildTable(raw, fields, records)
	require.NoError(t, err)

	assert.Len(t, table.Records, 25)
	assert.Len(t, table.Fields, 3)

	primary, ok := table.PrimaryField()
	require.True(t, ok)
	assert.Equal(t, table.PrimaryFieldID, primary.ID)
	assert.Equal(t, "Name", primary.Name)

	for _, rec := range table.Records {
		for fieldID, cell := range rec.Cells {
			assert.Equal(t, fieldID, cell.FieldID)
			assert.Equal(t, table.Fields[fieldID].Name, cell.FieldName)
		}
	}
}

func TestBuildRecords_UnknownFieldIsIntegrityError(t *testing.T) {
	fields := BuildFields(rawTasksTable().Fields)
	raw := rawTaskRecords(1)
	raw[0].Fields["fldGhost"] = model.TextValue("boo")

	records, err := BuildRecords(raw, fields)

	require.Error(t, err)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, model.ErrIntegrity)
	assert.Contains(t, err.Error(), "fldGhost")
}

func TestBuildTable_MissingPrimaryFieldIsIntegrityError(t *testing.T) {
	raw := rawTasksTable()
	raw.PrimaryFieldID = "fldMissing"
	fields := BuildFields(raw.Fields)

	_, err := BuildTable(raw, fields, map[string]model.Record{})

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrIntegrity)
}

func TestBuildRecords_EmptyRecordHasNoCells(t *testing.T) {
	fields := BuildFields(rawTasksTable().Fields)

	records, err := BuildRecords([]model.RawRecord{{ID: "recEmpty", Fields: map[string]model.CellValue{}}}, fields)

	require.NoError(t, err)
	require.Contains(t, records, "recEmpty")
	assert.Empty(t, records["recEmpty"].Cells)
}

func TestBuildBase(t *testing.T) {
	base := BuildBase(model.RawBase{ID: "appA", Name: "Alpha"}, nil)

	assert.Equal(t, "appA", base.ID)
	assert.NotNil(t, base.Tables)
	assert.Zero(t, base.RecordCount())
}

func TestCheckCellTypes(t *testing.T) {
	raw := rawTasksTable()
	fields := BuildFields(raw.Fields)
	recs := rawTaskRecords(2)
	recs[1].Fields["fldEst"] = model.TextValue("three")
	recs[0].Fields["fldDone"] = model.TextValue("yes")
	records, err := BuildRecords(recs, fields)
	require.NoError(t, err)
	table, err := BuildTable(raw, fields, records)
	require.NoError(t, err)

	mismatches := CheckCellTypes(table)

	require.Len(t, mismatches, 2)
	assert.Equal(t, "rec000", mismatches[0].RecordID)
	assert.Equal(t, model.FieldTypeCheckbox, mismatches[0].FieldType)
	assert.Equal(t, model.ValueText, mismatches[0].Got)
	assert.Equal(t, "rec001", mismatches[1].RecordID)
	assert.Equal(t, "fldEst", mismatches[1].FieldID)
}
