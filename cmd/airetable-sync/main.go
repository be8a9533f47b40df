// Command airetable-sync asks a running Airetable server to mirror one base
// over the RPC channel and prints the result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fatih/color"

	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/dto"
	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/rpc"
)

const tokenEnv = "AIRETABLE_AIRTABLE_TOKEN"

type options struct {
	server  string
	baseID  string
	token   string
	asJSON  bool
	wait    time.Duration
	timeout time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	client, err := dialWithRetry(ctx, opts.server, opts.wait, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "could not connect to %s: %v\n", opts.server, err)
		return 1
	}
	defer client.Close()

	syncCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	base, err := client.SyncBase(syncCtx, opts.token, opts.baseID)
	if err != nil {
		var respErr *rpc.ResponseError
		if errors.As(err, &respErr) {
			color.New(color.FgRed).Fprintf(stderr, "%d %s: ", respErr.StatusCode, respErr.StatusText)
			fmt.Fprintln(stderr, respErr.Message)
			return 1
		}
		fmt.Fprintf(stderr, "sync failed: %v\n", err)
		return 1
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(base); err != nil {
			fmt.Fprintf(stderr, "encode base: %v\n", err)
			return 1
		}
		return 0
	}

	printSummary(stdout, base)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("airetable-sync", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.server, "server", "ws://127.0.0.1:3434"+rpc.Path, "Airetable RPC endpoint")
	fs.StringVar(&opts.baseID, "base", "", "Airtable base id to mirror (required)")
	fs.StringVar(&opts.token, "token", os.Getenv(tokenEnv), "Airtable personal access token (default $"+tokenEnv+")")
	fs.BoolVar(&opts.asJSON, "json", false, "print the full base tree as JSON")
	fs.DurationVar(&opts.wait, "wait", 30*time.Second, "how long to keep retrying the connection")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "maximum duration of the sync")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.baseID == "" {
		return options{}, errors.New("-base is required")
	}
	if opts.token == "" {
		return options{}, fmt.Errorf("-token or $%s is required", tokenEnv)
	}
	return opts, nil
}

// dialWithRetry keeps dialing with exponential backoff until the server
// accepts the connection or wait elapses.
func dialWithRetry(ctx context.Context, url string, wait time.Duration, stderr io.Writer) (*rpc.Client, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = wait

	var client *rpc.Client
	dial := func() error {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		c, err := rpc.Dial(dialCtx, url)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		client = c
		return nil
	}
	notify := func(err error, next time.Duration) {
		fmt.Fprintf(stderr, "connecting to server... (%v, retrying in %s)\n", err, next.Round(time.Millisecond))
	}

	if err := backoff.RetryNotify(dial, backoff.WithContext(policy, ctx), notify); err != nil {
		return nil, err
	}
	return client, nil
}

func printSummary(w io.Writer, base *dto.BaseResponse) {
	title := color.New(color.Bold)
	title.Fprintf(w, "%s", base.Name)
	fmt.Fprintf(w, " (%s)\n", base.ID)

	tables := make([]dto.TableResponse, 0, len(base.Tables))
	for _, t := range base.Tables {
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	total := 0
	for _, t := range tables {
		total += len(t.Records)
		fmt.Fprintf(w, "  %-30s %-20s %6d fields %8d records\n", t.Name, t.ID, len(t.Fields), len(t.Records))
	}
	color.New(color.FgGreen).Fprintf(w, "%d tables, %d records mirrored\n", len(tables), total)
}
