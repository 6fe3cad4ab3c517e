// Command backfill fills in missing addresses of event records in a time
// range. It shares configuration with the server and adds:
//
//	-from string   range start, RFC 3339 (required)
//	-to string     range end, RFC 3339 (default: now)
//	-pool int      worker pool size (default: configured backfill pool size)
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/flagx"
	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"github.com/dmitrijs2005/tenantgov/internal/server"
	"github.com/dmitrijs2005/tenantgov/internal/server/backfill"
	"github.com/dmitrijs2005/tenantgov/internal/server/config"
)

type options struct {
	from time.Time
	to   time.Time
	pool int
}

func parseOptions(args []string, now time.Time) (*options, error) {
	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	from := fs.String("from", "", "range start (RFC 3339)")
	to := fs.String("to", "", "range end (RFC 3339)")
	pool := fs.Int("pool", 0, "worker pool size")

	if err := fs.Parse(flagx.FilterArgs(args, []string{"-from", "-to", "-pool"})); err != nil {
		return nil, err
	}
	if *from == "" {
		return nil, errors.New("-from is required")
	}

	o := &options{to: now, pool: *pool}
	var err error
	if o.from, err = time.Parse(time.RFC3339, *from); err != nil {
		return nil, fmt.Errorf("-from: %w", err)
	}
	if *to != "" {
		if o.to, err = time.Parse(time.RFC3339, *to); err != nil {
			return nil, fmt.Errorf("-to: %w", err)
		}
	}
	return o, nil
}

func main() {

	ctx := context.Background()

	opts, err := parseOptions(os.Args[1:], time.Now())
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	job, err := server.NewBackfillJob(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	sum, err := job.Run(ctx, opts.from, opts.to, opts.pool)
	if sum != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(sum)
	}
	if err != nil {
		if errors.Is(err, backfill.ErrAborted) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}
