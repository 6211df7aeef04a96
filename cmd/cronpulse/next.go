package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cronpulse/internal/config"
	"cronpulse/internal/trigger"
	"cronpulse/pkg/cronexpr"
)

type nextOptions struct {
	count int
	tz    string
	from  string
	until string
}

func newNextCmd() *cobra.Command {
	var opts nextOptions
	cmd := &cobra.Command{
		Use:   "next EXPR",
		Short: "Print the next occurrences of a cron expression",
		Example: `  cronpulse next "0 30 2 * * *" --tz America/New_York -n 3
  cronpulse next "0 0 L * *" --from 2024-01-01T00:00:00Z`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(cmd.OutOrStdout(), args[0], opts, time.Now())
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 5, "number of occurrences")
	cmd.Flags().StringVar(&opts.tz, "tz", "", "IANA time zone (default Local)")
	cmd.Flags().StringVar(&opts.from, "from", "", "search start, RFC3339 (default now)")
	cmd.Flags().StringVar(&opts.until, "until", "", "search end, RFC3339 (default start + 8760h)")
	return cmd
}

func runNext(w io.Writer, expr string, opts nextOptions, now time.Time) error {
	s, err := cronexpr.Parse(expr)
	if err != nil {
		return err
	}
	loc := time.Local
	if tz := strings.TrimSpace(opts.tz); tz != "" {
		if loc, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("--tz: %w", err)
		}
	}
	from := now
	if opts.from != "" {
		if from, err = time.Parse(time.RFC3339, opts.from); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}
	until := from.Add(config.DefaultHorizon)
	if opts.until != "" {
		if until, err = time.Parse(time.RFC3339, opts.until); err != nil {
			return fmt.Errorf("--until: %w", err)
		}
	}
	if opts.count <= 0 {
		return fmt.Errorf("--count must be > 0")
	}

	occ := trigger.Occurrences(s, loc, from, until, opts.count)
	if len(occ) == 0 {
		fmt.Fprintf(w, "no occurrence between %s and %s\n", from.Format(time.RFC3339), until.Format(time.RFC3339))
		return nil
	}
	for _, t := range occ {
		fmt.Fprintf(w, "%s  %s  %s\n", t.Format(time.RFC3339), t.Format("Mon"), t.UTC().Format(time.RFC3339))
	}
	return nil
}
