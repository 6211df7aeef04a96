package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cronpulse/internal/config"
	"cronpulse/internal/storage"
	logx "cronpulse/pkg/logx"
)

func newHistoryCmd() *cobra.Command {
	var (
		path  string
		name  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded fires from the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), cmd.OutOrStdout(), path, name, limit)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "./cronpulse.yaml", "path to config (json or yaml)")
	cmd.Flags().StringVar(&name, "name", "", "only this schedule")
	cmd.Flags().IntVarP(&limit, "count", "n", 20, "number of records")
	return cmd
}

func runHistory(ctx context.Context, w io.Writer, path, name string, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.NewManager(path).Parse()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage == nil {
		return fmt.Errorf("%s: no storage configured", path)
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	st, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, logx.Nop())
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("%s: storage is disabled", path)
	}
	defer st.Close()

	recs, err := st.Recent(ctx, name, limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEDULED\tNAME\tSTATUS\tFIRED")
	for _, r := range recs {
		status, fired := "fired", r.Fired.Format(time.RFC3339)
		if r.Missed {
			status, fired = "missed", "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Scheduled.Format(time.RFC3339), r.Schedule, status, fired)
	}
	return tw.Flush()
}
