package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"cronpulse/internal/app"
	"cronpulse/internal/config"
	"cronpulse/internal/trigger"
	logx "cronpulse/pkg/logx"
)

func newCheckCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a config file and show when each schedule fires next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), path, time.Now())
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "./cronpulse.yaml", "path to config (json or yaml)")
	return cmd
}

func runCheck(w io.Writer, path string, now time.Time) error {
	cfg, err := config.NewManager(path).Parse()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config %s:\n%w", path, err)
	}
	settings, err := cfg.Scheduler.Resolve()
	if err != nil {
		return err
	}

	svc := trigger.New(app.TriggerConfig(settings), logx.Nop(), nil)
	if _, err := svc.Sync(app.Definitions(cfg)); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: ok (%d schedules, scheduler enabled=%v)\n", path, len(cfg.Schedules), settings.Enabled)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEXPR\tZONE\tNEXT")
	for _, d := range svc.Definitions() {
		next := "never"
		occ, err := svc.Preview(d.Expr, d.Timezone, now, 1)
		if err != nil {
			return err
		}
		if len(occ) > 0 {
			next = occ[0].Format(time.RFC3339)
		}
		zone := d.Timezone
		if zone == "" {
			zone = "(" + svc.Snapshot().Timezone + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Expr, zone, next)
	}
	for _, sc := range cfg.Schedules {
		if sc.Disabled {
			fmt.Fprintf(tw, "%s\t%s\t%s\tdisabled\n", sc.Name, sc.Expr, sc.Timezone)
		}
	}
	return tw.Flush()
}
