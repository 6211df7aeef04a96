package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cronpulse/internal/app"
)

func newRunCmd() *cobra.Command {
	var (
		path   string
		quiet  bool
		stopTO time.Duration
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trigger daemon",
		Long:  "run loads the config, triggers every schedule and prints each fire until SIGINT or SIGTERM. The config file is watched and reloaded on change.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var events io.Writer
			if !quiet {
				events = cmd.OutOrStdout()
			}
			return runDaemon(path, events, stopTO)
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "./cronpulse.yaml", "path to config (json or yaml)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print fire events")
	cmd.Flags().DurationVar(&stopTO, "stop-timeout", 10*time.Second, "upper bound for graceful shutdown")
	return cmd
}

func runDaemon(path string, events io.Writer, stopTimeout time.Duration) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	a, err := app.NewApp(path, app.Options{Events: events})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		_ = a.Stop(stopCtx, app.StopFatalError)
		stopCancel()
		return err
	}

	reason := app.StopUnknown
	select {
	case sig := <-sigs:
		if sig == syscall.SIGTERM {
			reason = app.StopSIGTERM
		} else {
			reason = app.StopSIGINT
		}
	case <-a.Done():
		reason = app.StopFatalError
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)
	if reason == app.StopFatalError {
		if err := a.Err(); err != nil {
			return fmt.Errorf("daemon failed: %w", err)
		}
	}
	return nil
}
