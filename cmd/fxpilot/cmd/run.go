package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwatts/fxpilot/config"
	"github.com/mwatts/fxpilot/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live trading loop",
	Long: `Run the polling trade loop against the configured broker.

The loop warms each symbol's price series from historical bars, then
polls ticks on the configured interval. Every tick updates trailing
stops before the strategy is consulted. Ctrl-C stops the loop, ends
the journal session, and optionally flattens open positions.

Example:
  fxpilot run -f fxpilot.yaml`,
	RunE: runRun,
}

var runFlatten bool

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runFlatten, "flatten", true, "close all open positions on shutdown")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer st.journal.Close()

	live, err := runner.New(runner.Config{
		Engine:       st.engine,
		Data:         st.data,
		Metrics:      st.metrics,
		Journal:      st.journal,
		Logger:       st.log,
		Sink:         st.sink,
		Symbols:      cfg.Runner.Symbols,
		Timeframe:    time.Duration(cfg.Runner.TimeframeMinutes) * time.Minute,
		PollInterval: time.Duration(cfg.Runner.PollIntervalSeconds) * time.Second,
		WarmupBars:   cfg.Runner.WarmupBars,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st.log.WithField("session", live.SessionID()).Info("starting")
	if err := live.Run(ctx); err != nil {
		return err
	}

	if runFlatten && st.engine.OpenCount() > 0 {
		st.log.WithField("open", st.engine.OpenCount()).Info("flattening open positions")
		// Fresh context: the signal context is already cancelled.
		flattenCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := st.engine.CloseAll(flattenCtx, "Shutdown"); err != nil {
			return fmt.Errorf("flatten on shutdown: %w", err)
		}
	}
	return nil
}
