package cmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwatts/fxpilot/backtest"
	"github.com/mwatts/fxpilot/config"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through the strategy",
	Long: `Backtest the configured strategy over historical bars.

Bars come from the configured broker's history endpoint, or from the
built-in random-walk generator in sim mode. Each bar runs the trailing
stop check and the strategy; positions still open after the last bar
are closed at the final price.

Example:
  fxpilot backtest -f fxpilot.yaml --symbol EURUSD --bars 1000`,
	RunE: runBacktest,
}

var (
	backtestSymbol string
	backtestBars   int
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "EURUSD", "symbol to backtest")
	backtestCmd.Flags().IntVar(&backtestBars, "bars", 1000, "number of bars to replay")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st, err := buildStack(cfg)
	if err != nil {
		return err
	}
	defer st.journal.Close()

	bt, err := backtest.New(backtest.Config{
		Engine:  st.engine,
		Data:    st.data,
		Metrics: st.metrics,
		Logger:  st.log,
		Sink:    st.sink,
	})
	if err != nil {
		return err
	}

	interval := time.Duration(cfg.Runner.TimeframeMinutes) * time.Minute
	res, err := bt.Run(context.Background(), backtestSymbol, interval, backtestBars)
	if err != nil {
		return err
	}

	snap := res.Metrics
	equity := 0.0
	if n := len(snap.EquityCurve); n > 0 {
		equity = snap.EquityCurve[n-1]
	}

	fmt.Printf("Backtest: %s, %d bars in %s\n\n", res.Symbol, res.Bars, res.Duration.Round(time.Millisecond))
	fmt.Printf("  Trades:        %d\n", res.Trades)
	fmt.Printf("  Net P/L:       %.2f\n", equity)
	fmt.Printf("  Win rate:      %.1f%%\n", snap.WinRate*100)
	if math.IsInf(snap.ProfitFactor, 1) {
		fmt.Printf("  Profit factor: inf (no losing trades)\n")
	} else {
		fmt.Printf("  Profit factor: %.2f\n", snap.ProfitFactor)
	}
	fmt.Printf("  Sharpe ratio:  %.2f\n", snap.SharpeRatio)
	fmt.Printf("  Max drawdown:  %.2f\n", snap.MaxDrawdown)
	return nil
}
