package cmd

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fxpilot",
	Short: "A guarded FX trading bot with trailing stops and risk limits",
	Long: `Fxpilot runs an SMA-crossover trading loop behind a set of risk
guardrails: daily loss cap, drawdown cap, loss-streak cutoff, open-trade
and per-symbol exposure limits. Every open gets a ratcheting trailing
stop, and closed trades feed a performance tracker and a trade journal.

It trades against a built-in simulator by default and against the OANDA
v20 API when configured with credentials.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; env overrides are optional.
		_ = godotenv.Load()

		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
