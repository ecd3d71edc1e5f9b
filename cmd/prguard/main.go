// Command prguard trains and serves the purchase-requisition anomaly
// detection model.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/procurewatch/prguard/internal/config"
	"github.com/procurewatch/prguard/internal/logging"
)

func main() {
	cfg := config.Load()

	logLevel := cfg.LogLevel
	root := &cobra.Command{
		Use:   "prguard",
		Short: "Isolation-forest anomaly detection for purchase requisitions",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Init(logging.ParseLevel(logLevel))
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newTrainCmd(cfg.Train))
	root.AddCommand(newServeCmd(cfg.Serve))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
