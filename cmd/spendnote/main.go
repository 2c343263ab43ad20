package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ArionMiles/spendnote/pkg/config"
	"github.com/ArionMiles/spendnote/pkg/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "spendnote",
		Short: "Turn one-line expense notes into a ledger",
		Long: `spendnote reads notes like "799 zomato upi - dinner" and records the amount,
payment method, date, merchant, note and category.

Configuration comes from an optional JSON file (--config) and the environment.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file (environment variables override it)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	rootCmd.AddCommand(
		parseCmd(),
		addCmd(),
		editCmd(),
		setCmd(),
		rmCmd(),
		lsCmd(),
		monthCmd(),
		budgetCmd(),
		learnCmd(),
		importCmd(),
		exportCmd(),
		serveCmd(),
		setupCmd(),
		statusCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	if logFormat == "" {
		logFormat = cfg.LogFormat
	}

	logCfg := logging.DefaultConfig()
	if logLevel != "" {
		logCfg.Level = logging.ParseLevel(logLevel)
	}
	if logFormat != "" {
		logCfg.JSON = logging.IsJSONFormat(logFormat)
	}
	logger = logging.Setup(logCfg)

	logger.Debug("configuration loaded",
		"store", cfg.Store,
		"timezone", cfg.Timezone,
		"learned_categories", cfg.LearnedCategories,
	)
	return nil
}
