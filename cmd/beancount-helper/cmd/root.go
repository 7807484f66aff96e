// Package cmd provides CLI commands for beancount-helper.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/config"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pathutil"
)

var (
	cfgFile string
	debug   bool

	appConfig *config.Config
	paths     *pathutil.PathResolver
	logFile   *os.File
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "beancount-helper",
	Short: "Import WeChat Pay and Alipay bills into a Beancount ledger",
	Long: `beancount-helper maps payment-platform bill exports to ledger accounts
and commits them into a Beancount ledger.

It supports:
- Rule workbooks (.xlsx) that assign expense and asset accounts
- Staged commits checked with bean-check before the ledger is touched
- Import history in SQLite
- Dry-run mode for testing

Example:
  beancount-helper init
  beancount-helper import --type wechat --file bill.csv
  beancount-helper stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(getConfigFile())
		exitOnError(err, "failed to load configuration")
		appConfig = cfg
		paths = pathutil.New(pathutil.Config{
			Home:       cfg.Home,
			LedgerPath: cfg.LedgerPath(),
			RulesPath:  cfg.RulesPath(),
		})

		// Setup logging
		logLevel := slog.LevelInfo
		if debug || cfg.Debug {
			logLevel = slog.LevelDebug
		}

		var out io.Writer = os.Stderr
		if paths.IsDir(paths.GetSubdir(pathutil.LogDir)) {
			f, err := os.OpenFile(paths.GetLogFilePath(time.Now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err == nil {
				logFile = f
				out = io.MultiWriter(os.Stderr, f)
			}
		}

		logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cleanCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		if logFile != nil {
			logFile.Close()
		}
		os.Exit(1)
	}
}
