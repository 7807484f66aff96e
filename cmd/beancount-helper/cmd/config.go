package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// configCmd groups configuration helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the resolved configuration",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the resolved data, ledger and rules paths",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Data directory: %s\n", paths.GetHome())
		fmt.Printf("Ledger:         %s\n", paths.GetLedgerPath())
		fmt.Printf("Rules:          %s\n", paths.GetRulesPath())
		fmt.Printf("Database:       %s\n", paths.GetDatabasePath())
		fmt.Printf("Log file:       %s\n", paths.GetLogFilePath(time.Now()))
		fmt.Printf("bean-check:     %s\n", appConfig.Beancount.BeanCheckBin)
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
}
