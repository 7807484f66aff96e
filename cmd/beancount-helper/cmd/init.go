package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/config"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/db"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/mapping"
)

var initForce bool

// initCmd represents the init command.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the data directory, ledger and rule templates",
	Long: `Create the data directory layout (bean, rule, logs, temp), an empty
main ledger, rules.yaml and one empty rule workbook per account type.

Existing files are kept. With --force the whole data directory is removed
and recreated first, including the ledger.

Example:
  beancount-helper init
  beancount-helper init --force`,
	Run: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "remove and recreate the data directory")
}

func runInit(cmd *cobra.Command, args []string) {
	slog.Info("Initializing data directory", "home", paths.GetHome(), "force", initForce)

	if err := appConfig.Validate(requiredConfig...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	exitOnError(paths.EnsureLayout(initForce), "failed to create data directory")

	ledger := beancount.NewLedgerFile(paths.GetLedgerPath())
	exitOnError(ledger.Ensure("CNY"), "failed to create ledger")

	rulesPath := paths.GetRulesPath()
	if !paths.FileExists(rulesPath) {
		exitOnError(config.DefaultRules().Save(rulesPath), "failed to write rules")
		slog.Info("Wrote default rules", "path", rulesPath)
	}

	rules, err := config.LoadRules(rulesPath)
	exitOnError(err, "failed to load rules")

	for _, accountType := range rules.Types() {
		rule := rules[accountType]
		workbook := paths.Resolve(rule.MappingFile)
		if paths.FileExists(workbook) {
			slog.Debug("Rule workbook exists", "type", accountType, "path", workbook)
			continue
		}
		exitOnError(paths.EnsureParentDir(workbook), "failed to create rule directory")
		err := mapping.InitWorkbook(workbook, rule.Headers(), rule.Categories()...)
		exitOnError(err, fmt.Sprintf("failed to create %s rule workbook", accountType))
		slog.Info("Created rule workbook", "type", accountType, "path", workbook)
	}

	conn, err := db.Open(paths.GetDatabasePath())
	exitOnError(err, "failed to open database")
	conn.Close()

	fmt.Printf("Data directory: %s\n", paths.GetHome())
	fmt.Printf("Ledger:         %s\n", ledger.Path())
	fmt.Printf("Rules:          %s\n", rulesPath)
}
