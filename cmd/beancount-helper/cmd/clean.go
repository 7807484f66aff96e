package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pathutil"
)

var (
	cleanDryRun bool
	cleanTemp   bool
)

// cleanCmd represents the clean command.
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove staged files left behind by interrupted commits",
	Long: `Remove *.bean.staging files from the ledger directory together with
any include directive that still names them. With --temp the mapped CSVs in
the temp directory are removed as well.

Example:
  beancount-helper clean --dry-run
  beancount-helper clean --temp`,
	Run: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "list files without removing them")
	cleanCmd.Flags().BoolVar(&cleanTemp, "temp", false, "also remove mapped CSVs from the temp directory")
}

func runClean(cmd *cobra.Command, args []string) {
	if err := appConfig.Validate([]string{"home"}, []string{"beancount", "ledger"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	ledger := beancount.NewLedgerFile(paths.GetLedgerPath())

	targets, err := ledger.StagingFiles()
	exitOnError(err, "failed to list staged files")

	if cleanTemp {
		temps, err := filepath.Glob(filepath.Join(paths.GetSubdir(pathutil.TempDir), "*.csv"))
		exitOnError(err, "failed to list temp files")
		targets = append(targets, temps...)
	}

	if len(targets) == 0 {
		fmt.Println("Nothing to clean")
		return
	}

	var result *multierror.Error
	for _, path := range targets {
		if cleanDryRun {
			fmt.Printf("would remove %s\n", path)
			continue
		}

		if ledger.Exists() {
			removed, err := ledger.RemoveIncludes(filepath.Base(path))
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if removed > 0 {
				slog.Info("Removed stray include", "file", filepath.Base(path), "lines", removed)
			}
		}

		if err := os.Remove(path); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to remove %s: %w", path, err))
			continue
		}
		fmt.Printf("removed %s\n", path)
	}

	exitOnError(result.ErrorOrNil(), "failed to clean")
}
