package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/billcsv"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pathutil"
)

var (
	convertType           string
	convertFile           string
	convertDryRun         bool
	convertCheckDuplicate bool
)

// convertCmd represents the convert command.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Commit a mapped CSV into the ledger",
	Long: `Normalize the rows of a mapped CSV (see map), build a transaction for
every complete row and commit them into the ledger.

The new transactions are written to a staged file first. bean-check runs on
the ledger, and only when it passes is the file moved into place and
included from the ledger. Set BEANCOUNT_VERIFY_AFTER_COMMIT=true to also
check the ledger after the include is added and undo the commit on failure.

With --check-duplicate the command refuses a file whose SHA-256 matches an
earlier committed import.

Example:
  beancount-helper convert --file mapped.csv
  beancount-helper convert --type alipay --file mapped.csv --dry-run
  beancount-helper convert --file mapped.csv --check-duplicate`,
	Run: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertType, "type", "wechat", "account type the mapped CSV came from")
	convertCmd.Flags().StringVar(&convertFile, "file", "", "mapped CSV (required)")
	convertCmd.Flags().BoolVar(&convertDryRun, "dry-run", false, "print the transactions without writing")
	convertCmd.Flags().BoolVar(&convertCheckDuplicate, "check-duplicate", false, "refuse a file whose contents were committed before")

	convertCmd.MarkFlagRequired("file")
}

func runConvert(cmd *cobra.Command, args []string) {
	slog.Info("Converting mapped bill", "type", convertType, "file", convertFile, "dry_run", convertDryRun)

	rule := loadRule(convertType)

	mapped, err := billcsv.ReadFile(convertFile, rule.MappedCSVOptions())
	exitOnError(err, "failed to read mapped CSV")

	materializer, err := buildMaterializer(rule)
	exitOnError(err, "failed to build normalizer")

	err = commitBatch(cmd.Context(), commitRequest{
		AccountType:    convertType,
		SourceFile:     convertFile,
		Stem:           pathutil.NewRunStem(time.Now()),
		Batch:          materializer.Materialize(mapped.Records),
		DryRun:         convertDryRun,
		CheckDuplicate: convertCheckDuplicate,
	})
	exitOnError(err, "failed to commit transactions")
}
