package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pathutil"
)

var (
	importType           string
	importFile           string
	importDryRun         bool
	importCheckDuplicate bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Map a bill and commit it into the ledger",
	Long: `Run map and convert in one step. The mapped CSV is kept in the temp
directory under the same name as the new ledger file.

With --check-duplicate the command refuses a bill whose SHA-256 matches an
earlier committed import.

Example:
  beancount-helper import --type wechat --file bill.csv
  beancount-helper import --type wechat --file bill.csv --dry-run
  beancount-helper import --type wechat --file bill.csv --check-duplicate`,
	Run: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importType, "type", "", "account type, e.g. wechat or alipay (required)")
	importCmd.Flags().StringVar(&importFile, "file", "", "bill export (required)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "print the transactions without writing the ledger")
	importCmd.Flags().BoolVar(&importCheckDuplicate, "check-duplicate", false, "refuse a bill whose contents were committed before")

	importCmd.MarkFlagRequired("type")
	importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) {
	slog.Info("Starting import", "type", importType, "file", importFile, "dry_run", importDryRun)

	rule := loadRule(importType)
	stem := pathutil.NewRunStem(time.Now())

	mappedPath, mapped, err := mapBill(rule, importFile, paths.GetTempCSVPath(stem))
	exitOnError(err, "failed to map bill")
	slog.Debug("Mapped bill", "path", mappedPath)

	materializer, err := buildMaterializer(rule)
	exitOnError(err, "failed to build normalizer")

	err = commitBatch(cmd.Context(), commitRequest{
		AccountType:    importType,
		SourceFile:     importFile,
		Stem:           stem,
		Batch:          materializer.Materialize(mapped),
		DryRun:         importDryRun,
		CheckDuplicate: importCheckDuplicate,
	})
	exitOnError(err, "failed to commit transactions")
}
