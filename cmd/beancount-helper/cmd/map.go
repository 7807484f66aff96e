package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/billcsv"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/config"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/converter"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pathutil"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

var (
	mapType   string
	mapFile   string
	mapOutput string
)

// mapCmd represents the map command.
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Assign accounts to a bill and write the mapped CSV",
	Long: `Read a bill export, look up the expense and asset account of every row
in the rule workbook and write the bill with debit_id, debit, credit_id and
credit columns added. Review or edit the result, then run convert.

Example:
  beancount-helper map --type wechat --file bill.csv
  beancount-helper map --type alipay --file bill.csv --output mapped.csv`,
	Run: runMap,
}

func init() {
	mapCmd.Flags().StringVar(&mapType, "type", "", "account type, e.g. wechat or alipay (required)")
	mapCmd.Flags().StringVar(&mapFile, "file", "", "bill export (required)")
	mapCmd.Flags().StringVar(&mapOutput, "output", "", "mapped CSV path (default: temp directory)")

	mapCmd.MarkFlagRequired("type")
	mapCmd.MarkFlagRequired("file")
}

func runMap(cmd *cobra.Command, args []string) {
	slog.Info("Mapping bill", "type", mapType, "file", mapFile)

	rule := loadRule(mapType)
	output := mapOutput
	if output == "" {
		output = paths.GetTempCSVPath(pathutil.NewRunStem(time.Now()))
	}

	path, _, err := mapBill(rule, mapFile, output)
	exitOnError(err, "failed to map bill")

	fmt.Printf("Mapped bill written to %s\n", path)
}

// mapBill reads the bill at source, maps it and writes the mapped CSV to
// output. It returns the output path and the mapped records.
func mapBill(rule config.AccountRule, source, output string) (string, []pipeline.Record, error) {
	bill, err := billcsv.ReadFile(source, rule.CSVOptions())
	if err != nil {
		return "", nil, err
	}
	slog.Debug("Read bill", "rows", len(bill.Records), "columns", len(bill.Header))

	mapper, err := buildMapper(rule)
	if err != nil {
		return "", nil, err
	}
	mapped, stats := mapper.MapRecords(bill.Records)
	if stats.Defaulted > 0 {
		fmt.Printf("%d of %d rows use a default account\n", stats.Defaulted, stats.Records)
	}
	if stats.Unassigned > 0 {
		fmt.Printf("%d rows have no account on one side and will be dropped by convert\n", stats.Unassigned)
	}

	if err := paths.EnsureParentDir(output); err != nil {
		return "", nil, err
	}
	header := billcsv.WithColumns(bill.Header, converter.MappedColumns...)
	if err := billcsv.WriteFile(output, header, mapped, rule.Bill.MappedEncoding); err != nil {
		return "", nil, err
	}
	return output, mapped, nil
}
