package cmd

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/db"
)

var statsLimit int

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display import statistics",
	Long: `Display statistics about imported bills.

Shows:
- Number of committed, rejected and failed imports
- Transactions committed per account type
- The most recent imports

Example:
  beancount-helper stats
  beancount-helper stats --limit 20`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "number of recent imports to list")
}

func runStats(cmd *cobra.Command, args []string) {
	dbPath := paths.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewImportHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Import Statistics ===")
	fmt.Printf("Imports:               %d\n", stats.TotalImports)
	fmt.Printf("  committed:           %d\n", stats.Committed)
	fmt.Printf("  rejected:            %d\n", stats.Rejected)
	fmt.Printf("  failed:              %d\n", stats.Failed)
	fmt.Printf("Transactions:          %d\n", stats.TotalTransactions)
	fmt.Printf("Dropped rows:          %d\n", stats.TotalDropped)

	types := make([]string, 0, len(stats.ByAccountType))
	for t := range stats.ByAccountType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-20s %d\n", t+":", stats.ByAccountType[t])
	}

	last, err := lastImportSummary(history)
	exitOnError(err, "failed to read last import")
	fmt.Printf("Last import:           %s\n", last)

	lastOutput, err := history.GetMetadata(db.MetaLastCommitted)
	exitOnError(err, "failed to read metadata")
	if lastOutput != "" {
		fmt.Printf("Last committed file:   %s\n", lastOutput)
	}

	recent, err := history.ListImports(statsLimit)
	exitOnError(err, "failed to list imports")
	if len(recent) > 0 {
		fmt.Println("\nRecent imports:")
		for _, r := range recent {
			fmt.Printf("  %s  %-8s %-10s %4d txns  %s\n",
				r.ImportedAt.Format("2006-01-02 15:04"), r.AccountType, r.State, r.Transactions, r.SourceFile)
		}
	}

	fmt.Println()
}

// lastImportSummary describes the import recorded last, or "(never)".
func lastImportSummary(history *db.ImportHistory) (string, error) {
	id, err := history.GetMetadata(db.MetaLastImportID)
	if err != nil || id == "" {
		return "(never)", err
	}

	record, err := history.GetImport(id)
	if err != nil {
		return "", err
	}
	if record == nil {
		return fmt.Sprintf("%s (missing from history)", id), nil
	}
	return fmt.Sprintf("%s %s %s, %d txns",
		record.ImportedAt.Format("2006-01-02 15:04"), record.AccountType, record.State, record.Transactions), nil
}
