package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shunichi-ikebuchi/beancount-helper/pkg/beancount"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/config"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/converter"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/db"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/mapping"
	"github.com/shunichi-ikebuchi/beancount-helper/pkg/pipeline"
)

// requiredConfig lists the settings every ledger command needs.
var requiredConfig = [][]string{
	{"home"},
	{"beancount", "ledger"},
	{"beancount", "rules"},
}

func loadRule(accountType string) config.AccountRule {
	if err := appConfig.Validate(requiredConfig...); err != nil {
		exitOnError(err, "invalid configuration")
	}

	rules, err := config.LoadRules(paths.GetRulesPath())
	exitOnError(err, "failed to load rules (run init first)")

	rule, err := rules.Get(accountType)
	exitOnError(err, "invalid account type")
	return rule
}

func buildMapper(rule config.AccountRule) (*converter.Mapper, error) {
	workbook := paths.Resolve(rule.MappingFile)
	slog.Debug("Loading rule workbook", "path", workbook)

	tables, err := mapping.LoadWorkbook(workbook, mapping.WorkbookLayout{}, rule.Categories()...)
	if err != nil {
		return nil, err
	}
	for cat, table := range tables {
		slog.Debug("Loaded rules", "category", cat, "rows", table.Len())
	}

	classifier, err := mapping.NewClassifier(rule.MatchSpecs(), tables)
	if err != nil {
		return nil, err
	}

	return converter.NewMapper(converter.MapperConfig{
		Classifier:   classifier,
		IncomeColumn: rule.Bill.IncomeColumn,
		IncomeValue:  rule.Bill.IncomeValue,
		Logger:       slog.Default(),
	})
}

func buildMaterializer(rule config.AccountRule) (*converter.Materializer, error) {
	p, err := pipeline.NewBillPipeline(rule.BillSpec())
	if err != nil {
		return nil, err
	}
	return converter.NewMaterializer(p, slog.Default()), nil
}

// commitRequest carries one batch from a source file to the ledger.
type commitRequest struct {
	AccountType    string
	SourceFile     string
	Stem           string
	Batch          converter.Batch
	DryRun         bool
	CheckDuplicate bool
}

func commitBatch(ctx context.Context, req commitRequest) error {
	batch := req.Batch
	fmt.Printf("Records: %d, transactions: %d, dropped: %d, failed: %d\n",
		batch.Total(), len(batch.Transactions), batch.Dropped, batch.Failed)
	for _, err := range batch.Errors {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}

	if len(batch.Transactions) == 0 {
		fmt.Println("No transactions to commit")
		return nil
	}

	if req.DryRun {
		fmt.Print(beancount.FormatTransactions(batch.Transactions))
		fmt.Println("\n(dry run, ledger not modified)")
		return nil
	}

	if err := appConfig.Validate([]string{"beancount", "beanCheckBin"}); err != nil {
		return err
	}

	digest, err := fileSHA256(req.SourceFile)
	if err != nil {
		return err
	}

	conn, err := db.Open(paths.GetDatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer conn.Close()
	history := db.NewImportHistory(conn)

	if req.CheckDuplicate {
		if err := checkDuplicate(history, req.SourceFile, digest); err != nil {
			return err
		}
	}

	committer, err := beancount.NewCommitter(beancount.CommitterConfig{
		LedgerPath:        paths.GetLedgerPath(),
		OutputPath:        paths.GetOutputBeanPath(req.Stem),
		Validator:         beancount.NewBeanCheck(appConfig.Beancount.BeanCheckBin),
		Logger:            slog.Default(),
		VerifyAfterCommit: appConfig.Beancount.VerifyAfterCommit,
	})
	if err != nil {
		return err
	}

	res := committer.Commit(ctx, batch.Transactions)

	diagnostic := res.Diagnostic
	if diagnostic == "" && res.Err != nil {
		diagnostic = res.Err.Error()
	}
	importID, err := history.RecordImport(db.ImportRecord{
		AccountType:  req.AccountType,
		SourceFile:   req.SourceFile,
		SourceSHA256: digest,
		OutputFile:   res.OutputPath,
		Transactions: res.Transactions,
		Dropped:      batch.Dropped,
		Failed:       batch.Failed,
		State:        string(res.State),
		Diagnostic:   diagnostic,
	})
	if err != nil {
		slog.Error("Failed to record import", "error", err)
	}

	if !res.OK() {
		if res.Diagnostic != "" {
			fmt.Fprintln(os.Stderr, res.Diagnostic)
		}
		return res.Err
	}

	fmt.Printf("Committed %d transactions to %s (import %s)\n", res.Transactions, res.OutputPath, importID)
	return nil
}

// checkDuplicate fails when a file with digest was committed before.
func checkDuplicate(history *db.ImportHistory, source, digest string) error {
	previous, err := history.FindCommitted(digest)
	if err != nil {
		return err
	}
	if previous != nil {
		return fmt.Errorf("%s was already imported on %s into %s",
			source, previous.ImportedAt.Format("2006-01-02 15:04"), previous.OutputFile)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash source file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
