package beancount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// State is the state of one commit attempt.
type State string

const (
	StateStaged    State = "staged"
	StateValidated State = "validated"
	StateCommitted State = "committed"
	StateRejected  State = "rejected"
	StateFailed    State = "failed"
)

// ErrValidationRejected is returned when the validator reports the ledger invalid.
var ErrValidationRejected = errors.New("ledger validation rejected")

// CommitIOError reports an unexpected file system failure during a commit.
type CommitIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CommitIOError) Error() string {
	return fmt.Sprintf("commit %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CommitIOError) Unwrap() error {
	return e.Err
}

// CommitterConfig configures a Committer.
type CommitterConfig struct {
	// LedgerPath is the main ledger file new postings are included into.
	LedgerPath string
	// OutputPath is where the staged postings end up. Defaults to a
	// timestamped .bean file next to the ledger.
	OutputPath string
	Validator  Validator
	Logger     *slog.Logger
	// VerifyAfterCommit re-runs the validator once the include directive is
	// appended and undoes the commit if the ledger no longer loads.
	VerifyAfterCommit bool
}

// Committer writes batches of transactions into a ledger in three steps:
// stage them in a side file, validate the ledger, then move the side file
// into place and include it from the ledger.
//
// The validator runs against the ledger as it is before the include is
// appended. Set VerifyAfterCommit to also check the result.
//
// A Committer assumes it is the only writer of the ledger; the append step
// is not locked.
type Committer struct {
	ledger            *LedgerFile
	outputPath        string
	validator         Validator
	logger            *slog.Logger
	verifyAfterCommit bool
}

// NewCommitter creates a Committer.
func NewCommitter(cfg CommitterConfig) (*Committer, error) {
	if cfg.LedgerPath == "" {
		return nil, errors.New("ledger path is required")
	}
	if cfg.Validator == nil {
		return nil, errors.New("validator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ledger := NewLedgerFile(cfg.LedgerPath)
	output := cfg.OutputPath
	if output == "" {
		output = filepath.Join(ledger.Dir(), time.Now().Format("2006-01-02_15-04-05")+".bean")
	}

	return &Committer{
		ledger:            ledger,
		outputPath:        output,
		validator:         cfg.Validator,
		logger:            logger,
		verifyAfterCommit: cfg.VerifyAfterCommit,
	}, nil
}

// CommitResult describes the outcome of a commit attempt.
type CommitResult struct {
	State        State
	StagedPath   string
	OutputPath   string
	Transactions int
	Diagnostic   string // validator output on rejection
	Err          error
}

// OK reports whether the batch was committed.
func (r CommitResult) OK() bool {
	return r.State == StateCommitted
}

// Commit stages txns, validates the ledger and grafts the new file into it.
// Failures are logged and reported through the result; the ledger is left
// unmodified on rejection.
func (c *Committer) Commit(ctx context.Context, txns []Transaction) CommitResult {
	res := CommitResult{OutputPath: c.outputPath, Transactions: len(txns)}

	staged, err := c.stage(txns)
	if err != nil {
		return c.fail(res, err)
	}
	res.State = StateStaged
	res.StagedPath = staged
	c.logger.Debug("Staged transactions", "path", staged, "count", len(txns))

	diag, err := c.validator.Check(ctx, c.ledger.Path())
	if err != nil {
		err = &CommitIOError{Op: "validate", Path: c.ledger.Path(), Err: err}
		if cleanupErr := c.discard(staged); cleanupErr != nil {
			err = multierror.Append(err, cleanupErr)
		}
		return c.fail(res, err)
	}
	if diag != "" {
		return c.reject(res, staged, diag)
	}
	res.State = StateValidated
	c.logger.Info("Ledger check passed", "ledger", c.ledger.Path())

	var snapshot []byte
	if c.verifyAfterCommit {
		if snapshot, err = c.ledger.Read(); err != nil {
			if cleanupErr := c.discard(staged); cleanupErr != nil {
				err = multierror.Append(err, cleanupErr)
			}
			return c.fail(res, &CommitIOError{Op: "snapshot", Path: c.ledger.Path(), Err: err})
		}
	}

	if err := c.graft(staged); err != nil {
		return c.fail(res, err)
	}

	if c.verifyAfterCommit {
		if res, done := c.verify(ctx, res, snapshot); done {
			return res
		}
	}

	res.State = StateCommitted
	c.logger.Info("Transactions committed",
		"ledger", c.ledger.Path(),
		"output", c.outputPath,
		"count", len(txns),
	)
	return res
}

// stage writes txns to a uniquely named file in the ledger directory.
func (c *Committer) stage(txns []Transaction) (string, error) {
	name := fmt.Sprintf(".%s%s", uuid.NewString(), StagingSuffix)
	path := filepath.Join(c.ledger.Dir(), name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", &CommitIOError{Op: "stage", Path: path, Err: err}
	}

	_, writeErr := f.WriteString(FormatTransactions(txns))
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		var errs error = &CommitIOError{Op: "stage", Path: path, Err: writeErr}
		if rmErr := os.Remove(path); rmErr != nil {
			errs = multierror.Append(errs, rmErr)
		}
		return "", errs
	}
	return path, nil
}

// graft moves the staged file to the output path and includes it.
func (c *Committer) graft(staged string) error {
	if _, err := os.Stat(c.outputPath); err == nil {
		var errs error = &CommitIOError{Op: "rename", Path: c.outputPath, Err: os.ErrExist}
		if cleanupErr := c.discard(staged); cleanupErr != nil {
			errs = multierror.Append(errs, cleanupErr)
		}
		return errs
	}
	if err := os.MkdirAll(filepath.Dir(c.outputPath), 0755); err != nil {
		return &CommitIOError{Op: "rename", Path: c.outputPath, Err: err}
	}
	if err := os.Rename(staged, c.outputPath); err != nil {
		return &CommitIOError{Op: "rename", Path: c.outputPath, Err: err}
	}
	c.logger.Debug("Moved staged file", "from", staged, "to", c.outputPath)

	if err := c.ledger.AppendInclude(c.outputPath); err != nil {
		return &CommitIOError{Op: "append", Path: c.ledger.Path(), Err: err}
	}
	return nil
}

// reject rolls back a staged file after the validator refused the ledger.
func (c *Committer) reject(res CommitResult, staged, diag string) CommitResult {
	res.State = StateRejected
	res.Diagnostic = diag
	c.logger.Error("Ledger check failed, rolling back", "ledger", c.ledger.Path(), "diagnostic", diag)

	var errs error = fmt.Errorf("%w: %s", ErrValidationRejected, diag)
	if err := c.discard(staged); err != nil {
		errs = multierror.Append(errs, err)
	}
	res.Err = errs
	c.logger.Info("Rollback completed", "staged", staged)
	return res
}

// discard removes stray include lines for staged and deletes the file.
func (c *Committer) discard(staged string) error {
	var errs *multierror.Error
	removed, err := c.ledger.RemoveIncludes(filepath.Base(staged))
	if err != nil {
		errs = multierror.Append(errs, &CommitIOError{Op: "rollback", Path: c.ledger.Path(), Err: err})
	} else if removed > 0 {
		c.logger.Warn("Removed stray include lines", "staged", staged, "count", removed)
	}
	if err := os.Remove(staged); err != nil && !os.IsNotExist(err) {
		errs = multierror.Append(errs, &CommitIOError{Op: "rollback", Path: staged, Err: err})
	}
	return errs.ErrorOrNil()
}

// verify re-checks the ledger after the include was appended. It returns
// done=true with a final result when the commit had to be undone.
func (c *Committer) verify(ctx context.Context, res CommitResult, snapshot []byte) (CommitResult, bool) {
	diag, err := c.validator.Check(ctx, c.ledger.Path())
	if err == nil && diag == "" {
		return res, false
	}

	var errs *multierror.Error
	if restoreErr := c.ledger.Restore(snapshot); restoreErr != nil {
		errs = multierror.Append(errs, &CommitIOError{Op: "restore", Path: c.ledger.Path(), Err: restoreErr})
	}
	if rmErr := os.Remove(c.outputPath); rmErr != nil && !os.IsNotExist(rmErr) {
		errs = multierror.Append(errs, &CommitIOError{Op: "restore", Path: c.outputPath, Err: rmErr})
	}

	if err != nil {
		errs = multierror.Append(errs, &CommitIOError{Op: "verify", Path: c.ledger.Path(), Err: err})
		return c.fail(res, errs), true
	}

	res.State = StateRejected
	res.Diagnostic = diag
	var rejectErr error = fmt.Errorf("%w after commit: %s", ErrValidationRejected, diag)
	if errs != nil {
		rejectErr = multierror.Append(rejectErr, errs.Errors...)
	}
	res.Err = rejectErr
	c.logger.Error("Ledger check failed after commit, restored ledger", "ledger", c.ledger.Path(), "diagnostic", diag)
	return res, true
}

func (c *Committer) fail(res CommitResult, err error) CommitResult {
	res.State = StateFailed
	res.Err = err
	c.logger.Error("Failed to commit transactions", "ledger", c.ledger.Path(), "error", err)
	return res
}
