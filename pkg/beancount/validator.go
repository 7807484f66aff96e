package beancount

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBeanCheckBinary is the validator executable looked up on PATH.
const DefaultBeanCheckBinary = "bean-check"

// Validator checks that a ledger file, with all its includes, loads cleanly.
// An empty diagnostic means the ledger is valid; err reports that the check
// itself could not be performed.
type Validator interface {
	Check(ctx context.Context, ledgerPath string) (diagnostic string, err error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, ledgerPath string) (string, error)

func (f ValidatorFunc) Check(ctx context.Context, ledgerPath string) (string, error) {
	return f(ctx, ledgerPath)
}

// BeanCheck runs the bean-check command. Anything written to stderr is
// treated as a validation failure.
type BeanCheck struct {
	Binary string
}

// NewBeanCheck creates a BeanCheck for binary, defaulting to bean-check.
func NewBeanCheck(binary string) *BeanCheck {
	if binary == "" {
		binary = DefaultBeanCheckBinary
	}
	return &BeanCheck{Binary: binary}
}

// Check blocks until bean-check exits. No timeout is applied beyond ctx.
func (b *BeanCheck) Check(ctx context.Context, ledgerPath string) (string, error) {
	path, err := exec.LookPath(b.Binary)
	if err != nil {
		return "", fmt.Errorf("failed to find %s: %w", b.Binary, err)
	}

	cmd := exec.CommandContext(ctx, path, ledgerPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if diag := strings.TrimSpace(stderr.String()); diag != "" {
		return diag, nil
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			// bean-check reports errors on stdout in some versions
			if diag := strings.TrimSpace(stdout.String()); diag != "" {
				return diag, nil
			}
			return fmt.Sprintf("%s exited with status %d", b.Binary, exitErr.ExitCode()), nil
		}
		return "", fmt.Errorf("failed to run %s: %w", b.Binary, runErr)
	}
	return "", nil
}
