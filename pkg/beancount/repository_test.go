package beancount

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerFileEnsure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bean", "moneybook.bean")
	l := NewLedgerFile(path)
	assert.False(t, l.Exists())

	require.NoError(t, l.Ensure("CNY"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "option \"operating_currency\" \"CNY\"\n")

	// existing ledgers are left alone
	require.NoError(t, os.WriteFile(path, []byte("; mine\n"), 0644))
	require.NoError(t, l.Ensure("CNY"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "; mine\n", string(data))
}

func TestLedgerFileRemoveIncludes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.bean")
	content := "a\ninclude \"x.bean\"\n  include \"x.bean\" ; again\ninclude \"y.bean\"\nb"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	l := NewLedgerFile(path)
	removed, err := l.RemoveIncludes("x.bean")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\ninclude \"y.bean\"\nb", string(data))

	removed, err = l.RemoveIncludes("z.bean")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestLedgerFileStagingFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLedgerFile(filepath.Join(dir, "main.bean"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".abc"+StagingSuffix), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.bean"), nil, 0644))

	files, err := l.StagingFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".abc"+StagingSuffix)}, files)
}

func TestBeanCheck(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script validator")
	}
	dir := t.TempDir()

	script := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0755))
		return p
	}

	tests := []struct {
		name     string
		binary   string
		wantDiag string
		wantErr  bool
	}{
		{"clean", script("ok.sh", "exit 0"), "", false},
		{"stderr output", script("bad.sh", "echo 'main.bean:1: Syntax error' >&2; exit 1"), "main.bean:1: Syntax error", false},
		{"exit status only", script("status.sh", "exit 2"), "status.sh exited with status 2", false},
		{"missing binary", filepath.Join(dir, "nope"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBeanCheck(tt.binary)
			diag, err := b.Check(context.Background(), filepath.Join(dir, "main.bean"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.name == "exit status only" {
				assert.Contains(t, diag, "exited with status 2")
				return
			}
			assert.Equal(t, tt.wantDiag, diag)
		})
	}
}

func TestNewBeanCheckDefault(t *testing.T) {
	assert.Equal(t, DefaultBeanCheckBinary, NewBeanCheck("").Binary)
}
