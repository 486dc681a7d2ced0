package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-credit-score/internal/pipeline"
)

func writeTransactions(t *testing.T, dir string) string {
	t.Helper()

	var records []string
	for i := 0; i < 8; i++ {
		records = append(records, fmt.Sprintf(
			`{"userWallet":"0x%040d","timestamp":%d,"action":"deposit","actionData":{"amount":"%d000000000000000000"}}`,
			i, 1629000000+i*86400, (i+1)*(i+1)))
	}
	records = append(records,
		`{"userWallet":"0x0000000000000000000000000000000000000001","timestamp":1629500000,"action":"borrow","actionData":{"amount":"3000000000000000000"}}`)

	path := filepath.Join(dir, "tx.json")
	require.NoError(t, os.WriteFile(path, []byte("["+strings.Join(records, ",")+"]"), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeTransactions(t, dir)
	out := filepath.Join(dir, "out")
	prom := filepath.Join(dir, "creditscore.prom")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"run",
		"--input", input,
		"--output-dir", out,
		"--metrics-textfile", prom,
		"--log-format", "json",
		"--log-level", "warn",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	csv, err := os.ReadFile(filepath.Join(out, "wallet_credit_scores.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(csv), "\n"), "\n")
	assert.Len(t, lines, 9)
	assert.Equal(t, "userWallet,credit_score_kmeans,cluster", lines[0])

	for _, name := range []string{"credit_score_distribution.png", "cluster_feature_means.png", "SCORE_REPORT.md"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	metrics, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "wallet_credit_score_pipeline_runs_total")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run", "--clusters", "3"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring.bands")
}

func TestRunCommand_MissingInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"run",
		"--input", filepath.Join(t.TempDir(), "missing.json"),
		"--output-dir", t.TempDir(),
		"--log-level", "error",
	})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestImportCommand_RejectsFileTarget(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"import", "--target", "file"})

	err := cmd.ExecuteContext(context.Background())
	assert.Error(t, err)
}

func TestMigrateCommand_RequiresDSN(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "--target", "clickhouse"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse dsn is required")
}

func TestExplainCommand(t *testing.T) {
	input := writeTransactions(t, t.TempDir())

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"explain",
		"--input", input,
		"--wallet", "0x0000000000000000000000000000000000000001",
		"--log-level", "error",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Wallet 0x0000000000000000000000000000000000000001: 2 transactions")
	assert.Contains(t, text, "2021-08-16T04:00:00Z")
	assert.Regexp(t, `borrow\s+3\.000000`, text)
	assert.Regexp(t, `deposit\s+4\.000000`, text)
	assert.Regexp(t, `net_position\s+1\.000000`, text)
	assert.Regexp(t, `tx_count\s+2`, text)
}

func TestExplainCommand_RequiresWallet(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"explain", "--input", writeTransactions(t, t.TempDir())})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--wallet")
}

func TestExplainCommand_UnknownWallet(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"explain",
		"--input", writeTransactions(t, t.TempDir()),
		"--wallet", "0xnobody",
		"--log-level", "error",
	})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrUnknownWallet)
}
