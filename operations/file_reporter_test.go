package operations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenstake/deployments/pkg/logger"
)

type deployInput struct {
	FutureID string `json:"futureId"`
	Calldata string `json:"calldata"`
}

type deployOutput struct {
	Address string `json:"address"`
}

func TestFileReporter_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "chain-1337", "journal.json")

	calls := 0
	op := NewOperation("deploy-contract", semver.MustParse("1.0.0"), "deploy",
		func(b Bundle, deps any, in deployInput) (deployOutput, error) {
			calls++
			return deployOutput{Address: "0x01"}, nil
		})
	input := deployInput{FutureID: "TokenAModule#TokenA", Calldata: "0x"}

	first, err := NewFileReporter(path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path())

	report, err := ExecuteOperation(NewBundle(t.Context, logger.Test(t), first), op, nil, input)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = os.Stat(path)
	require.NoError(t, err)

	// A new reporter reading the same file short-circuits the operation.
	second, err := NewFileReporter(path)
	require.NoError(t, err)

	loaded, err := second.GetReport(report.ID)
	require.NoError(t, err)
	assert.Equal(t, "deploy-contract", loaded.Def.ID)

	again, err := ExecuteOperation(NewBundle(t.Context, logger.Test(t), second), op, nil, input)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, report.ID, again.ID)
	assert.Equal(t, deployOutput{Address: "0x01"}, again.Output)
	assert.Equal(t, input, again.Input)
}

func TestFileReporter_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "journal.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileReporter(path)
	require.ErrorContains(t, err, "failed to unmarshal JSON")

	r, err := NewFileReporter(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)

	reports, err := r.GetReports()
	require.NoError(t, err)
	assert.Empty(t, reports)

	_, err = r.GetReport("nope")
	require.ErrorIs(t, err, ErrReportNotFound)
}
