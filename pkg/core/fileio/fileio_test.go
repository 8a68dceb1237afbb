package fileio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"tdnet_xbrl/pkg/core/filename"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("<html></html>"), 0o644))
	}
}

func base(plan []PlannedFile) []string {
	out := make([]string, len(plan))
	for i, pf := range plan {
		out[i] = filepath.Base(pf.Path)
	}
	return out
}

func TestStatementCode(t *testing.T) {
	assert.Equal(t, "acbs", StatementCode(filename.BalanceSheet, filename.Annual, true, "bs"))
	assert.Equal(t, "qnpl", StatementCode(filename.IncomeStatement, filename.Quarterly, false, "pl"))
	assert.Equal(t, "scfs", StatementCode(filename.BalanceSheet, filename.Semiannual, true, "fs"))
}

func TestListStatementFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"0300000-acfs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
		"0300000-acbs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
		"0300000-acbs01-tse-acedjpfr-13010-2015-03-31-01-2015-05-09-ixbrl.htm",
		"0300000-qcbs01-tse-qcedjpfr-13010-2016-06-30-01-2016-08-05-ixbrl.htm",
		"0300000-acpl01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "x-acbs-dir"), 0o755))

	files, err := ListStatementFiles(dir, filename.BalanceSheet, filename.Annual, true)
	require.NoError(t, err)
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	assert.Equal(t, []string{
		"0300000-acbs01-tse-acedjpfr-13010-2015-03-31-01-2015-05-09-ixbrl.htm",
		"0300000-acbs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
		"0300000-acfs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
	}, names)

	_, err = ListStatementFiles(dir, filename.StatementUnknown, filename.Annual, true)
	assert.Error(t, err)
	_, err = ListStatementFiles(dir, filename.BalanceSheet, filename.CadenceUnknown, true)
	assert.Error(t, err)
}

func TestPlanCompany(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		// annual: consolidated present, standalone skipped
		"0300000-acbs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
		"0300000-anbs01-tse-anedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
		// quarterly: only standalone, so it is taken
		"0300000-qnbs01-tse-qnedjpfr-13010-2016-06-30-01-2016-08-05-ixbrl.htm",
		// semiannual: both taken
		"0300000-scbs01-tse-scedjpfr-13010-2016-09-30-01-2016-11-04-ixbrl.htm",
		"0300000-snbs01-tse-snedjpfr-13010-2016-09-30-01-2016-11-04-ixbrl.htm",
		// income statement
		"0300000-qcpl01-tse-qcedjpfr-13010-2016-06-30-01-2016-08-05-ixbrl.htm",
	)

	plan, err := PlanCompany(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0300000-acbs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
		"0300000-qnbs01-tse-qnedjpfr-13010-2016-06-30-01-2016-08-05-ixbrl.htm",
		"0300000-scbs01-tse-scedjpfr-13010-2016-09-30-01-2016-11-04-ixbrl.htm",
		"0300000-snbs01-tse-snedjpfr-13010-2016-09-30-01-2016-11-04-ixbrl.htm",
		"0300000-qcpl01-tse-qcedjpfr-13010-2016-06-30-01-2016-08-05-ixbrl.htm",
	}, base(plan))

	assert.Equal(t, filename.BalanceSheet, plan[0].Statement)
	assert.True(t, plan[0].Consolidated)
	assert.False(t, plan[1].Consolidated)
	assert.Equal(t, filename.Quarterly, plan[1].Cadence)
	assert.Equal(t, filename.IncomeStatement, plan[4].Statement)
	assert.Equal(t, "annual consolidated bs", plan[0].Describe())
}

func TestPlanCompanyEmpty(t *testing.T) {
	plan, err := PlanCompany(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestCompanyDirs(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"4612", "1301", "notes", "130A"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, d), 0o755))
	}
	touch(t, root, "9999")

	dirs, err := CompanyDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "1301"),
		filepath.Join(root, "130A"),
		filepath.Join(root, "4612"),
	}, dirs)

	_, err = CompanyDirs(filepath.Join(root, "missing"))
	assert.Error(t, err)
}

func TestDecodeHTML(t *testing.T) {
	utf := []byte(`<html><body>当第２四半期</body></html>`)
	got, err := DecodeHTML(utf)
	require.NoError(t, err)
	assert.Equal(t, utf, got)

	sjis, err := japanese.ShiftJIS.NewEncoder().String(
		`<html><head><meta charset="Shift_JIS"></head><body>当第２四半期</body></html>`)
	require.NoError(t, err)
	got, err = DecodeHTML([]byte(sjis))
	require.NoError(t, err)
	assert.Contains(t, string(got), "当第２四半期")
}

func TestReadAll(t *testing.T) {
	dir := t.TempDir()
	name := "0300000-acbs01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm"
	touch(t, dir, name)

	plan, err := PlanCompany(dir)
	require.NoError(t, err)
	inputs, failed, err := ReadAll(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, failed)
	require.Len(t, inputs, 1)
	assert.Equal(t, name, inputs[0].Filename)
	assert.Equal(t, name, inputs[0].DocumentID())
	assert.Equal(t, filename.BalanceSheet, inputs[0].Statement)
	assert.Equal(t, "<html></html>", string(inputs[0].Content))

	// A file that disappeared after planning fails alone.
	gone := filepath.Join(dir, "gone.htm")
	mixed := append([]PlannedFile{{Path: gone, Statement: filename.BalanceSheet}}, plan...)
	inputs, failed, err = ReadAll(context.Background(), mixed)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, name, inputs[0].Filename)
	require.Len(t, failed, 1)
	assert.Equal(t, gone, failed[0].Path)
	assert.ErrorIs(t, failed[0].Err, os.ErrNotExist)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ReadAll(ctx, plan)
	assert.ErrorIs(t, err, context.Canceled)
}
