package filename

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		path         string
		code         string
		dates        []string
		statement    StatementKind
		statementKey string
		cadence      Cadence
		consolidated bool
		standard     StandardHint
	}{
		{
			path:         `E:\Zip_files\4612\0102010-acbs03-tse-acediffr-46120-2024-12-31-01-2025-02-14-ixbrl.htm`,
			code:         "4612",
			dates:        []string{"2024-12-31", "2025-02-14"},
			statement:    BalanceSheet,
			statementKey: "acbs",
			cadence:      Annual,
			consolidated: true,
			standard:     HintIFRS,
		},
		{
			path:         "/data/1301/0301000-acpc01-tse-acedjpfr-13010-2016-03-31-01-2016-05-09-ixbrl.htm",
			code:         "1301",
			dates:        []string{"2016-03-31", "2016-05-09"},
			statement:    IncomeStatement,
			statementKey: "acpc",
			cadence:      Annual,
			consolidated: true,
			standard:     HintJapanGAAP,
		},
		{
			path:         "0600000-qcpl23-tse-qcediffr-46120-2019-09-30-01-2019-11-14-ixbrl.htm",
			code:         "4612",
			dates:        []string{"2019-09-30", "2019-11-14"},
			statement:    IncomeStatement,
			statementKey: "qcpl",
			cadence:      Quarterly,
			consolidated: true,
			standard:     HintIFRS,
		},
		{
			path:         "0500000-snbs15-tse-snedjpfr-52330-2025-09-30-01-2025-11-11-ixbrl.htm",
			code:         "5233",
			dates:        []string{"2025-09-30", "2025-11-11"},
			statement:    BalanceSheet,
			statementKey: "snbs",
			cadence:      Semiannual,
			consolidated: false,
			standard:     HintJapanGAAP,
		},
		{
			path:         "0101010-acbs01-tse-acedjpfr-27801-2014-03-31-02-2014-10-10-ixbrl.htm",
			code:         "27801",
			dates:        []string{"2014-03-31", "2014-10-10"},
			statement:    BalanceSheet,
			statementKey: "acbs",
			cadence:      Annual,
			consolidated: true,
			standard:     HintJapanGAAP,
		},
	}

	for _, tc := range tests {
		t.Run(tc.statementKey+"_"+tc.code, func(t *testing.T) {
			info, err := Parse(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.code, info.CompanyCode)
			assert.Equal(t, tc.dates, info.Dates)
			assert.Equal(t, tc.statement, info.Statement)
			assert.Equal(t, tc.statementKey, info.StatementCode)
			assert.Equal(t, tc.cadence, info.Cadence)
			assert.Equal(t, tc.consolidated, info.Consolidated)
			assert.Equal(t, tc.standard, info.Standard)
			assert.Equal(t, tc.dates[0], info.PeriodEndDate())
			assert.Equal(t, tc.dates[len(tc.dates)-1], info.PublicDate())
		})
	}
}

func TestParse_UnknownStatement(t *testing.T) {
	info, err := Parse("0103010-acss03-tse-acediffr-46120-2024-12-31-01-2025-02-14-ixbrl.htm")
	require.NoError(t, err)
	assert.Equal(t, StatementUnknown, info.Statement)
	assert.Equal(t, Annual, info.Cadence)
	assert.Empty(t, info.StatementCode)
}

func TestParse_LooseNames(t *testing.T) {
	info, err := Parse("report-13010-bs-2016-03-31.htm")
	require.NoError(t, err)
	assert.Equal(t, BalanceSheet, info.Statement)
	assert.Equal(t, CadenceUnknown, info.Cadence)
	assert.Equal(t, HintNone, info.Standard)
	assert.Equal(t, "2016-03-31", info.PeriodEndDate())
}

func TestParse_NoCompanyCode(t *testing.T) {
	info, err := Parse("summary.htm")
	assert.ErrorIs(t, err, ErrNoCompanyCode)
	assert.Empty(t, info.Dates)
	assert.Empty(t, info.PeriodEndDate())
	assert.Empty(t, info.PublicDate())
}

func TestCompanyCode(t *testing.T) {
	assert.Equal(t, "1301", CompanyCode("13010"))
	assert.Equal(t, "27801", CompanyCode("27801"))
	assert.Equal(t, "123", CompanyCode("123"))
}
