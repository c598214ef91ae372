package soa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVRecognizesAliasedHeaders(t *testing.T) {
	input := "Invoice #,Doc Date,Total,CCY\nINV-001,2026-01-15,\"1,250.50\",usd\n"

	lines, rowErrs, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, lines, 1)
	assert.Equal(t, "INV-001", lines[0].DocumentNumber)
	assert.Equal(t, int64(125050), lines[0].AmountCents)
	assert.Equal(t, "USD", lines[0].Currency)
	assert.Equal(t, "INV", lines[0].DocumentType) // defaulted, no document-type column present
}

func TestParseCSVDefaultsCurrencyAndType(t *testing.T) {
	input := "document_number,document_date,amount\nDOC-1,2026-02-01,99.99\n"

	lines, rowErrs, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, lines, 1)
	assert.Equal(t, "USD", lines[0].Currency)
	assert.Equal(t, "INV", lines[0].DocumentType)
	assert.Equal(t, int64(9999), lines[0].AmountCents)
}

func TestParseCSVCollectsPerRowErrorsWithoutAborting(t *testing.T) {
	input := "document_number,document_date,amount\n" +
		"DOC-1,2026-02-01,99.99\n" +
		"DOC-2,not-a-date,10.00\n" +
		",2026-02-03,10.00\n" +
		"DOC-4,2026-02-04,not-a-number\n"

	lines, rowErrs, err := ParseCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "DOC-1", lines[0].DocumentNumber)
	require.Len(t, rowErrs, 3)
	assert.Equal(t, 2, rowErrs[0].Row)
	assert.Equal(t, 3, rowErrs[1].Row)
	assert.Equal(t, 4, rowErrs[2].Row)
}

func TestParseCSVRequiresCoreColumns(t *testing.T) {
	input := "foo,bar\n1,2\n"

	_, _, err := ParseCSV(strings.NewReader(input))

	assert.Error(t, err)
}

func TestParseAmountCentsHandlesCurrencySymbolsAndThousands(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"$1,234.56", 123456},
		{"€99.00", 9900},
		{"£10", 1000},
		{"1000", 100000},
		{"12.5", 1250},
	}
	for _, tt := range tests {
		got, err := parseAmountCents(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestParseAmountCentsRejectsEmpty(t *testing.T) {
	_, err := parseAmountCents("   ")
	assert.Error(t, err)
}

func TestParseDateTriesEachKnownLayout(t *testing.T) {
	tests := []string{
		"2026-01-15",
		"2026/01/15",
		"Jan 15, 2026",
		"15 Jan 2026",
	}
	for _, raw := range tests {
		_, err := parseDate(raw)
		assert.NoError(t, err, raw)
	}
}

func TestParseDateRejectsUnrecognizedLayout(t *testing.T) {
	_, err := parseDate("the fifteenth of January")
	assert.Error(t, err)
}

func TestNormalizeDocumentNumberStripsPunctuationAndCase(t *testing.T) {
	assert.Equal(t, "inv1000", normalizeDocumentNumber("INV-1000"))
	assert.Equal(t, "inv1000", normalizeDocumentNumber("inv_1000"))
	assert.Equal(t, "inv1000", normalizeDocumentNumber("INV 1000"))
	assert.Equal(t, "inv1000", normalizeDocumentNumber("inv.10/00"))
}

func TestResolveColumnsIsCaseAndWhitespaceInsensitive(t *testing.T) {
	cols := resolveColumns([]string{" Document Number ", "Date", "Amount"})

	assert.Contains(t, cols, "document_number")
	assert.Contains(t, cols, "document_date")
	assert.Contains(t, cols, "amount")
}
