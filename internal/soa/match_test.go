package soa

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"vendorops.io/vmp/internal/domain"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	assert.NoError(t, err)
	return d
}

func invoice(t *testing.T, number, currency string, amount int64, date string) domain.Invoice {
	return domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: number,
		Currency:      currency,
		Amount:        amount,
		InvoiceDate:   mustDate(t, date),
	}
}

func line(t *testing.T, number, currency string, amount int64, date string) domain.SOALine {
	return domain.SOALine{
		ID:             uuid.New(),
		DocumentNumber: number,
		Currency:       currency,
		Amount:         amount,
		DocumentDate:   mustDate(t, date),
	}
}

func TestFindMatchPassA(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV-100", "USD", 150000, "2026-01-10")}
	l := line(t, "INV-100", "USD", 150000, "2026-01-10")

	matched, pass, amountDelta, daysDelta, ok := findMatch(l, invoices, 7)

	assert.True(t, ok)
	assert.Equal(t, domain.PassA, pass)
	assert.Equal(t, invoices[0].ID, matched.ID)
	assert.Zero(t, amountDelta)
	assert.Zero(t, daysDelta)
}

func TestFindMatchPassBWithinTolerance(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV-200", "EUR", 50000, "2026-02-01")}
	l := line(t, "INV-200", "EUR", 50000, "2026-02-04")

	matched, pass, amountDelta, daysDelta, ok := findMatch(l, invoices, 7)

	assert.True(t, ok)
	assert.Equal(t, domain.PassB, pass)
	assert.Equal(t, invoices[0].ID, matched.ID)
	assert.Zero(t, amountDelta)
	assert.Equal(t, 3, daysDelta)
}

func TestFindMatchOutsideTolerance(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV-300", "USD", 25000, "2026-01-01")}
	l := line(t, "INV-300", "USD", 25000, "2026-01-20")

	_, _, _, _, ok := findMatch(l, invoices, 7)

	assert.False(t, ok)
}

func TestFindMatchPassCNormalizedDocumentNumber(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV_400", "GBP", 75000, "2026-03-01")}
	l := line(t, "inv-400", "GBP", 75000, "2026-03-01")

	matched, pass, _, _, ok := findMatch(l, invoices, 7)

	assert.True(t, ok)
	assert.Equal(t, domain.PassC, pass)
	assert.Equal(t, invoices[0].ID, matched.ID)
}

func TestFindMatchAmountMismatchNeverMatches(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV-500", "USD", 10000, "2026-01-01")}
	l := line(t, "INV-500", "USD", 10001, "2026-01-01")

	_, _, _, _, ok := findMatch(l, invoices, 7)

	assert.False(t, ok, "automated passes never apply an amount tolerance")
}

func TestFindMatchCurrencyMismatch(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV-600", "USD", 10000, "2026-01-01")}
	l := line(t, "INV-600", "EUR", 10000, "2026-01-01")

	_, _, _, _, ok := findMatch(l, invoices, 7)

	assert.False(t, ok)
}

func TestDaysBetweenIsSymmetric(t *testing.T) {
	a := mustDate(t, "2026-01-10")
	b := mustDate(t, "2026-01-15")

	assert.Equal(t, 5, daysBetween(a, b))
	assert.Equal(t, 5, daysBetween(b, a))
}

func TestSameDayIgnoresTimeComponent(t *testing.T) {
	a := mustDate(t, "2026-01-10")
	b := a.Add(5 * time.Hour)

	assert.True(t, sameDay(a, b))
}

func TestMatchNumberStrictIgnoresNormalizedForm(t *testing.T) {
	assert.False(t, matchNumber("INV-100", "inv100", false))
	assert.True(t, matchNumber("INV-100", "INV-100", false))
}

func TestMatchNumberNormalizedAcceptsNormalizedForm(t *testing.T) {
	assert.True(t, matchNumber("INV-100", "inv100", true))
	assert.False(t, matchNumber("INV-999", "inv100", true))
}

func TestFindMatchDoesNotExactMatchRawNumberAgainstNormalizedInvoiceInPassA(t *testing.T) {
	invoices := []domain.Invoice{invoice(t, "INV-001", "USD", 10000, "2026-01-01")}
	l := line(t, "inv001", "USD", 10000, "2026-01-01")

	_, pass, _, _, ok := findMatch(l, invoices, 7)

	assert.True(t, ok)
	assert.Equal(t, domain.PassC, pass)
}
