// Package soa implements the SOA Reconciliation Engine, §4.6: CSV ingest,
// the deterministic three-pass matcher against the shadow invoice ledger,
// manual match/dispute actions, and the sign-off gate. Grounded on the
// teacher's repository pattern, generalized from single-record CRUD to a
// batch ingest-then-reconcile pipeline; CSV parsing uses the standard
// library's encoding/csv since no third-party CSV or flexible-date-parsing
// library appears anywhere in the reference corpus (DESIGN.md).
package soa

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"vendorops.io/vmp/internal/domain"
)

// ParsedLine is one successfully parsed CSV row, pre-persistence.
type ParsedLine struct {
	DocumentNumber string
	DocumentDate   time.Time
	AmountCents    int64
	Currency       string
	DocumentType   string
}

// RowError reports an unparseable input row, §4.6 "Ingest".
type RowError struct {
	Row    int
	Reason string
}

// headerAliases maps each logical column to the header spellings the
// parser accepts, case- and whitespace-insensitively.
var headerAliases = map[string][]string{
	"document_number": {"document number", "invoice #", "invoice#", "doc no", "docno", "reference", "document no"},
	"document_date":   {"date", "document date", "doc date", "invoice date"},
	"amount":          {"amount", "value", "total"},
	"currency":        {"currency", "ccy"},
	"document_type":   {"type", "document type", "doc type"},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, "_", " ")))
}

// resolveColumns matches the CSV header row against headerAliases,
// returning the column index for each logical field found.
func resolveColumns(header []string) map[string]int {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}
	cols := make(map[string]int)
	for field, aliases := range headerAliases {
		for i, h := range normalized {
			for _, alias := range aliases {
				if h == alias {
					cols[field] = i
					break
				}
			}
			if _, ok := cols[field]; ok {
				break
			}
		}
	}
	return cols
}

// ParseCSV reads an RFC 4180 CSV with a required header row and returns the
// lines it could parse plus a report of the rows it could not, §4.6.
func ParseCSV(r io.Reader) ([]ParsedLine, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading CSV header: %w", err)
	}
	cols := resolveColumns(header)

	if _, ok := cols["document_number"]; !ok {
		return nil, nil, fmt.Errorf("no document-number column could be resolved")
	}
	if _, ok := cols["document_date"]; !ok {
		return nil, nil, fmt.Errorf("no date column could be resolved")
	}
	if _, ok := cols["amount"]; !ok {
		return nil, nil, fmt.Errorf("no amount column could be resolved")
	}

	var lines []ParsedLine
	var errs []RowError
	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowIdx++
		if err != nil {
			errs = append(errs, RowError{Row: rowIdx, Reason: err.Error()})
			continue
		}

		line, parseErr := parseRow(record, cols)
		if parseErr != nil {
			errs = append(errs, RowError{Row: rowIdx, Reason: parseErr.Error()})
			continue
		}
		lines = append(lines, line)
	}
	return lines, errs, nil
}

func parseRow(record []string, cols map[string]int) (ParsedLine, error) {
	get := func(field string) string {
		i, ok := cols[field]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	docNumber := get("document_number")
	if docNumber == "" {
		return ParsedLine{}, fmt.Errorf("missing document number")
	}

	rawDate := get("document_date")
	date, err := parseDate(rawDate)
	if err != nil {
		return ParsedLine{}, fmt.Errorf("unparseable date %q: %w", rawDate, err)
	}

	rawAmount := get("amount")
	amountCents, err := parseAmountCents(rawAmount)
	if err != nil {
		return ParsedLine{}, fmt.Errorf("unparseable amount %q: %w", rawAmount, err)
	}

	currency := strings.ToUpper(get("currency"))
	if currency == "" {
		currency = "USD"
	}
	docType := strings.ToUpper(get("document_type"))
	if docType == "" {
		docType = "INV"
	}

	return ParsedLine{
		DocumentNumber: docNumber,
		DocumentDate:   date,
		AmountCents:    amountCents,
		Currency:       currency,
		DocumentType:   docType,
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no recognized date layout")
}

// parseAmountCents accepts plain decimals and currency-symbol/thousands
// formatted amounts, converting to a fixed-point cent value.
func parseAmountCents(raw string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ':
			return -1
		}
		return r
	}, raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f * 100)), nil
}

// normalizeDocumentNumber strips whitespace, hyphens, and punctuation and
// case-folds, per §4.6 Pass C.
func normalizeDocumentNumber(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// lineEntity converts a parsed row into a persistable domain.SOALine,
// caller fills in ID/CaseID/Status/CreatedAt.
func lineEntity(p ParsedLine) domain.SOALine {
	return domain.SOALine{
		DocumentNumber: p.DocumentNumber,
		DocumentDate:   p.DocumentDate,
		Amount:         p.AmountCents,
		Currency:       p.Currency,
		DocumentType:   p.DocumentType,
	}
}
