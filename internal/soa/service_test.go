package soa

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLineDedupeKeyIsStableForIdenticalInputs(t *testing.T) {
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	a := lineDedupeKey("DOC-1", date, 10000, "USD")
	b := lineDedupeKey("DOC-1", date, 10000, "USD")

	assert.Equal(t, a, b)
}

func TestLineDedupeKeyDiffersOnAnyField(t *testing.T) {
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	base := lineDedupeKey("DOC-1", date, 10000, "USD")

	assert.NotEqual(t, base, lineDedupeKey("DOC-2", date, 10000, "USD"))
	assert.NotEqual(t, base, lineDedupeKey("DOC-1", date.AddDate(0, 0, 1), 10000, "USD"))
	assert.NotEqual(t, base, lineDedupeKey("DOC-1", date, 10001, "USD"))
	assert.NotEqual(t, base, lineDedupeKey("DOC-1", date, 10000, "EUR"))
}

func TestNewServiceDefaultsDateTolerance(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, 0)
	assert.Equal(t, 7, svc.dateToleranceDays)

	svc = NewService(nil, nil, nil, nil, 3)
	assert.Equal(t, 3, svc.dateToleranceDays)
}
