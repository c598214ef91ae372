package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigProvidesSLAWindowsForEveryCaseType(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5*24*time.Hour, cfg.SLAWindows.Onboarding)
	assert.Equal(t, 3*24*time.Hour, cfg.SLAWindows.Invoice)
	assert.Equal(t, 2*24*time.Hour, cfg.SLAWindows.Payment)
	assert.Equal(t, 7*24*time.Hour, cfg.SLAWindows.SOA)
	assert.Equal(t, 5*24*time.Hour, cfg.SLAWindows.Other)
}

func TestDefaultConfigSOAToleranceAndPort(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 7, cfg.DateToleranceDays)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.SLATickerInterval)
}
