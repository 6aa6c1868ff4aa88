package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "0 2 1 * *", cfg.BillingCron)
	require.Equal(t, 10*time.Minute, cfg.BillingLockTTL)
	require.Equal(t, time.UTC, cfg.BillingLocation())
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigBillingTimezone(t *testing.T) {
	t.Setenv("BILLING_TIMEZONE", "Europe/Berlin")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "Europe/Berlin", cfg.BillingLocation().String())
}

func TestLoadConfigRejectsInvalidCron(t *testing.T) {
	t.Setenv("BILLING_CRON", "every month please")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid billing cron")
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("BILLING_TIMEZONE", "Mars/Olympus")

	_, err := LoadConfig()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid billing timezone")
}

func TestBillingLocationNilConfig(t *testing.T) {
	var cfg *Config
	require.Equal(t, time.UTC, cfg.BillingLocation())
}
