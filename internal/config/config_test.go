package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STARTING_CASH", "")
	t.Setenv("PRICE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local.db", cfg.DatabaseURL)
	assert.Equal(t, "100000", cfg.StartingCash.String())
	assert.Equal(t, 10*time.Second, cfg.PriceTimeout)
	assert.Equal(t, "America/Los_Angeles", cfg.QuickPics.Timezone)
	assert.Equal(t, 7, cfg.QuickPics.StartHour)
	assert.Equal(t, 6, cfg.QuickPics.Slots)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/papertrade")
	t.Setenv("STARTING_CASH", "2500.50")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TX_TIMEOUT", "750ms")
	t.Setenv("QUICK_PICS_SLOTS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost:5432/papertrade", cfg.DatabaseURL)
	assert.Equal(t, "2500.5", cfg.StartingCash.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 750*time.Millisecond, cfg.TxTimeout)
	assert.Equal(t, 3, cfg.QuickPics.Slots)
}

func TestLoad_InvalidStartingCash(t *testing.T) {
	t.Setenv("STARTING_CASH", "lots")
	_, err := Load()
	assert.Error(t, err)
}
