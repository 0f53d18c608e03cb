package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when nothing is set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "retailrecon-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "retailrecon", cfg.Database.DBName)
		assert.Equal(t, float64(100), cfg.Reconcile.RatioThresholdPct)
		assert.Equal(t, 2, cfg.Reconcile.CurrencyPrecision)
		assert.Equal(t, "coupon_code", cfg.Reconcile.DiscountTieBreak)
		assert.Equal(t, 0, cfg.Reconcile.Workers)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		t.Setenv("RETAIL_APP_PORT", "9090")
		t.Setenv("RETAIL_RECONCILE_RATIO_THRESHOLD_PCT", "150")
		t.Setenv("RETAIL_RECONCILE_DISCOUNT_TIE_BREAK", "highest_rate")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, float64(150), cfg.Reconcile.RatioThresholdPct)
		assert.Equal(t, "highest_rate", cfg.Reconcile.DiscountTieBreak)
	})

	t.Run("zero precision is honored", func(t *testing.T) {
		t.Setenv("RETAIL_RECONCILE_CURRENCY_PRECISION", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Reconcile.CurrencyPrecision)
	})

	t.Run("rejects unknown tie-break policy", func(t *testing.T) {
		t.Setenv("RETAIL_RECONCILE_DISCOUNT_TIE_BREAK", "random")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production requires password and ssl", func(t *testing.T) {
		t.Setenv("RETAIL_APP_ENV", "production")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("idle conns cannot exceed open conns", func(t *testing.T) {
		cfg := base()
		cfg.Database.MaxIdleConns = 100
		assert.Error(t, cfg.validate())
	})

	t.Run("precision is bounded", func(t *testing.T) {
		cfg := base()
		cfg.Reconcile.CurrencyPrecision = 9
		assert.Error(t, cfg.validate())
	})

	t.Run("negative workers rejected", func(t *testing.T) {
		cfg := base()
		cfg.Reconcile.Workers = -1
		assert.Error(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "retail",
		Password: "p@ss/word",
		DBName:   "retailrecon",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "password must be escaped")
}
