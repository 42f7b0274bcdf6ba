package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REFDATA_DRIVER", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.RefDataDriver)
	assert.Equal(t, 5000.0, cfg.VolumetricDivisor)
	assert.Equal(t, 5, cfg.PostalCodeWidth)
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("REFDATA_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://localhost/shipping")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.RefDataDriver)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Config{RefDataDriver: "mysql", SQLitePath: "x.db", VolumetricDivisor: 5000, PostalCodeWidth: 5}
	require.Error(t, cfg.Validate())

	cfg = Config{RefDataDriver: DriverSQLite, SQLitePath: "x.db", VolumetricDivisor: 0, PostalCodeWidth: 5}
	require.Error(t, cfg.Validate())
}
