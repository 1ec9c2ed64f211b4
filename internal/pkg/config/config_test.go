package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsInDev(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "client/hades.dll", cfg.ClientBinaryKey)
	assert.Equal(t, int64(1000), cfg.StripePriceCents)
	assert.Equal(t, "eur", cfg.StripeCurrency)
	assert.Equal(t, "localhost:4000", cfg.ListenAddr())
	assert.False(t, cfg.StorageConfigured())
}

func TestLoadRequiresSecretsOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "pw")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PASSWORD", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "3306", DBName: "hades"}
	assert.Equal(t, "u:p@tcp(db:3306)/hades?charset=utf8mb4&parseTime=True&loc=UTC", cfg.DatabaseDSN())
	assert.Equal(t, "mysql://u:p@tcp(db:3306)/hades?multiStatements=true", cfg.MigrationURL())
}
