package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(newTestViper())

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "huggingface", cfg.Inference.Provider)
	assert.Equal(t, "none", cfg.Storage.Backend)
	assert.Equal(t, "kodbank.events", cfg.MQ.Channel)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/kodbank.db")
	t.Setenv("JWT_SECRET", "  s3cret  ")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := load(newTestViper())

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/kodbank.db", cfg.Database.SQLitePath)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.Storage.Minio.UseSSL)
}
