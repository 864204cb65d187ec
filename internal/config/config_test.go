package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, "uploads", cfg.UploadDir)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("API_PORT", "9090")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("UPLOAD_DIR", "/var/data/uploads")

	cfg := Load()

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, "/var/data/uploads", cfg.UploadDir)
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")

	cfg := Load()
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}
