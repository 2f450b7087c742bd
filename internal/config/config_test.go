package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "/data/binstash.db", cfg.DBPath)
	assert.Equal(t, "/data/photos", cfg.BlobPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "", cfg.LogFile)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("BLOB_PATH", "/tmp/photos")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "/tmp/photos", cfg.BlobPath)
	assert.Equal(t, "debug", cfg.LogLevel)
}
