package config

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/bigupload/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:3000", c.ServerURL)
	assert.Equal(t, int64(common.DefaultChunkSize), c.ChunkSize)
	assert.Equal(t, 4, c.Parallelism)
	assert.Equal(t, 3, c.Retries)
	assert.Equal(t, time.Minute, c.RequestTimeout)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Empty(t, c.FilePath)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_url":  "http://json:1",
		"parallelism": 8,
		"retries":     1,
	})

	cfg := LoadConfig([]string{"-c", path, "-n", "2", "big.iso"})
	require.NotNil(t, cfg)

	assert.Equal(t, "http://json:1", cfg.ServerURL)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.Equal(t, 1, cfg.Retries)
	assert.Equal(t, "big.iso", cfg.FilePath)
}
