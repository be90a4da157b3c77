package config

import (
	"testing"
	"time"

	"github.com/emrgen/folio/internal/cache"
	"github.com/emrgen/folio/internal/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("SLOT_COMPRESSION", "")

	cfg := LoadConfig()
	assert.Equal(t, "4001", cfg.HTTPPort)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, compress.NameNop, cfg.SlotCompression)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("MINIO_SECURE", "true")
	t.Setenv("SESSION_IDLE", "bogus")

	cfg := LoadConfig()
	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.True(t, cfg.MinioSecure)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
}

func TestConfig_OpenSlot(t *testing.T) {
	cfg := &Config{}
	slot, err := cfg.OpenSlot()
	require.NoError(t, err)
	assert.IsType(t, &cache.MemorySlot{}, slot)

	cfg.SlotDir = t.TempDir()
	slot, err = cfg.OpenSlot()
	require.NoError(t, err)
	assert.IsType(t, &cache.FileSlot{}, slot)
	_ = slot.Close()
}

func TestConfig_Codec(t *testing.T) {
	codec, err := (&Config{SlotCompression: "lz4"}).Codec()
	require.NoError(t, err)
	assert.Equal(t, "lz4", codec.Compression())

	_, err = (&Config{SlotCompression: "zip"}).Codec()
	assert.Error(t, err)
}
