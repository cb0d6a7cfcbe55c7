package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  server:
    cors: "http://a.test, ,http://b.test"
database:
  url: postgres://file
  pool:
    max_conns: 10
modules:
  registration:
    otp_ttl_minutes: 5
    issue_cooldown_seconds: 30
instrument:
  trace_sample_ratio: 0.5
redis:
  enabled: true
`

func TestViper_Getters(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	require.NoError(t, err)

	// Act & Assert
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.GetArray("app.server.cors"))
	assert.Empty(t, cfg.GetArray("app.maintenance.endpoints"))
	assert.Equal(t, int32(10), cfg.GetInt32("database.pool.max_conns"))
	assert.Equal(t, 5*time.Minute, cfg.GetMinute("modules.registration.otp_ttl_minutes"))
	assert.Equal(t, 30*time.Second, cfg.GetSecond("modules.registration.issue_cooldown_seconds"))
	assert.InDelta(t, 0.5, cfg.GetFloat64("instrument.trace_sample_ratio"), 0.0001)
	assert.True(t, cfg.GetBool("redis.enabled"))
	assert.NoError(t, cfg.Close())
}

func TestViper_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("DATABASE_URL", "postgres://env")
	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	require.NoError(t, err)

	// Act
	got := cfg.GetString("database.url")

	// Assert
	assert.Equal(t, "postgres://env", got)
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	_, err := NewViperFromBytes(" ", []byte(testYAML))
	assert.Error(t, err)
}

func TestNewViper_File(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))

	// Act
	cfg, err := NewViper(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "postgres://file", cfg.GetString("database.url"))
}

func TestNewViper_MissingFile(t *testing.T) {
	_, err := NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
