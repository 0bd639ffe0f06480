package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "*/10 * * * *", cfg.RefreshSchedule)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Len(t, cfg.Stations, 4)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OBMON_HTTP_ADDR", ":9090")
	t.Setenv("OBMON_CACHE_TTL", "2m")
	t.Setenv("OBMON_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Minute, cfg.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_ConfigFileStations(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log_format: text
stations:
  - id: tomsk
    name: Томск
    url: https://allrivers.info/gauge/tom-tomsk
    critical_level: 700
    normal_level: 250
    coords:
      lat: 56.49
      lon: 84.95
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.LogFormat)
	require.Len(t, cfg.Stations, 1)
	assert.Equal(t, "tomsk", cfg.Stations[0].ID)
	assert.Equal(t, 700, cfg.Stations[0].CriticalLevel)
	assert.InDelta(t, 56.49, cfg.Stations[0].Coords.Lat, 0.001)

	registry, err := cfg.Registry()
	require.NoError(t, err)
	assert.Equal(t, 1, registry.Len())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "OBMON_CACHE_TTL", "soon"},
		{"zero ttl", "OBMON_CACHE_TTL", "0s"},
		{"negative timeout", "OBMON_FETCH_TIMEOUT", "-1s"},
		{"bad schedule", "OBMON_REFRESH_SCHEDULE", "every now and then"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestLoad_DuplicateStationIDs(t *testing.T) {
	dir := t.TempDir()
	yaml := `
stations:
  - {id: a, name: A, url: https://example.com/a}
  - {id: a, name: A2, url: https://example.com/b}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "invalid stations")
}
