package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUBMISSIONS_SIGNED_URL_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.Equal(t, 30*time.Minute, cfg.Submissions.SignedURLTTL)
	require.Equal(t, int64(10*1024*1024), cfg.Submissions.MaxFileSizeBytes)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.NotEmpty(t, cfg.Submissions.AllowedMIMEs)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Invalid"}
	require.Equal(t, time.UTC, cfg.Location())

	var nilCfg *Config
	require.Equal(t, time.UTC, nilCfg.Location())
}
