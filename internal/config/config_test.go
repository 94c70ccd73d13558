package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRAINING_FEED_SECRET", "feed-secret")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "Training Manager", cfg.AppName)
	require.Equal(t, ":5000", cfg.HTTPAddress())
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, "local", cfg.StorageDriver)
	require.Equal(t, int64(10*1024*1024), cfg.MaxUploadBytes)
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, time.Minute, cfg.StatsCacheTTL)
	require.Equal(t, "UTC", cfg.Location.String())
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRAINING_FEED_SECRET", "feed-secret")
	t.Setenv("TRAINING_APP_PORT", ":9090")
	t.Setenv("TRAINING_DATABASE_DRIVER", "SQLite")
	t.Setenv("TRAINING_STORAGE_MAX_SIZE_MB", "2")
	t.Setenv("TRAINING_APP_TIMEZONE", "Europe/London")
	t.Setenv("TRAINING_SESSION_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, int64(2*1024*1024), cfg.MaxUploadBytes)
	require.Equal(t, "Europe/London", cfg.Location.String())
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Run("missing feed secret", func(t *testing.T) {
		t.Setenv("TRAINING_FEED_SECRET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown database driver", func(t *testing.T) {
		t.Setenv("TRAINING_FEED_SECRET", "feed-secret")
		t.Setenv("TRAINING_DATABASE_DRIVER", "oracle")
		_, err := Load()
		require.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("cloudinary without credentials", func(t *testing.T) {
		t.Setenv("TRAINING_FEED_SECRET", "feed-secret")
		t.Setenv("TRAINING_STORAGE_DRIVER", "cloudinary")
		_, err := Load()
		require.ErrorContains(t, err, "cloudinary credentials")
	})

	t.Run("seed without token", func(t *testing.T) {
		t.Setenv("TRAINING_FEED_SECRET", "feed-secret")
		t.Setenv("TRAINING_SEED_ENABLED", "true")
		_, err := Load()
		require.ErrorContains(t, err, "seed token")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("TRAINING_FEED_SECRET", "feed-secret")
		t.Setenv("TRAINING_STATS_CACHE_TTL", "soon")
		_, err := Load()
		require.ErrorContains(t, err, "stats.cache_ttl")
	})
}
