package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/famconomy")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/famconomy")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENABLE_CONSOLIDATION_JOB", "")
	t.Setenv("CONSOLIDATION_JOB_SPEC", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "info", cfg.LogLevel)
	require.False(t, cfg.EnableConsolidation)
	require.Equal(t, "@hourly", cfg.ConsolidationJobSpec)
}

func TestLoadEnablesConsolidation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/famconomy")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ENABLE_CONSOLIDATION_JOB", "true")
	t.Setenv("CONSOLIDATION_JOB_SPEC", "@every 30m")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.EnableConsolidation)
	require.Equal(t, "@every 30m", cfg.ConsolidationJobSpec)
}
