package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adaptsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\nlog:\n  level: debug\nreview:\n  seed: 7\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Addr, "unset fields keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint64(7), cfg.Review.Seed)
	assert.Equal(t, 8, cfg.Review.MaxAnchors)
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "server: [", "parsing config file"},
		{"bad port", "server:\n  port: 70000\n", "port 70000 out of range"},
		{"bad level", "log:\n  level: loud\n", "log level"},
		{"missing registry dir", "registryDir: /definitely/not/here\n", "registry dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadFile(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	registry := t.TempDir()
	env := map[string]string{
		"ADAPTSIM_ADDR":         "0.0.0.0",
		"ADAPTSIM_PORT":         "8181",
		"ADAPTSIM_LOG_LEVEL":    "warn",
		"ADAPTSIM_LOG_DEV":      "true",
		"ADAPTSIM_REGISTRY_DIR": registry,
		"ADAPTSIM_REVIEW_SEED":  "42",
	}
	cfg := Default()
	require.NoError(t, cfg.applyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "0.0.0.0:8181", cfg.Server.Address())
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, registry, cfg.RegistryDir)
	assert.Equal(t, uint64(42), cfg.Review.Seed)
}

func TestApplyEnvRejectsMalformedValues(t *testing.T) {
	for _, key := range []string{"ADAPTSIM_PORT", "ADAPTSIM_LOG_DEV", "ADAPTSIM_REVIEW_SEED"} {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := cfg.applyEnv(func(k string) string {
				if k == key {
					return "not-a-value"
				}
				return ""
			})
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestApplyEnvFromProcess(t *testing.T) {
	t.Setenv("ADAPTSIM_PORT", "9999")
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 9999, cfg.Server.Port)
}
