package config

import (
	"testing"

	"codeberg.org/sharedcanvas/server/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{"PORT", "ENVIRONMENT", "STORE_BACKEND", "DATA_DIR", "REDIS_URL", "DATABASE_URL", "REDIS_KEY_PREFIX", "ALLOWED_ORIGINS", "OPS_TOKEN", "CANVAS_API_ENDPOINT"} {
		t.Setenv(key, "")
	}
}

func TestFromEnvironment_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnvironment()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnvironment, cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, storage.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, DefaultDataDir, cfg.Storage.DataDir)
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Storage.RedisKeyPrefix)
	assert.Empty(t, cfg.OpsToken)
}

func TestFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "redis backend",
			env:  map[string]string{"STORE_BACKEND": "Redis", "REDIS_URL": "redis://localhost:6379/0", "REDIS_KEY_PREFIX": "test:"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, storage.BackendRedis, cfg.Storage.Backend)
				assert.Equal(t, "test:", cfg.Storage.RedisKeyPrefix)
			},
		},
		{
			name: "ops token",
			env:  map[string]string{"OPS_TOKEN": " s3cret "},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "s3cret", cfg.OpsToken)
			},
		},
		{
			name:    "redis without url",
			env:     map[string]string{"STORE_BACKEND": "redis"},
			wantErr: true,
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"STORE_BACKEND": "postgres"},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"STORE_BACKEND": "sqlite"},
			wantErr: true,
		},
		{
			name: "production without origins",
			env:  map[string]string{"ENVIRONMENT": "production"},
			check: func(t *testing.T, cfg *Config) {
				assert.Error(t, cfg.ValidateServer())
			},
		},
		{
			name: "production with origins",
			env:  map[string]string{"ENVIRONMENT": "production", "ALLOWED_ORIGINS": " https://a.example ,, https://b.example", "PORT": "9000"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
				assert.Equal(t, "9000", cfg.Port)
				assert.NoError(t, cfg.ValidateServer())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := FromEnvironment()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestClientFromEnvironment(t *testing.T) {
	clearEnv(t)

	cfg, err := ClientFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIEndpoint, cfg.Endpoint)
	assert.Empty(t, cfg.OpsToken)

	t.Setenv("CANVAS_API_ENDPOINT", "https://canvas.example")
	t.Setenv("OPS_TOKEN", "s3cret")

	cfg, err = ClientFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "https://canvas.example", cfg.Endpoint)
	assert.Equal(t, "s3cret", cfg.OpsToken)

	t.Setenv("CANVAS_API_ENDPOINT", "localhost:8080")
	_, err = ClientFromEnvironment()
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	f, err := ParseBackupsFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultBackupLimit, f.Limit)
	assert.Empty(t, f.Endpoint)

	f, err = ParseBackupsFlags([]string{"-limit", "3", "-endpoint", "http://127.0.0.1:9000"})
	require.NoError(t, err)
	assert.Equal(t, 3, f.Limit)
	assert.Equal(t, "http://127.0.0.1:9000", f.Endpoint)

	_, err = ParseBackupsFlags([]string{"-limit", "0"})
	assert.Error(t, err)

	_, err = ParseBackupsFlags([]string{"-limit", "101"})
	assert.Error(t, err)

	_, err = ParseRestoreFlags(nil)
	assert.Error(t, err)

	f, err = ParseRestoreFlags([]string{"-index", "0"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Index)

	f, err = ParseResetFlags([]string{"-yes"})
	require.NoError(t, err)
	assert.True(t, f.Yes)
}

func TestFlagsApply(t *testing.T) {
	clearEnv(t)

	cfg, err := ClientFromEnvironment()
	require.NoError(t, err)

	require.NoError(t, Flags{}.Apply(cfg))
	assert.Equal(t, DefaultAPIEndpoint, cfg.Endpoint)

	require.NoError(t, Flags{Endpoint: "http://10.0.0.5:8080"}.Apply(cfg))
	assert.Equal(t, "http://10.0.0.5:8080", cfg.Endpoint)

	assert.Error(t, Flags{Endpoint: "ftp://10.0.0.5"}.Apply(cfg))
}
