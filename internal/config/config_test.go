package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "9237", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 24*time.Hour, cfg.LastUsedCacheTTL)
	assert.False(t, cfg.SecureCookies)
	assert.True(t, cfg.IsDevelopment())
	assert.Empty(t, cfg.AllowedOrigins())
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("SESSION_DURATION", "2h")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("CORS_ORIGINS", "https://menu.example.com, https://admin.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.True(t, cfg.SecureCookies)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://menu.example.com", "https://admin.example.com"}, cfg.AllowedOrigins())
}

func TestLoad_ProviderPairs(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"google id without secret", map[string]string{"GOOGLE_CLIENT_ID": "id"}, "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together"},
		{"github secret without id", map[string]string{"GITHUB_CLIENT_SECRET": "secret"}, "GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together"},
		{"both google values", map[string]string{"GOOGLE_CLIENT_ID": "id", "GOOGLE_CLIENT_SECRET": "secret"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	t.Setenv("SESSION_DURATION", "-1h")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_DURATION")
}
