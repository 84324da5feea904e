package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv       string `env:"APP_ENV" default:"development"`
	Port         string `env:"PORT" default:"9237"`
	DatabasePath string `env:"DATABASE_PATH" default:"./internal/databases/menus.db"`
	LogLevel     string `env:"LOG_LEVEL" default:"info"`
	LogFormat    string `env:"LOG_FORMAT" default:"text"`

	// OAuth Providers
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`

	// Auth Configuration
	AuthCallbackBaseURL string        `env:"AUTH_CALLBACK_BASE_URL" default:"http://localhost:9237"`
	AuthSuccessRedirect string        `env:"AUTH_SUCCESS_REDIRECT"`
	SessionDuration     time.Duration `env:"SESSION_DURATION" default:"168h"` // 7 days
	SecureCookies       bool          `env:"SECURE_COOKIES" default:"false"`

	CORSOrigins string `env:"CORS_ORIGINS"`

	// Empty disables the last-used cache.
	RedisURL         string        `env:"REDIS_URL"`
	LastUsedCacheTTL time.Duration `env:"LAST_USED_CACHE_TTL" default:"24h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}

	pairs := []struct {
		idName, secretName string
		id, secret         string
	}{
		{"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", cfg.GoogleClientID, cfg.GoogleClientSecret},
		{"GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET", cfg.GitHubClientID, cfg.GitHubClientSecret},
	}
	for _, p := range pairs {
		if (p.id == "") != (p.secret == "") {
			return fmt.Errorf("%s and %s must be set together", p.idName, p.secretName)
		}
	}

	if cfg.SessionDuration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if cfg.LastUsedCacheTTL <= 0 {
		return errors.New("LAST_USED_CACHE_TTL must be positive")
	}

	return nil
}

// IsDevelopment reports whether the service runs with development defaults
// (permissive CORS, gin debug mode).
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "debug"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

//This project is the weekly menu planning backend API for the OpenSourceDUTH team. Plan, publish and share the canteen's weekly menus.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
