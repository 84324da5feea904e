package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MenuAPI/internal/auth"
	"MenuAPI/internal/cache"
	"MenuAPI/internal/common"
	"MenuAPI/internal/config"
	"MenuAPI/internal/database"
	"MenuAPI/internal/logging"
	"MenuAPI/internal/metrics"
	"MenuAPI/internal/ratelimit"
	"MenuAPI/internal/v0/dishes"
	"MenuAPI/internal/v0/menus"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DatabasePath); err != nil {
		logging.WithError(err).Error("Failed to migrate database")
		os.Exit(1)
	}
	sqlDB, gormDB, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logging.WithError(err).Error("Failed to open database")
		os.Exit(1)
	}
	defer sqlDB.Close()

	clock := clockwork.NewRealClock()

	// Optional last-used cache
	var labelCache menus.LabelCache
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logging.WithError(err).Warn("Redis unavailable, last-used labels will not be cached")
		} else {
			defer redisClient.Close()
			labelCache = cache.NewLastUsedCache(redisClient, cfg.LastUsedCacheTTL)
		}
	}

	// Auth components
	authRepo := auth.NewRepository(sqlDB)
	oauthConfig := auth.NewOAuthConfig(
		auth.ProviderConfig{ClientID: cfg.GoogleClientID, ClientSecret: cfg.GoogleClientSecret},
		auth.ProviderConfig{ClientID: cfg.GitHubClientID, ClientSecret: cfg.GitHubClientSecret},
		cfg.AuthCallbackBaseURL,
	)
	stateStore := auth.NewOAuthStateStore(authRepo, clock)
	sessionStore := auth.NewSessionStore(authRepo, clock, cfg.SessionDuration, cfg.SecureCookies)
	tokenStore := auth.NewTokenStore(authRepo, clock)
	usageTracker := auth.NewUsageTracker(authRepo, clock, stateStore, sessionStore)
	usageTracker.Start(ctx)

	authHandler := auth.NewHandler(authRepo, oauthConfig, stateStore, sessionStore, tokenStore, cfg.AuthSuccessRedirect)
	adminHandler := auth.NewAdminHandler(authRepo, tokenStore, sessionStore)
	authMiddleware := auth.NewMiddleware(tokenStore, sessionStore, usageTracker)

	// Menu components
	dishRepo := dishes.NewRepository(gormDB)
	dishHandler := dishes.NewHandler(dishRepo)
	menuRepo := menus.NewRepository(gormDB, clock)
	lastUsed := menus.NewLastUsedService(menuRepo, labelCache)
	menuHandler := menus.NewHandler(menuRepo, dishRepo, lastUsed)
	createLimiter := ratelimit.NewLimiter(ratelimit.MenuCreatePolicy, clock)
	updateLimiter := ratelimit.NewLimiter(ratelimit.MenuUpdatePolicy, clock)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), common.RequestLogger(), metrics.Middleware())
	router.Use(cors.New(corsConfig(cfg)))

	router.GET("/metrics", metrics.Handler())

	// Global routes
	global := router.Group("/api")
	common.RegisterRoutes(global, sqlDB)
	auth.RegisterRoutes(global, authHandler, adminHandler, authMiddleware)
	menus.RegisterPublicRoutes(global, menuHandler)

	// v0 API routes
	v0Group := router.Group("/api/v0")
	{
		dishes.RegisterRoutes(v0Group, dishHandler, authMiddleware)
		menus.RegisterRoutes(v0Group, menuHandler, authMiddleware, createLimiter, updateLimiter)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Logger.Info("Server listening", "addr", srv.Addr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.WithError(err).Error("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.WithError(err).Error("Server shutdown failed")
	}
	usageTracker.Stop()
}

// corsConfig allows any origin in development and the configured list elsewhere.
// Credentials are allowed so the session cookie reaches the API.
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", common.HeaderRequestID},
		ExposeHeaders:    []string{common.HeaderRequestID, ratelimit.HeaderRateLimitLimit, ratelimit.HeaderRateLimitRemaining, ratelimit.HeaderRetryAfter},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		c.AllowOrigins = origins
	} else if cfg.IsDevelopment() {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = []string{cfg.AuthCallbackBaseURL}
	}
	return c
}

/*
This project is the weekly menu planning backend API for the OpenSourceDUTH team. Plan, publish and share the canteen's weekly menus.
API Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
