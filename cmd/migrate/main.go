package main

import (
	"flag"
	"log/slog"
	"os"

	"MenuAPI/internal/config"
	"MenuAPI/internal/database"
	"MenuAPI/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	path := flag.String("path", cfg.DatabasePath, "path to the database file")
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	flag.Parse()

	if *down > 0 {
		if err := database.Rollback(*path, *down); err != nil {
			logging.WithError(err).Error("Rollback failed", "path", *path)
			os.Exit(1)
		}
		logging.Logger.Info("Database rollback complete", "path", *path, "steps", *down)
		return
	}

	if err := database.Migrate(*path); err != nil {
		logging.WithError(err).Error("Migration failed", "path", *path)
		os.Exit(1)
	}
	logging.Logger.Info("Database migration complete", "path", *path)
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
