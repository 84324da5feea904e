package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type StatusResponse struct {
	InternalServerLatency string `json:"internal_server_latency"`
	Uptime                string `json:"uptime"`
	Database              string `json:"database"`
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	Ping() error
}

// Uptime Logic
var startTime time.Time

func uptime() time.Duration {
	return time.Since(startTime)
}

func init() {
	startTime = time.Now()
}

// StatusHandler reports uptime and database reachability.
func StatusHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		dbStatus := "ok"
		if db != nil {
			if err := db.Ping(); err != nil {
				dbStatus = "unreachable"
			}
		}

		data := StatusResponse{
			InternalServerLatency: time.Since(start).String(),
			Uptime:                uptime().Truncate(time.Second).String(),
			Database:              dbStatus,
		}

		status := http.StatusOK
		if dbStatus != "ok" {
			status = http.StatusServiceUnavailable
		}
		Success(c, status, data)
	}
}

func RegisterRoutes(rg *gin.RouterGroup, db Pinger) {
	rg.GET("/status", StatusHandler(db))
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
