package controllers

import (
	"net/http"

	"github.com/skybazaar/skybazaar-backend/api/responses"
	"github.com/skybazaar/skybazaar-backend/pkg/config"
	"github.com/skybazaar/skybazaar-backend/pkg/db"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
	"github.com/skybazaar/skybazaar-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SkyBazaar-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing dependency answers a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SkyBazaar-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP == nil {
			checks["postgres"] = "not configured"
			healthy = false
		} else if err := dbP.Ping(r.Context()); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}

		if redisP == nil {
			checks["redis"] = "not configured"
			healthy = false
		} else if err := redisP.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
