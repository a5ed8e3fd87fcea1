package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/fleetmaint-backend/api/responses"
	"github.com/angelmondragon/fleetmaint-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/fleetmaint-backend/pkg/errors"
	"github.com/angelmondragon/fleetmaint-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FleetMaint-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency. A nil pinger is skipped.
func HealthReady(cfg *config.Config, db Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FleetMaint-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name string
			p    Pinger
		}{{"database", db}, {"redis", cache}}
		for _, check := range checks {
			if check.p == nil {
				continue
			}
			if err := check.p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable").
					WithDetails(map[string]string{"dependency": check.name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
