package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/labledger/labledger-backend/api/responses"
	"github.com/labledger/labledger-backend/pkg/config"
	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/labledger/labledger-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Labledger-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency concurrently. A nil pinger
// is reported as disabled rather than failing the probe.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP Pinger, redisP Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Labledger-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{"database": "disabled", "redis": "disabled"}
		g, gctx := errgroup.WithContext(ctx)
		probe := func(name string, p Pinger) {
			if p == nil {
				return
			}
			checks[name] = "pending"
			g.Go(func() error {
				if err := p.Ping(gctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
						WithDetails(map[string]any{"dependency": name})
				}
				return nil
			})
		}
		probe("database", dbP)
		probe("redis", redisP)

		if err := g.Wait(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		for name, state := range checks {
			if state == "pending" {
				checks[name] = "ok"
			}
		}
		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
