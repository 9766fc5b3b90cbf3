package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/cloudbox/logstats/publish"
	"github.com/cloudbox/logstats/stats"
)

// manualPublishRate caps how often the /publish endpoint can trigger an
// out-of-band pass — an administrative escape hatch, not the primary
// driver, so it is throttled hard.
const manualPublishRate = 1.0 / 10 // one request every 10 seconds

func getRouter(registry *stats.Registry, pub *publish.Publisher) chi.Router {
	mux := chi.NewRouter()

	mux.Use(middleware.Recoverer)

	mux.Use(hlog.NewHandler(log.Logger))
	mux.Use(hlog.RequestIDHandler("id", "request-id"))
	mux.Use(hlog.URLHandler("url"))
	mux.Use(hlog.MethodHandler("method"))
	mux.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Int("status", status).
			Dur("duration", duration).
			Msg("Request Processed")
	}))

	mux.Get("/healthz", healthHandler)
	mux.Get("/stats", statsHandler(registry))

	limiter := rate.NewLimiter(rate.Limit(manualPublishRate), 1)
	mux.Post("/publish", publishHandler(pub, limiter))

	return mux
}

func healthHandler(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	if ready.Load() {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte(`{"status":"ready"}`))
	} else {
		rw.WriteHeader(http.StatusServiceUnavailable)
		_, _ = rw.Write([]byte(`{"status":"initializing"}`))
	}
}

type counterSnapshot struct {
	Source   string `json:"source"`
	ID       string `json:"id"`
	Instance string `json:"instance"`
	Counter  string `json:"counter"`
	Value    int64  `json:"value"`
}

// statsHandler exercises Registry.ForeachCounter directly, under the
// registry lock, building the JSON snapshot while holding it — the
// cheapest consumer of the iteration hook, next to the Publisher.
func statsHandler(registry *stats.Registry) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		var snapshot []counterSnapshot

		registry.Lock()
		registry.ForeachCounter(func(cl *stats.Cluster, kind stats.CounterKind, cell *stats.CounterCell) {
			key := cl.Key()
			snapshot = append(snapshot, counterSnapshot{
				Source:   stats.SourceName(key.Source),
				ID:       key.ID,
				Instance: key.Instance,
				Counter:  stats.TagName(kind),
				Value:    cell.Load(),
			})
		})
		registry.Unlock()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(snapshot)
	}
}

func publishHandler(pub *publish.Publisher, limiter *rate.Limiter) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			rw.WriteHeader(http.StatusTooManyRequests)
			return
		}

		if err := pub.PublishAndPrune(); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Manual Publish Failed")
			if errors.Is(err, stats.ErrShutdown) {
				rw.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			rw.WriteHeader(http.StatusConflict)
			return
		}

		rw.WriteHeader(http.StatusAccepted)
	}
}
