// Package handlers implements the public HTTP surface: preview,
// submission, polling, artifact delivery, owner cleanup, and health.
package handlers

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"seiza/internal/admission"
	"seiza/internal/dispatch"
	"seiza/internal/metrics"
	"seiza/internal/pkg/errors"
	"seiza/internal/pkg/logger"
	"seiza/internal/repositories"
	"seiza/internal/storage"
	"seiza/internal/sweep"
)

type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Admission  *admission.Controller
	Sweeper    *sweep.Sweeper
	Store      repositories.JobStore
	Storage    storage.Provider
	Log        *logger.Logger

	// Pool and RDB are probed by the deep health check. Nil with the
	// memory backends.
	Pool *pgxpool.Pool
	RDB  *redis.Client
}

type Handler struct {
	dispatcher *dispatch.Dispatcher
	admission  *admission.Controller
	sweeper    *sweep.Sweeper
	store      repositories.JobStore
	storage    storage.Provider
	log        *logger.Logger
	pool       *pgxpool.Pool
	rdb        *redis.Client
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	return &Handler{
		dispatcher: d.Dispatcher,
		admission:  d.Admission,
		sweeper:    d.Sweeper,
		store:      d.Store,
		storage:    d.Storage,
		log:        log.WithComponent("api"),
		pool:       d.Pool,
		rdb:        d.RDB,
	}
}

// admit charges one request against the caller's quota for dim.
func (h *Handler) admit(r *http.Request, dim admission.Dimension) error {
	identity := logger.IdentityFromContext(r.Context())
	decision, err := h.admission.Admit(r.Context(), identity, dim)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		metrics.AdmissionDenials.WithLabelValues(string(dim)).Inc()
		return errors.AdmissionDenied(string(dim), decision.RetryAfter)
	}
	return nil
}
