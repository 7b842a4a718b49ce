package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// Checker verifies that a dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// Redis checks a go-redis client with PING.
type Redis struct{ Client *redis.Client }

func (r Redis) Check(ctx context.Context) error { return r.Client.Ping(ctx).Err() }

type Handler struct {
	checks  map[string]Checker
	timeout time.Duration
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, timeout: 3 * time.Second, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type result struct {
	Status string `json:"status"`
}

// check runs every checker concurrently under one deadline.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]result, len(h.checks))
		status  = http.StatusOK
	)
	for name, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				h.logger.Error("health check failed", "name", name, "error", err)
				results[name] = result{Status: "error"}
				status = http.StatusServiceUnavailable
				return
			}
			results[name] = result{Status: "ok"}
		}()
	}
	wg.Wait()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
