package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/attractionmap/internal/metrics"
	"github.com/playperu/attractionmap/internal/store"
)

type Deps struct {
	Store    *store.AttractionStore
	Sessions *Sessions
	Broker   *Broker
	SPADir   string
}

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Attraction Map API", "/openapi.json", "/docs"))
	r.Handle("/metrics", metrics.Handler())

	r.Get("/api/categories", handleCategories())
	r.Get("/api/attractions", handleListAttractions(deps.Store))
	r.Get("/api/attractions/{id}", handleGetAttraction(deps.Store))

	r.Post("/api/sessions", handleCreateSession(deps.Sessions))
	r.Route("/api/sessions/{session}", func(r chi.Router) {
		r.Use(sessionMiddleware(deps.Sessions))
		r.Get("/", handleGetSession())
		r.Delete("/", handleDeleteSession(deps.Sessions))
		r.Put("/criteria", handleSetCriteria())
		r.Put("/mode", handleSetMode())
		r.Put("/selection", handleSelect())
		r.Delete("/selection", handleClearSelection())
		r.Post("/map/retry", handleRetryMap())
		r.Get("/events", handleEvents(deps.Broker))
		r.Get("/live", handleLive(logger, deps.Sessions, deps.Broker))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
