package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/explorer"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps dependency names to their status.
type HealthResponse map[string]struct {
	Status string `json:"status" enum:"ok,error"`
}

type sessionPath struct {
	Session string `path:"session"`
}

type attractionPath struct {
	ID string `path:"id"`
}

type clearQuery struct {
	sessionPath
	Source string `query:"source" enum:"list,map,api"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Attraction Map API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Filter attractions and keep a map and list view in sync.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/categories
	getCategories, _ := r.NewOperationContext(http.MethodGet, "/api/categories")
	getCategories.SetSummary("List categories")
	getCategories.SetDescription("Returns every category with its marker color.")
	getCategories.AddRespStructure([]CategoryResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCategories)

	// GET /api/attractions
	listAttractions, _ := r.NewOperationContext(http.MethodGet, "/api/attractions")
	listAttractions.SetSummary("List attractions")
	listAttractions.SetDescription("Filters the dataset. Thresholds are inclusive; out-of-range values are clamped.")
	listAttractions.AddReqStructure(AttractionsQuery{})
	listAttractions.AddRespStructure(AttractionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listAttractions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(listAttractions)

	// GET /api/attractions/{id}
	getAttraction, _ := r.NewOperationContext(http.MethodGet, "/api/attractions/{id}")
	getAttraction.SetSummary("Get attraction")
	getAttraction.AddReqStructure(attractionPath{})
	getAttraction.AddRespStructure(attractions.Attraction{}, openapi.WithHTTPStatus(http.StatusOK))
	getAttraction.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getAttraction)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Open session")
	createSession.SetDescription("Opens a browsing session and starts loading its map.")
	createSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{session}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{session}")
	getSession.SetSummary("Get session frame")
	getSession.AddReqStructure(sessionPath{})
	getSession.AddRespStructure(explorer.Frame{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// DELETE /api/sessions/{session}
	deleteSession, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{session}")
	deleteSession.SetSummary("Close session")
	deleteSession.SetDescription("Disposes the map and ends the session's streams.")
	deleteSession.AddReqStructure(sessionPath{})
	deleteSession.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSession)

	// PUT /api/sessions/{session}/criteria
	putCriteria, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{session}/criteria")
	putCriteria.SetSummary("Set filter criteria")
	putCriteria.SetDescription("Body is {categories, minRating, maxPrice}; a null maxPrice is unrestricted.")
	putCriteria.AddReqStructure(struct {
		sessionPath
		Categories []string `json:"categories"`
		MinRating  float64  `json:"minRating"`
		MaxPrice   *float64 `json:"maxPrice"`
	}{})
	putCriteria.AddRespStructure(explorer.Frame{}, openapi.WithHTTPStatus(http.StatusOK))
	putCriteria.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putCriteria.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(putCriteria)

	// PUT /api/sessions/{session}/mode
	putMode, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{session}/mode")
	putMode.SetSummary("Set view mode")
	putMode.AddReqStructure(struct {
		sessionPath
		ModeRequest
	}{})
	putMode.AddRespStructure(explorer.Frame{}, openapi.WithHTTPStatus(http.StatusOK))
	putMode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(putMode)

	// PUT /api/sessions/{session}/selection
	putSelection, _ := r.NewOperationContext(http.MethodPut, "/api/sessions/{session}/selection")
	putSelection.SetSummary("Select attraction")
	putSelection.SetDescription("Selection is independent of filtering: an attraction outside the filtered result keeps its detail panel.")
	putSelection.AddReqStructure(struct {
		sessionPath
		SelectRequest
	}{})
	putSelection.AddRespStructure(explorer.Frame{}, openapi.WithHTTPStatus(http.StatusOK))
	putSelection.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putSelection.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(putSelection)

	// DELETE /api/sessions/{session}/selection
	clearSelection, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{session}/selection")
	clearSelection.SetSummary("Clear selection")
	clearSelection.AddReqStructure(clearQuery{})
	clearSelection.AddRespStructure(explorer.Frame{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(clearSelection)

	// POST /api/sessions/{session}/map/retry
	retryMap, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{session}/map/retry")
	retryMap.SetSummary("Retry map load")
	retryMap.AddReqStructure(sessionPath{})
	retryMap.AddRespStructure(explorer.Frame{}, openapi.WithHTTPStatus(http.StatusAccepted))
	_ = r.AddOperation(retryMap)

	// GET /api/sessions/{session}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{session}/events")
	getEvents.SetSummary("SSE frame stream")
	getEvents.SetDescription("Server-Sent Events: a snapshot frame, then every frame and draw command.")
	getEvents.AddReqStructure(sessionPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/sessions/{session}/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{session}/live")
	getLive.SetSummary("Live map channel")
	getLive.SetDescription("WebSocket: scene and draw commands out, marker clicks and dismiss in.")
	getLive.AddReqStructure(sessionPath{})
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("application/json"))
	_ = r.AddOperation(getLive)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
