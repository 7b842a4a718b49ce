package server

import (
	"errors"
	"net/http"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/explorer"
	"github.com/playperu/attractionmap/internal/selection"
)

type SessionResponse struct {
	ID    string         `json:"id"`
	Frame explorer.Frame `json:"frame"`
}

type ModeRequest struct {
	Mode explorer.Mode `json:"mode" enum:"map,split"`
}

type SelectRequest struct {
	ID string `json:"id"`
	// Source defaults to "list".
	Source selection.Source `json:"source,omitempty" enum:"list,map,api"`
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, explorer.ErrUnknownAttraction):
		writeError(w, http.StatusNotFound, "attraction not found")
	case errors.Is(err, explorer.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, explorer.ErrClosed):
		writeError(w, http.StatusGone, "session closed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func handleCreateSession(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessions.Create()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not open session")
			return
		}
		writeJSON(w, http.StatusCreated, SessionResponse{ID: sess.ID(), Frame: sess.Snapshot()})
	}
}

func handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, sessionFrom(r).Snapshot())
	}
}

func handleDeleteSession(sessions *Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Delete(sessionFrom(r).ID()); err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleSetCriteria() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c attractions.Criteria
		if err := readJSON(r, &c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		frame, err := sessionFrom(r).SetCriteria(c)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, frame)
	}
}

func handleSetMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ModeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		frame, err := sessionFrom(r).SetMode(req.Mode)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, frame)
	}
}

func parseSource(s selection.Source) (selection.Source, bool) {
	switch s {
	case "":
		return selection.SourceList, true
	case selection.SourceList, selection.SourceMap, selection.SourceAPI:
		return s, true
	}
	return "", false
}

func handleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectRequest
		if err := readJSON(r, &req); err != nil || req.ID == "" {
			writeError(w, http.StatusBadRequest, "id is required")
			return
		}
		src, ok := parseSource(req.Source)
		if !ok {
			writeError(w, http.StatusBadRequest, "source must be list, map or api")
			return
		}

		sess := sessionFrom(r)
		if err := sess.Select(req.ID, src); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleClearSelection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, ok := parseSource(selection.Source(r.URL.Query().Get("source")))
		if !ok {
			writeError(w, http.StatusBadRequest, "source must be list, map or api")
			return
		}

		sess := sessionFrom(r)
		if err := sess.Clear(src); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.Snapshot())
	}
}

func handleRetryMap() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if err := sess.RetryMap(); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, sess.Snapshot())
	}
}
