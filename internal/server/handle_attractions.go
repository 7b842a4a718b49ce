package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/spatial"
	"github.com/playperu/attractionmap/internal/store"
)

type CategoryResponse struct {
	Name  attractions.Category `json:"name"`
	Color string               `json:"color"`
}

// AttractionsResponse is a stateless filtered listing.
type AttractionsResponse struct {
	Count    int                      `json:"count"`
	Criteria attractions.Criteria     `json:"criteria"`
	Items    []attractions.Attraction `json:"items"`
}

// AttractionsQuery documents the listing's query parameters.
type AttractionsQuery struct {
	Category  []string `query:"category" description:"Repeatable; empty means every category"`
	MinRating float64  `query:"minRating"`
	MaxPrice  *float64 `query:"maxPrice"`
}

func handleCategories() http.HandlerFunc {
	resp := make([]CategoryResponse, 0, len(attractions.Categories))
	for _, c := range attractions.Categories {
		resp = append(resp, CategoryResponse{Name: c, Color: spatial.ColorFor(c)})
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseCriteria(r *http.Request) (attractions.Criteria, error) {
	q := r.URL.Query()
	var minRating float64
	var maxPrice *float64
	if v := q.Get("minRating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return attractions.Criteria{}, errors.New("minRating must be a number")
		}
		minRating = f
	}
	if v := q.Get("maxPrice"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return attractions.Criteria{}, errors.New("maxPrice must be a number")
		}
		maxPrice = &f
	}
	return attractions.NewCriteria(q["category"], minRating, maxPrice), nil
}

func handleListAttractions(s *store.AttractionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria, err := parseCriteria(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		dataset, err := s.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not load attractions")
			return
		}

		items := attractions.Filter(dataset, criteria)
		writeJSON(w, http.StatusOK, AttractionsResponse{Count: len(items), Criteria: criteria, Items: items})
	}
}

func handleGetAttraction(s *store.AttractionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "attraction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not load attraction")
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
