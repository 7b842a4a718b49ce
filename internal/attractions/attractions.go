// Package attractions defines the point-of-interest types and the filter
// predicates evaluated over them. It has zero external dependencies.
package attractions

import (
	"errors"
	"fmt"
	"math"
)

type Category string

const (
	CategoryLandmarks     Category = "Landmarks"
	CategoryParks         Category = "Parks & Nature"
	CategoryMuseums       Category = "Museums & Galleries"
	CategoryEntertainment Category = "Entertainment"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryLandmarks,
	CategoryParks,
	CategoryMuseums,
	CategoryEntertainment,
}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

const (
	MaxRating = 5.0
	// PriceFree marks an attraction without an entry fee.
	PriceFree = 0.0
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Attraction is never mutated after it enters a dataset.
type Attraction struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Category   Category   `json:"category"`
	Rating     float64    `json:"rating"`
	Reviews    int        `json:"reviews"`
	Price      float64    `json:"price"`
	Duration   string     `json:"duration"`
	Image      string     `json:"image"`
	Coordinate Coordinate `json:"coordinate"`
}

var ErrInvalidAttraction = errors.New("invalid attraction")

// Validate checks the value ranges a dataset record must satisfy.
func (a Attraction) Validate() error {
	switch {
	case a.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidAttraction)
	case a.Name == "":
		return fmt.Errorf("%w %s: empty name", ErrInvalidAttraction, a.ID)
	case !a.Category.Valid():
		return fmt.Errorf("%w %s: unknown category %q", ErrInvalidAttraction, a.ID, a.Category)
	case a.Rating < 0 || a.Rating > MaxRating || math.IsNaN(a.Rating):
		return fmt.Errorf("%w %s: rating %v", ErrInvalidAttraction, a.ID, a.Rating)
	case a.Price < 0 || math.IsNaN(a.Price):
		return fmt.Errorf("%w %s: price %v", ErrInvalidAttraction, a.ID, a.Price)
	case a.Coordinate.Lat < -90 || a.Coordinate.Lat > 90 || a.Coordinate.Lng < -180 || a.Coordinate.Lng > 180:
		return fmt.Errorf("%w %s: coordinate %v", ErrInvalidAttraction, a.ID, a.Coordinate)
	}
	return nil
}

func (a Attraction) Free() bool { return a.Price == PriceFree }

// Index maps IDs to attractions. Later duplicates are ignored.
func Index(dataset []Attraction) map[string]Attraction {
	byID := make(map[string]Attraction, len(dataset))
	for _, a := range dataset {
		if _, ok := byID[a.ID]; !ok {
			byID[a.ID] = a
		}
	}
	return byID
}
