// Package spatial manages the map renderer's lifecycle and keeps its marker
// layer in agreement with the filtered attractions.
package spatial

import (
	"context"

	"github.com/playperu/attractionmap/internal/attractions"
)

// Engine is the external rendering technology. LoadAssets may block; it
// must return promptly once ctx is cancelled.
type Engine interface {
	LoadAssets(ctx context.Context) (Handle, error)
}

// Handle is a loaded engine. It replaces any global engine object: the
// manager holds it and nothing else reaches it.
type Handle interface {
	CreateInstance(host Surface, initial Viewport) (Instance, error)
}

// Surface is the host view an instance draws into.
type Surface interface {
	SurfaceID() string
}

// Instance is one live renderer bound to a surface. onActivate callbacks
// passed to AddMarker are invoked from the engine's own event source, never
// from inside a call to Instance.
type Instance interface {
	AddMarker(at attractions.Coordinate, style MarkerStyle, onActivate func()) MarkerHandle
	RemoveMarker(h MarkerHandle)
	FitBounds(coords []attractions.Coordinate, padding float64)
	SetView(center attractions.Coordinate, zoom int)
	Dispose()
}

// MarkerHandle identifies a marker within its instance.
type MarkerHandle uint64

type Viewport struct {
	Center attractions.Coordinate `json:"center"`
	Zoom   int                    `json:"zoom"`
}

type MarkerStyle struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

const (
	FitPadding = 0.1
	FocusZoom  = 15
)

// DefaultViewport frames midtown Manhattan.
var DefaultViewport = Viewport{
	Center: attractions.Coordinate{Lat: 40.7589, Lng: -73.9851},
	Zoom:   12,
}

// FallbackColor is used for categories without an assigned color.
const FallbackColor = "#3b82f6"

var categoryColors = map[attractions.Category]string{
	attractions.CategoryLandmarks:     "#ef4444",
	attractions.CategoryParks:         "#22c55e",
	attractions.CategoryMuseums:       "#8b5cf6",
	attractions.CategoryEntertainment: "#f59e0b",
}

// ColorFor maps a category to its marker color.
func ColorFor(c attractions.Category) string {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return FallbackColor
}

// StyleFor returns the marker style of a.
func StyleFor(a attractions.Attraction) MarkerStyle {
	return MarkerStyle{Color: ColorFor(a.Category), Label: a.Name}
}
