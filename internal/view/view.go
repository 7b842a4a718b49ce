// Package view projects the filtered attractions and the current selection
// into the list and map presentations. Adapters never filter and never hold
// selection state; they forward intents to the coordinator.
package view

import (
	"strconv"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/selection"
	"github.com/playperu/attractionmap/internal/spatial"
)

// Intents receives selection requests. *selection.Coordinator satisfies it.
type Intents interface {
	Select(id string, src selection.Source)
	Clear(src selection.Source)
}

// Navigator receives the ID of an attraction whose details were requested.
type Navigator func(id string)

// DetailsPath is the route of the attraction detail page.
func DetailsPath(id string) string { return "/attraction/" + id }

// PriceLabel renders 0 as "Free" and anything else in whole or fractional
// dollars.
func PriceLabel(price float64) string {
	if price == attractions.PriceFree {
		return "Free"
	}
	return "$" + strconv.FormatFloat(price, 'f', -1, 64)
}

type ListItem struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Category    attractions.Category `json:"category"`
	Rating      float64              `json:"rating"`
	Reviews     int                  `json:"reviews"`
	Price       float64              `json:"price"`
	PriceLabel  string               `json:"priceLabel"`
	Duration    string               `json:"duration"`
	Image       string               `json:"image"`
	Selected    bool                 `json:"selected"`
	DetailsPath string               `json:"detailsPath"`
}

type ListView struct {
	Count     int                 `json:"count"`
	Selection selection.Selection `json:"selection"`
	Items     []ListItem          `json:"items"`
}

type ListAdapter struct {
	intents  Intents
	navigate Navigator
}

func NewListAdapter(intents Intents, navigate Navigator) *ListAdapter {
	return &ListAdapter{intents: intents, navigate: navigate}
}

func (l *ListAdapter) Render(filtered []attractions.Attraction, sel selection.Selection) ListView {
	items := make([]ListItem, 0, len(filtered))
	for _, a := range filtered {
		items = append(items, ListItem{
			ID:          a.ID,
			Name:        a.Name,
			Category:    a.Category,
			Rating:      a.Rating,
			Reviews:     a.Reviews,
			Price:       a.Price,
			PriceLabel:  PriceLabel(a.Price),
			Duration:    a.Duration,
			Image:       a.Image,
			Selected:    sel.Is(a.ID),
			DetailsPath: DetailsPath(a.ID),
		})
	}
	return ListView{Count: len(items), Selection: sel, Items: items}
}

// Activate is a click on a list row.
func (l *ListAdapter) Activate(id string) {
	l.intents.Select(id, selection.SourceList)
}

func (l *ListAdapter) ViewDetails(id string) {
	if l.navigate != nil {
		l.navigate(id)
	}
}

type Pin struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Coordinate attractions.Coordinate `json:"coordinate"`
	Color      string                 `json:"color"`
	Selected   bool                   `json:"selected"`
}

// DetailPanel is the info card of the selected attraction. OnMap is false
// when the attraction is outside the filtered result and has no marker.
type DetailPanel struct {
	Attraction  attractions.Attraction `json:"attraction"`
	PriceLabel  string                 `json:"priceLabel"`
	DetailsPath string                 `json:"detailsPath"`
	OnMap       bool                   `json:"onMap"`
}

type MapView struct {
	Count     int                 `json:"count"`
	Selection selection.Selection `json:"selection"`
	Pins      []Pin               `json:"pins"`
	Detail    *DetailPanel        `json:"detail,omitempty"`
}

type MapAdapter struct {
	intents  Intents
	navigate Navigator
}

func NewMapAdapter(intents Intents, navigate Navigator) *MapAdapter {
	return &MapAdapter{intents: intents, navigate: navigate}
}

// Render builds the map presentation. byID is the whole dataset so a
// selection outside the filtered result keeps its detail panel.
func (m *MapAdapter) Render(filtered []attractions.Attraction, sel selection.Selection, byID map[string]attractions.Attraction) MapView {
	v := MapView{Count: len(filtered), Selection: sel, Pins: make([]Pin, 0, len(filtered))}
	onMap := false
	for _, a := range filtered {
		selected := sel.Is(a.ID)
		onMap = onMap || selected
		v.Pins = append(v.Pins, Pin{
			ID:         a.ID,
			Name:       a.Name,
			Coordinate: a.Coordinate,
			Color:      spatial.ColorFor(a.Category),
			Selected:   selected,
		})
	}

	if !sel.Valid {
		return v
	}
	a, ok := byID[sel.ID]
	if !ok {
		return v
	}
	v.Detail = &DetailPanel{
		Attraction:  a,
		PriceLabel:  PriceLabel(a.Price),
		DetailsPath: DetailsPath(a.ID),
		OnMap:       onMap,
	}
	return v
}

// Select is a marker click relayed from the renderer.
func (m *MapAdapter) Select(id string) {
	m.intents.Select(id, selection.SourceMap)
}

// Dismiss closes the detail panel by clearing the shared selection.
func (m *MapAdapter) Dismiss() {
	m.intents.Clear(selection.SourceMap)
}

func (m *MapAdapter) ViewDetails(id string) {
	if m.navigate != nil {
		m.navigate(id)
	}
}
