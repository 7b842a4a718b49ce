// Package render is a spatial.Engine that draws on a remote canvas: it
// keeps the scene server-side and emits draw commands for a browser client
// running the map library to apply. Clicks come back through Activate.
package render

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"sync"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/spatial"
)

type Op string

const (
	OpInit    Op = "init"
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpFit     Op = "fit"
	OpView    Op = "view"
	OpDispose Op = "dispose"
)

// Bounds is a lat/lng box, south-west to north-east.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns the box around coords grown by ratio of its span on
// every side. ok is false for an empty slice.
func BoundsOf(coords []attractions.Coordinate, ratio float64) (b Bounds, ok bool) {
	if len(coords) == 0 {
		return Bounds{}, false
	}
	b = Bounds{South: math.Inf(1), West: math.Inf(1), North: math.Inf(-1), East: math.Inf(-1)}
	for _, c := range coords {
		b.South = math.Min(b.South, c.Lat)
		b.North = math.Max(b.North, c.Lat)
		b.West = math.Min(b.West, c.Lng)
		b.East = math.Max(b.East, c.Lng)
	}
	dLat := (b.North - b.South) * ratio
	dLng := (b.East - b.West) * ratio
	b.South -= dLat
	b.North += dLat
	b.West -= dLng
	b.East += dLng
	return b, true
}

// Command is one draw instruction sent to the browser.
type Command struct {
	Op       Op                      `json:"op"`
	Marker   spatial.MarkerHandle    `json:"marker,omitempty"`
	At       *attractions.Coordinate `json:"at,omitempty"`
	Style    *spatial.MarkerStyle    `json:"style,omitempty"`
	Bounds   *Bounds                 `json:"bounds,omitempty"`
	Viewport *spatial.Viewport       `json:"viewport,omitempty"`
	Assets   []LoadedAsset           `json:"assets,omitempty"`
	TileURL  string                  `json:"tileUrl,omitempty"`
}

type SceneMarker struct {
	Marker spatial.MarkerHandle   `json:"marker"`
	At     attractions.Coordinate `json:"at"`
	Style  spatial.MarkerStyle    `json:"style"`
}

// Scene is the full canvas state, for clients joining late.
type Scene struct {
	Live     bool             `json:"live"`
	Viewport spatial.Viewport `json:"viewport"`
	Bounds   *Bounds          `json:"bounds,omitempty"`
	Markers  []SceneMarker    `json:"markers"`
	Assets   []LoadedAsset    `json:"assets,omitempty"`
	TileURL  string           `json:"tileUrl,omitempty"`
}

var ErrSurfaceBusy = errors.New("surface already hosts a renderer")

// Canvas is the host surface of one mounted map view.
type Canvas struct {
	id   string
	draw func(Command)

	mu    sync.Mutex
	inst  *instance
	scene Scene
}

// NewCanvas returns a canvas that forwards every command to draw, which
// must not block. draw may be nil.
func NewCanvas(id string, draw func(Command)) *Canvas {
	return &Canvas{id: id, draw: draw}
}

func (c *Canvas) SurfaceID() string { return c.id }

// Scene returns a copy of the current scene, markers ordered by handle.
func (c *Canvas) Scene() Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.scene
	s.Markers = slices.Clone(c.scene.Markers)
	slices.SortFunc(s.Markers, func(a, b SceneMarker) int {
		switch {
		case a.Marker < b.Marker:
			return -1
		case a.Marker > b.Marker:
			return 1
		}
		return 0
	})
	if s.Markers == nil {
		s.Markers = []SceneMarker{}
	}
	return s
}

// Activate forwards a click on marker h. It reports whether h is live.
func (c *Canvas) Activate(h spatial.MarkerHandle) bool {
	c.mu.Lock()
	inst := c.inst
	c.mu.Unlock()
	if inst == nil {
		return false
	}
	return inst.activate(h)
}

func (c *Canvas) bind(inst *instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inst != nil {
		return ErrSurfaceBusy
	}
	c.inst = inst
	return nil
}

func (c *Canvas) apply(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch cmd.Op {
	case OpInit:
		c.scene = Scene{Live: true, Viewport: *cmd.Viewport, Assets: cmd.Assets, TileURL: cmd.TileURL}
	case OpAdd:
		c.scene.Markers = append(c.scene.Markers, SceneMarker{Marker: cmd.Marker, At: *cmd.At, Style: *cmd.Style})
	case OpRemove:
		c.scene.Markers = slices.DeleteFunc(c.scene.Markers, func(m SceneMarker) bool { return m.Marker == cmd.Marker })
	case OpFit:
		b := *cmd.Bounds
		c.scene.Bounds = &b
	case OpView:
		c.scene.Viewport = *cmd.Viewport
		c.scene.Bounds = nil
	case OpDispose:
		c.scene = Scene{}
		c.inst = nil
	}
	if c.draw != nil {
		c.draw(cmd)
	}
}

type Options struct {
	TileURL string
	Logger  *slog.Logger
}

// DefaultTileURL is the OpenStreetMap raster layer.
const DefaultTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

// Engine implements spatial.Engine on top of an AssetLoader.
type Engine struct {
	loader  *AssetLoader
	tileURL string
	logger  *slog.Logger
}

func NewEngine(loader *AssetLoader, opts Options) *Engine {
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{loader: loader, tileURL: opts.TileURL, logger: opts.Logger}
}

func (e *Engine) LoadAssets(ctx context.Context) (spatial.Handle, error) {
	assets, err := e.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &handle{assets: assets, tileURL: e.tileURL, logger: e.logger}, nil
}

type handle struct {
	assets  []LoadedAsset
	tileURL string
	logger  *slog.Logger
}

var errUnsupportedSurface = errors.New("surface is not a render canvas")

func (h *handle) CreateInstance(host spatial.Surface, initial spatial.Viewport) (spatial.Instance, error) {
	canvas, ok := host.(*Canvas)
	if !ok {
		return nil, errUnsupportedSurface
	}
	inst := &instance{canvas: canvas, markers: make(map[spatial.MarkerHandle]func())}
	if err := canvas.bind(inst); err != nil {
		return nil, err
	}
	vp := initial
	canvas.apply(Command{Op: OpInit, Viewport: &vp, Assets: h.assets, TileURL: h.tileURL})
	h.logger.Debug("renderer created", "surface", canvas.id)
	return inst, nil
}

type instance struct {
	canvas *Canvas

	mu       sync.Mutex
	next     spatial.MarkerHandle
	markers  map[spatial.MarkerHandle]func()
	disposed bool
}

func (i *instance) AddMarker(at attractions.Coordinate, style spatial.MarkerStyle, onActivate func()) spatial.MarkerHandle {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return 0
	}
	i.next++
	h := i.next
	i.markers[h] = onActivate
	i.canvas.apply(Command{Op: OpAdd, Marker: h, At: &at, Style: &style})
	return h
}

func (i *instance) RemoveMarker(h spatial.MarkerHandle) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.markers[h]; !ok || i.disposed {
		return
	}
	delete(i.markers, h)
	i.canvas.apply(Command{Op: OpRemove, Marker: h})
}

func (i *instance) FitBounds(coords []attractions.Coordinate, padding float64) {
	b, ok := BoundsOf(coords, padding)
	if !ok {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return
	}
	i.canvas.apply(Command{Op: OpFit, Bounds: &b})
}

func (i *instance) SetView(center attractions.Coordinate, zoom int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return
	}
	i.canvas.apply(Command{Op: OpView, Viewport: &spatial.Viewport{Center: center, Zoom: zoom}})
}

func (i *instance) Dispose() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return
	}
	i.disposed = true
	clear(i.markers)
	i.canvas.apply(Command{Op: OpDispose})
}

func (i *instance) activate(h spatial.MarkerHandle) bool {
	i.mu.Lock()
	fn, ok := i.markers[h]
	i.mu.Unlock()
	if !ok || fn == nil {
		return false
	}
	fn()
	return true
}
