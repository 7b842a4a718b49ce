package spatial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/metrics"
)

type State int

const (
	Unloaded State = iota
	Loading
	Ready
	Disposed
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrAssetLoad wraps every load failure. It is retry-eligible: call
	// Mount again.
	ErrAssetLoad = errors.New("map assets unavailable")
	ErrDisposed  = errors.New("map disposed")
)

// Status is reported to Options.OnStatus on every state transition.
type Status struct {
	State State
	Err   error
}

type Options struct {
	Logger   *slog.Logger
	Viewport Viewport
	// OnSelect receives the attraction ID of an activated marker.
	OnSelect func(id string)
	// OnStatus is called outside the manager's lock and must not block.
	OnStatus func(Status)
}

var settled = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Manager owns one renderer instance and its marker set for one mounted
// map view. A disposed Manager is never reused.
type Manager struct {
	engine   Engine
	host     Surface
	logger   *slog.Logger
	viewport Viewport
	onSelect func(id string)
	onStatus func(Status)

	mu       sync.Mutex
	state    State
	err      error
	done     chan struct{}
	cancel   context.CancelFunc
	instance Instance
	markers  map[string]MarkerHandle
	filtered []attractions.Attraction
	focus    *attractions.Attraction

	loads sync.WaitGroup
}

func NewManager(engine Engine, host Surface, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Viewport == (Viewport{}) {
		opts.Viewport = DefaultViewport
	}
	return &Manager{
		engine:   engine,
		host:     host,
		logger:   opts.Logger.With("surface", host.SurfaceID()),
		viewport: opts.Viewport,
		onSelect: opts.OnSelect,
		onStatus: opts.OnStatus,
		markers:  make(map[string]MarkerHandle),
	}
}

// Mount starts loading the engine if nothing is loaded yet. A Mount during
// Loading joins the in-flight load. The returned channel closes when the
// load settles.
func (m *Manager) Mount() <-chan struct{} {
	m.mu.Lock()
	switch m.state {
	case Loading:
		done := m.done
		m.mu.Unlock()
		return done
	case Ready, Disposed:
		m.mu.Unlock()
		return settled
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.state = Loading
	m.err = nil
	m.done = done
	m.cancel = cancel
	m.loads.Add(1)
	m.mu.Unlock()

	m.logger.Debug("loading map assets")
	m.report(Status{State: Loading})
	go m.load(ctx, done)
	return done
}

// Wait blocks until the current load settles and returns its error.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Disposed:
		return ErrDisposed
	case Ready:
		return nil
	}
	return m.err
}

func (m *Manager) load(ctx context.Context, done chan struct{}) {
	defer m.loads.Done()

	handle, err := m.engine.LoadAssets(ctx)

	m.mu.Lock()
	if m.state != Loading || m.done != done {
		m.mu.Unlock()
		metrics.MapLoadsTotal.WithLabelValues("cancelled").Inc()
		m.logger.Debug("map load settled after teardown")
		return
	}

	var inst Instance
	if err == nil {
		inst, err = handle.CreateInstance(m.host, m.viewport)
	}
	if err != nil {
		m.state = Unloaded
		m.err = fmt.Errorf("%w: %w", ErrAssetLoad, err)
		m.cancel()
		m.cancel = nil
		status := Status{State: Unloaded, Err: m.err}
		m.mu.Unlock()

		metrics.MapLoadsTotal.WithLabelValues("failed").Inc()
		m.logger.Warn("map load failed", "error", err)
		m.report(status)
		close(done)
		return
	}

	m.instance = inst
	m.state = Ready
	m.reconcileLocked()
	if m.focus != nil {
		inst.SetView(m.focus.Coordinate, FocusZoom)
		m.focus = nil
	}
	markers := len(m.markers)
	m.mu.Unlock()

	metrics.MapLoadsTotal.WithLabelValues("ready").Inc()
	m.logger.Info("map ready", "markers", markers)
	m.report(Status{State: Ready})
	// Only this goroutine closes done once the state has left Loading.
	close(done)
}

// Update records the latest filtered result and reconciles the marker
// layer when the renderer is ready. Before that the value is kept and
// applied on Ready; after Dispose it is dropped.
func (m *Manager) Update(filtered []attractions.Attraction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Disposed {
		return
	}
	m.filtered = slices.Clone(filtered)
	if m.state == Ready {
		m.reconcileLocked()
	}
}

// Focus centers the view on target at FocusZoom. Before Ready the latest
// target is queued; a nil target clears the queue.
func (m *Manager) Focus(target *attractions.Attraction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case Disposed:
	case Ready:
		if target != nil {
			m.instance.SetView(target.Coordinate, FocusZoom)
		}
	default:
		if target == nil {
			m.focus = nil
			return
		}
		t := *target
		m.focus = &t
	}
}

// reconcileLocked brings the marker set to exactly the filtered ID set,
// leaving markers present on both sides untouched.
func (m *Manager) reconcileLocked() {
	want := make(map[string]struct{}, len(m.filtered))
	for _, a := range m.filtered {
		want[a.ID] = struct{}{}
	}

	removed := 0
	for id, h := range m.markers {
		if _, ok := want[id]; !ok {
			m.instance.RemoveMarker(h)
			delete(m.markers, id)
			removed++
		}
	}

	added := 0
	coords := make([]attractions.Coordinate, 0, len(m.filtered))
	for _, a := range m.filtered {
		coords = append(coords, a.Coordinate)
		if _, ok := m.markers[a.ID]; ok {
			continue
		}
		m.markers[a.ID] = m.instance.AddMarker(a.Coordinate, StyleFor(a), m.activator(a.ID))
		added++
	}

	if len(m.markers) > 0 {
		m.instance.FitBounds(coords, FitPadding)
	}

	metrics.ReconcilesTotal.Inc()
	metrics.MarkersAddedTotal.Add(float64(added))
	metrics.MarkersRemovedTotal.Add(float64(removed))
	m.logger.Debug("markers reconciled", "added", added, "removed", removed, "total", len(m.markers))
}

func (m *Manager) activator(id string) func() {
	return func() {
		m.mu.Lock()
		_, live := m.markers[id]
		live = live && m.state == Ready
		m.mu.Unlock()

		if live && m.onSelect != nil {
			m.onSelect(id)
		}
	}
}

// Dispose releases the renderer and all markers and cancels a pending
// load. It is safe to call more than once.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.state == Disposed {
		m.mu.Unlock()
		return
	}
	prev := m.state
	m.state = Disposed
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if prev == Loading {
		close(m.done)
	}
	removed := 0
	if m.instance != nil {
		for id, h := range m.markers {
			m.instance.RemoveMarker(h)
			delete(m.markers, id)
			removed++
		}
		m.instance.Dispose()
		m.instance = nil
	}
	m.filtered = nil
	m.focus = nil
	m.mu.Unlock()

	metrics.MarkersRemovedTotal.Add(float64(removed))
	m.logger.Debug("map disposed", "from", prev.String())
	m.report(Status{State: Disposed})
}

func (m *Manager) report(s Status) {
	if m.onStatus != nil {
		m.onStatus(s)
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err returns the last load failure, or nil.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Markers returns the IDs currently drawn, sorted.
func (m *Manager) Markers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.markers))
	for id := range m.markers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
