// Package explorer ties one browsing session together: the dataset, the
// current criteria and filtered result, the shared selection, both view
// adapters and the map resource manager.
package explorer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playperu/attractionmap/internal/attractions"
	"github.com/playperu/attractionmap/internal/selection"
	"github.com/playperu/attractionmap/internal/spatial"
	"github.com/playperu/attractionmap/internal/view"
)

type Mode string

const (
	ModeMap   Mode = "map"
	ModeSplit Mode = "split"
)

func (m Mode) Valid() bool { return m == ModeMap || m == ModeSplit }

var (
	ErrUnknownAttraction = errors.New("unknown attraction")
	ErrInvalidMode       = errors.New("invalid view mode")
	ErrClosed            = errors.New("session closed")
)

// Frame reasons.
const (
	ReasonOpen           = "open"
	ReasonCriteria       = "criteria"
	ReasonSelection      = "selection"
	ReasonMode           = "mode"
	ReasonMap            = "map"
	ReasonMapUnavailable = "map_unavailable"
	ReasonSnapshot       = "snapshot"
)

type MapStatus struct {
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	Markers int    `json:"markers"`
}

// Frame is one complete render of the session. Both views in a frame are
// built from the same selection value.
type Frame struct {
	Seq       uint64               `json:"seq"`
	Reason    string               `json:"reason"`
	Criteria  attractions.Criteria `json:"criteria"`
	Mode      Mode                 `json:"mode"`
	Selection selection.Selection  `json:"selection"`
	Map       MapStatus            `json:"map"`
	MapView   view.MapView         `json:"mapView"`
	List      *view.ListView       `json:"list,omitempty"`
}

type Options struct {
	Dataset []attractions.Attraction
	Engine  spatial.Engine
	Surface spatial.Surface
	Logger  *slog.Logger
	// Publish receives every frame. It is called with the session locked
	// and must not block or call back into the session.
	Publish  func(Frame)
	Navigate view.Navigator
	Mode     Mode
}

type Session struct {
	id      string
	dataset []attractions.Attraction
	byID    map[string]attractions.Attraction
	coord   *selection.Coordinator
	list    *view.ListAdapter
	mapView *view.MapAdapter
	manager *spatial.Manager
	logger  *slog.Logger
	publish func(Frame)
	unsub   func()

	mu        sync.Mutex
	criteria  attractions.Criteria
	filtered  []attractions.Attraction
	mode      Mode
	mapStatus spatial.Status
	frames    uint64
	closed    bool
}

// Open builds a session over dataset and starts loading the map.
func Open(id string, opts Options) (*Session, error) {
	for _, a := range opts.Dataset {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("opening session %s: %w", id, err)
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeSplit
	}
	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, opts.Mode)
	}

	s := &Session{
		id:       id,
		dataset:  opts.Dataset,
		byID:     attractions.Index(opts.Dataset),
		coord:    selection.NewCoordinator(),
		logger:   opts.Logger.With("session", id),
		publish:  opts.Publish,
		criteria: attractions.DefaultCriteria(),
		mode:     opts.Mode,
	}
	s.filtered = attractions.Filter(s.dataset, s.criteria)
	s.list = view.NewListAdapter(s.coord, opts.Navigate)
	s.mapView = view.NewMapAdapter(s.coord, opts.Navigate)
	s.manager = spatial.NewManager(opts.Engine, opts.Surface, spatial.Options{
		Logger:   s.logger,
		OnSelect: s.mapView.Select,
		OnStatus: s.onMapStatus,
	})
	s.manager.Update(s.filtered)
	s.unsub = s.coord.Subscribe(s.onSelection)

	s.mu.Lock()
	s.emitLocked(ReasonOpen)
	s.mu.Unlock()

	s.manager.Mount()
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Manager exposes the map resource manager, mainly for Wait in callers
// that need the first load settled.
func (s *Session) Manager() *spatial.Manager { return s.manager }

func (s *Session) SetCriteria(c attractions.Criteria) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrClosed
	}
	s.criteria = c.Normalize()
	s.filtered = attractions.Filter(s.dataset, s.criteria)
	s.manager.Update(s.filtered)
	s.logger.Debug("criteria changed", "results", len(s.filtered))
	return s.emitLocked(ReasonCriteria), nil
}

func (s *Session) SetMode(m Mode) (Frame, error) {
	if !m.Valid() {
		return Frame{}, fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Frame{}, ErrClosed
	}
	s.mode = m
	return s.emitLocked(ReasonMode), nil
}

// Select routes a selection request through the adapter of its source.
// IDs outside the filtered result are honored; IDs outside the dataset are
// rejected.
func (s *Session) Select(id string, src selection.Source) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttraction, id)
	}
	switch src {
	case selection.SourceList:
		s.list.Activate(id)
	case selection.SourceMap:
		s.mapView.Select(id)
	default:
		s.coord.Select(id, selection.SourceAPI)
	}
	return nil
}

func (s *Session) Clear(src selection.Source) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if src == selection.SourceMap {
		s.mapView.Dismiss()
		return nil
	}
	s.coord.Clear(src)
	return nil
}

// RetryMap remounts the map after a load failure.
func (s *Session) RetryMap() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.manager.Mount()
	return nil
}

func (s *Session) Snapshot() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked(ReasonSnapshot)
}

// Close disposes the map and detaches from the coordinator.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.unsub()
	s.manager.Dispose()
	s.logger.Debug("session closed")
}

func (s *Session) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Session) onSelection(e selection.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch {
	case !e.Selection.Valid:
		s.manager.Focus(nil)
	case e.Source != selection.SourceMap:
		if a, ok := s.byID[e.Selection.ID]; ok {
			s.manager.Focus(&a)
		}
	}
	s.emitLocked(ReasonSelection)
}

func (s *Session) onMapStatus(st spatial.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.mapStatus = st
	if st.Err != nil {
		s.emitLocked(ReasonMapUnavailable)
		return
	}
	s.emitLocked(ReasonMap)
}

func (s *Session) emitLocked(reason string) Frame {
	s.frames++
	f := s.frameLocked(reason)
	if s.publish != nil {
		s.publish(f)
	}
	return f
}

func (s *Session) frameLocked(reason string) Frame {
	sel, _ := s.coord.Current()
	f := Frame{
		Seq:       s.frames,
		Reason:    reason,
		Criteria:  s.criteria,
		Mode:      s.mode,
		Selection: sel,
		Map:       MapStatus{State: s.mapStatus.State.String(), Markers: len(s.manager.Markers())},
		MapView:   s.mapView.Render(s.filtered, sel, s.byID),
	}
	if s.mapStatus.Err != nil {
		f.Map.Error = s.mapStatus.Err.Error()
	}
	if s.mode == ModeSplit {
		lv := s.list.Render(s.filtered, sel)
		f.List = &lv
	}
	return f
}
