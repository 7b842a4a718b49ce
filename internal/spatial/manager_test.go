package spatial

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/playperu/attractionmap/internal/attractions"
)

type fakeSurface string

func (s fakeSurface) SurfaceID() string { return string(s) }

type fakeMarker struct {
	at         attractions.Coordinate
	style      MarkerStyle
	onActivate func()
}

type fakeInstance struct {
	mu       sync.Mutex
	initial  Viewport
	next     MarkerHandle
	markers  map[MarkerHandle]fakeMarker
	created  map[string]int
	removed  int
	fits     [][]attractions.Coordinate
	views    []Viewport
	calls    []string
	disposed bool
}

func (f *fakeInstance) AddMarker(at attractions.Coordinate, style MarkerStyle, onActivate func()) MarkerHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.markers[f.next] = fakeMarker{at: at, style: style, onActivate: onActivate}
	f.created[style.Label]++
	f.calls = append(f.calls, "add")
	return f.next
}

func (f *fakeInstance) RemoveMarker(h MarkerHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.markers, h)
	f.removed++
	f.calls = append(f.calls, "remove")
}

func (f *fakeInstance) FitBounds(coords []attractions.Coordinate, padding float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fits = append(f.fits, slices.Clone(coords))
	f.calls = append(f.calls, "fit")
}

func (f *fakeInstance) SetView(center attractions.Coordinate, zoom int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, Viewport{Center: center, Zoom: zoom})
	f.calls = append(f.calls, "view")
}

func (f *fakeInstance) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}

// activate simulates a click on the marker labelled name.
func (f *fakeInstance) activate(name string) bool {
	f.mu.Lock()
	var fn func()
	for _, m := range f.markers {
		if m.style.Label == name {
			fn = m.onActivate
		}
	}
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (f *fakeInstance) labels() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.markers {
		out = append(out, m.style.Label)
	}
	slices.Sort(out)
	return out
}

type fakeEngine struct {
	mu        sync.Mutex
	loads     int
	release   chan struct{}
	ignoreCtx bool
	loadErr   error
	createErr error
	instances []*fakeInstance
}

func (e *fakeEngine) LoadAssets(ctx context.Context) (Handle, error) {
	e.mu.Lock()
	e.loads++
	release, ignoreCtx, err := e.release, e.ignoreCtx, e.loadErr
	e.mu.Unlock()

	if release != nil {
		if ignoreCtx {
			<-release
		} else {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (e *fakeEngine) CreateInstance(_ Surface, initial Viewport) (Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.createErr != nil {
		return nil, e.createErr
	}
	inst := &fakeInstance{
		initial: initial,
		markers: make(map[MarkerHandle]fakeMarker),
		created: make(map[string]int),
	}
	e.instances = append(e.instances, inst)
	return inst, nil
}

func (e *fakeEngine) instanceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.instances)
}

func (e *fakeEngine) loadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

func waitReady(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func pick(names ...string) []attractions.Attraction {
	var out []attractions.Attraction
	for _, a := range attractions.Demo() {
		if slices.Contains(names, a.Name) {
			out = append(out, a)
		}
	}
	return out
}

func demoByName(name string) *attractions.Attraction {
	for _, a := range attractions.Demo() {
		if a.Name == name {
			return &a
		}
	}
	return nil
}

func TestManagerReadyReconcilesCurrentResult(t *testing.T) {
	engine := &fakeEngine{release: make(chan struct{})}
	m := NewManager(engine, fakeSurface("s1"), Options{})

	m.Mount()
	m.Update(pick("Statue of Liberty", "Central Park", "Times Square"))
	m.Update(pick("Statue of Liberty", "Times Square"))
	close(engine.release)
	waitReady(t, m)

	inst := engine.instances[0]
	if inst.initial != DefaultViewport {
		t.Errorf("initial viewport = %+v, want %+v", inst.initial, DefaultViewport)
	}
	if got, want := inst.labels(), []string{"Statue of Liberty", "Times Square"}; !slices.Equal(got, want) {
		t.Errorf("markers = %q, want %q", got, want)
	}
	if inst.created["Central Park"] != 0 {
		t.Error("marker created from a stale filtered result")
	}
	if len(inst.fits) != 1 || len(inst.fits[0]) != 2 {
		t.Errorf("fits = %v, want one fit over 2 coordinates", inst.fits)
	}
	if got := m.Markers(); !slices.Equal(got, []string{"1", "4"}) {
		t.Errorf("Markers() = %q", got)
	}
}

func TestManagerSingleFlightMount(t *testing.T) {
	engine := &fakeEngine{release: make(chan struct{})}
	m := NewManager(engine, fakeSurface("s1"), Options{})

	first := m.Mount()
	second := m.Mount()
	if first != second {
		t.Fatal("second mount during loading started a new load")
	}
	if m.State() != Loading {
		t.Fatalf("state = %v, want loading", m.State())
	}

	close(engine.release)
	<-first
	waitReady(t, m)

	select {
	case <-m.Mount():
	default:
		t.Fatal("mount after ready returned an open channel")
	}
	if engine.loadCount() != 1 {
		t.Errorf("loads = %d, want 1", engine.loadCount())
	}
	if engine.instanceCount() != 1 {
		t.Errorf("instances = %d, want 1", engine.instanceCount())
	}
}

func TestManagerIdentityPreservingReconcile(t *testing.T) {
	engine := &fakeEngine{}
	m := NewManager(engine, fakeSurface("s1"), Options{})
	m.Mount()
	waitReady(t, m)
	inst := engine.instances[0]

	abc := pick("Statue of Liberty", "Central Park", "Times Square")
	ac := pick("Statue of Liberty", "Times Square")

	m.Update(abc)
	m.Update(ac)
	m.Update(abc)

	want := map[string]int{"Statue of Liberty": 1, "Central Park": 2, "Times Square": 1}
	for name, n := range want {
		if inst.created[name] != n {
			t.Errorf("%s created %d times, want %d", name, inst.created[name], n)
		}
	}
	if inst.removed != 1 {
		t.Errorf("removed = %d, want 1", inst.removed)
	}
	if got := m.Markers(); !slices.Equal(got, []string{"1", "2", "4"}) {
		t.Errorf("Markers() = %q", got)
	}
}

func TestManagerMarkerSetMatchesFilteredResult(t *testing.T) {
	engine := &fakeEngine{}
	m := NewManager(engine, fakeSurface("s1"), Options{})
	m.Mount()
	waitReady(t, m)
	inst := engine.instances[0]

	dataset := attractions.Demo()
	criteria := []attractions.Criteria{
		attractions.DefaultCriteria(),
		attractions.NewCriteria([]string{"Landmarks"}, 4.5, nil),
		attractions.NewCriteria(nil, 4.9, nil),
		attractions.NewCriteria([]string{"Beaches"}, 0, nil),
		attractions.NewCriteria([]string{"Entertainment", "Parks & Nature"}, 0, nil),
		attractions.DefaultCriteria(),
	}
	for _, c := range criteria {
		filtered := attractions.Filter(dataset, c)
		m.Update(filtered)

		want := attractions.IDs(filtered)
		slices.Sort(want)
		if got := m.Markers(); !slices.Equal(got, want) {
			t.Fatalf("criteria %+v: markers %q, want %q", c, got, want)
		}
		if len(inst.labels()) != len(want) {
			t.Fatalf("criteria %+v: instance holds %d markers, want %d", c, len(inst.labels()), len(want))
		}
	}
}

func TestManagerEmptyResultKeepsViewport(t *testing.T) {
	engine := &fakeEngine{}
	m := NewManager(engine, fakeSurface("s1"), Options{})
	m.Update(pick("Central Park"))
	m.Mount()
	waitReady(t, m)
	inst := engine.instances[0]

	m.Update(nil)
	if len(inst.fits) != 1 {
		t.Errorf("fits = %d, want 1 (empty result must not refit)", len(inst.fits))
	}
	if len(inst.labels()) != 0 {
		t.Errorf("markers left: %q", inst.labels())
	}
}

func TestManagerMountThenDisposeBeforeLoad(t *testing.T) {
	tests := []struct {
		name      string
		ignoreCtx bool
	}{
		{name: "load honours cancellation"},
		{name: "load ignores cancellation", ignoreCtx: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{release: make(chan struct{}), ignoreCtx: tt.ignoreCtx}
			m := NewManager(engine, fakeSurface("s1"), Options{})

			done := m.Mount()
			m.Update(attractions.Demo())
			m.Dispose()

			select {
			case <-done:
			default:
				t.Fatal("dispose did not settle the pending load")
			}

			close(engine.release)
			m.loads.Wait()

			if engine.instanceCount() != 0 {
				t.Errorf("instances = %d, want 0", engine.instanceCount())
			}
			if len(m.Markers()) != 0 {
				t.Errorf("markers = %q, want none", m.Markers())
			}
			if m.State() != Disposed {
				t.Errorf("state = %v, want disposed", m.State())
			}
			if err := m.Wait(context.Background()); !errors.Is(err, ErrDisposed) {
				t.Errorf("Wait = %v, want ErrDisposed", err)
			}
		})
	}
}

func TestManagerLoadFailureIsRetryable(t *testing.T) {
	cause := errors.New("cdn unreachable")
	engine := &fakeEngine{loadErr: cause}

	var mu sync.Mutex
	var statuses []Status
	m := NewManager(engine, fakeSurface("s1"), Options{
		OnStatus: func(s Status) {
			mu.Lock()
			statuses = append(statuses, s)
			mu.Unlock()
		},
	})

	m.Mount()
	err := m.Wait(context.Background())
	if !errors.Is(err, ErrAssetLoad) || !errors.Is(err, cause) {
		t.Fatalf("Wait = %v, want ErrAssetLoad wrapping cause", err)
	}
	if m.State() != Unloaded {
		t.Fatalf("state = %v, want unloaded", m.State())
	}

	m.Update(pick("Brooklyn Bridge"))
	if engine.instanceCount() != 0 || len(m.Markers()) != 0 {
		t.Fatal("failed load produced a renderer or markers")
	}

	engine.mu.Lock()
	engine.loadErr = nil
	engine.mu.Unlock()

	m.Mount()
	waitReady(t, m)
	if m.Err() != nil {
		t.Errorf("Err after retry = %v", m.Err())
	}
	if got := m.Markers(); !slices.Equal(got, []string{"5"}) {
		t.Errorf("markers after retry = %q, want [5]", got)
	}

	mu.Lock()
	defer mu.Unlock()
	var states []State
	for _, s := range statuses {
		states = append(states, s.State)
	}
	want := []State{Loading, Unloaded, Loading, Ready}
	if !slices.Equal(states, want) {
		t.Errorf("statuses = %v, want %v", states, want)
	}
	if statuses[1].Err == nil {
		t.Error("failure status carries no error")
	}
}

func TestManagerCreateInstanceFailure(t *testing.T) {
	engine := &fakeEngine{createErr: errors.New("no surface")}
	m := NewManager(engine, fakeSurface("s1"), Options{})

	m.Mount()
	if err := m.Wait(context.Background()); !errors.Is(err, ErrAssetLoad) {
		t.Fatalf("Wait = %v, want ErrAssetLoad", err)
	}
	if m.State() != Unloaded {
		t.Errorf("state = %v, want unloaded", m.State())
	}
}

func TestManagerFocus(t *testing.T) {
	t.Run("queued while loading", func(t *testing.T) {
		engine := &fakeEngine{release: make(chan struct{})}
		m := NewManager(engine, fakeSurface("s1"), Options{})
		m.Mount()
		m.Update(pick("Statue of Liberty", "Central Park"))
		m.Focus(demoByName("Central Park"))
		m.Focus(demoByName("Broadway Show"))
		close(engine.release)
		waitReady(t, m)

		inst := engine.instances[0]
		want := Viewport{Center: demoByName("Broadway Show").Coordinate, Zoom: FocusZoom}
		if len(inst.views) != 1 || inst.views[0] != want {
			t.Fatalf("views = %+v, want [%+v]", inst.views, want)
		}
		if got := inst.calls[len(inst.calls)-1]; got != "view" {
			t.Errorf("last call = %q, want the queued focus after fitting", got)
		}
		if got := m.Markers(); !slices.Equal(got, []string{"1", "2"}) {
			t.Errorf("focus changed markers: %q", got)
		}
	})

	t.Run("cleared while loading", func(t *testing.T) {
		engine := &fakeEngine{release: make(chan struct{})}
		m := NewManager(engine, fakeSurface("s1"), Options{})
		m.Mount()
		m.Focus(demoByName("Central Park"))
		m.Focus(nil)
		close(engine.release)
		waitReady(t, m)

		if views := engine.instances[0].views; len(views) != 0 {
			t.Errorf("views = %+v, want none", views)
		}
	})

	t.Run("ready recenters without touching markers", func(t *testing.T) {
		engine := &fakeEngine{}
		m := NewManager(engine, fakeSurface("s1"), Options{})
		m.Mount()
		waitReady(t, m)
		m.Update(pick("Statue of Liberty"))
		inst := engine.instances[0]
		before := len(inst.calls)

		m.Focus(demoByName("Times Square"))

		if got := inst.calls[before:]; !slices.Equal(got, []string{"view"}) {
			t.Errorf("calls = %q, want only a view change", got)
		}
	})
}

func TestManagerMarkerActivation(t *testing.T) {
	engine := &fakeEngine{}
	var mu sync.Mutex
	var selected []string
	m := NewManager(engine, fakeSurface("s1"), Options{
		OnSelect: func(id string) {
			mu.Lock()
			selected = append(selected, id)
			mu.Unlock()
		},
	})
	m.Mount()
	waitReady(t, m)
	m.Update(pick("Metropolitan Museum of Art", "9/11 Memorial & Museum"))
	inst := engine.instances[0]

	if !inst.activate("9/11 Memorial & Museum") {
		t.Fatal("marker not found")
	}
	m.Dispose()
	inst.activate("Metropolitan Museum of Art")

	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(selected, []string{"7"}) {
		t.Errorf("selected = %q, want [7]", selected)
	}
}

func TestManagerDisposeReleasesEverything(t *testing.T) {
	engine := &fakeEngine{}
	m := NewManager(engine, fakeSurface("s1"), Options{})
	m.Mount()
	waitReady(t, m)
	m.Update(attractions.Demo())
	inst := engine.instances[0]

	m.Dispose()
	m.Dispose()

	if !inst.disposed {
		t.Error("instance not disposed")
	}
	if len(inst.labels()) != 0 {
		t.Errorf("markers left on instance: %q", inst.labels())
	}
	calls := len(inst.calls)
	m.Update(pick("Central Park"))
	m.Focus(demoByName("Central Park"))
	if len(inst.calls) != calls {
		t.Error("disposed manager touched the instance")
	}

	select {
	case <-m.Mount():
	default:
		t.Fatal("mount after dispose returned an open channel")
	}
	if engine.loadCount() != 1 {
		t.Errorf("loads = %d, want 1", engine.loadCount())
	}
}

func TestStyleFor(t *testing.T) {
	tests := []struct {
		category attractions.Category
		want     string
	}{
		{attractions.CategoryLandmarks, "#ef4444"},
		{attractions.CategoryParks, "#22c55e"},
		{attractions.CategoryMuseums, "#8b5cf6"},
		{attractions.CategoryEntertainment, "#f59e0b"},
		{attractions.Category("Beaches"), FallbackColor},
	}
	for _, tt := range tests {
		got := StyleFor(attractions.Attraction{Name: "x", Category: tt.category})
		if got.Color != tt.want || got.Label != "x" {
			t.Errorf("StyleFor(%q) = %+v, want color %s", tt.category, got, tt.want)
		}
	}
}
