// Package selection owns the single "currently selected attraction" value
// shared by the list and map views.
package selection

import "sync"

// Source tells subscribers which surface requested a change.
type Source string

const (
	SourceList Source = "list"
	SourceMap  Source = "map"
	SourceAPI  Source = "api"
)

// Selection is an optional attraction ID.
type Selection struct {
	ID    string `json:"id,omitempty"`
	Valid bool   `json:"valid"`
}

func Of(id string) Selection { return Selection{ID: id, Valid: true} }

// None is the empty selection.
var None = Selection{}

func (s Selection) Is(id string) bool { return s.Valid && s.ID == id }

// Event is delivered to every subscriber after a change.
type Event struct {
	Seq       uint64    `json:"seq"`
	Selection Selection `json:"selection"`
	Previous  Selection `json:"previous"`
	Source    Source    `json:"source"`
}

type Listener func(Event)

// Coordinator is the only writer of the selection. Changes are applied and
// dispatched one at a time: every subscriber sees event n before the state
// moves to n+1. Listeners must not call Select or Clear synchronously.
type Coordinator struct {
	dispatch sync.Mutex

	mu      sync.RWMutex
	current Selection
	seq     uint64
	nextSub int
	subs    map[int]Listener
}

func NewCoordinator() *Coordinator {
	return &Coordinator{subs: make(map[int]Listener)}
}

// Current returns the selection and the sequence number it was set at.
func (c *Coordinator) Current() (Selection, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.seq
}

// Select makes id the selection. Selecting the current id is a no-op.
func (c *Coordinator) Select(id string, src Source) {
	if id == "" {
		c.Clear(src)
		return
	}
	c.set(Of(id), src)
}

// Clear drops the selection. Clearing an empty selection is a no-op.
func (c *Coordinator) Clear(src Source) {
	c.set(None, src)
}

// Subscribe registers fn and returns a function that removes it.
func (c *Coordinator) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Coordinator) set(next Selection, src Source) {
	c.dispatch.Lock()
	defer c.dispatch.Unlock()

	c.mu.Lock()
	if c.current == next {
		c.mu.Unlock()
		return
	}
	c.seq++
	ev := Event{Seq: c.seq, Selection: next, Previous: c.current, Source: src}
	c.current = next
	listeners := make([]Listener, 0, len(c.subs))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subs[i]; ok {
			listeners = append(listeners, fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
