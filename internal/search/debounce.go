package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last keystroke before a
// query is filtered.
const DefaultDebounce = 250 * time.Millisecond

// Query is a search text tagged with the generation it was issued under.
type Query struct {
	Text       string
	Generation uint64
}

// debounceGate collapses bursts of Submit calls into a single delivery of
// the last query. Each Submit stops the previous timer and issues a fresh
// generation; a timer that fires after being superseded is ignored.
type debounceGate struct {
	delay time.Duration
	fire  func(Query)

	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

func newDebounceGate(delay time.Duration, fire func(Query)) *debounceGate {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &debounceGate{delay: delay, fire: fire}
}

// Submit restarts the quiet period for text and returns the generation
// assigned to it.
func (g *debounceGate) Submit(text string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.timer != nil {
		// Stop on an already-fired timer is a no-op; the generation check
		// below discards its delivery.
		g.timer.Stop()
	}
	g.gen++
	q := Query{Text: text, Generation: g.gen}
	g.timer = time.AfterFunc(g.delay, func() {
		if g.Current() != q.Generation {
			return
		}
		g.fire(q)
	})
	return q.Generation
}

// Current returns the latest issued generation.
func (g *debounceGate) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen
}

// Stop cancels any pending delivery and invalidates in-flight ones.
func (g *debounceGate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gen++
}
