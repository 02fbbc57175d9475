package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/searchpick/internal/search"
)

// snapshotMsg carries a controller snapshot into Update.
type snapshotMsg struct {
	snap search.Snapshot
}

// mailbox hands controller snapshots to the Bubble Tea loop. Controllers
// publish from timer and fetch goroutines; only the newest snapshot is
// kept, so a slow UI never blocks the controller and never renders an
// older state after a newer one.
type mailbox struct {
	mu      sync.Mutex
	latest  search.Snapshot
	pending bool
	notify  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newMailbox() *mailbox {
	return &mailbox{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// put stores s unless a newer snapshot is already held.
func (b *mailbox) put(s search.Snapshot) {
	b.mu.Lock()
	if s.Version < b.latest.Version {
		b.mu.Unlock()
		return
	}
	b.latest = s
	b.pending = true
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// take returns the held snapshot if one arrived since the last take.
func (b *mailbox) take() (search.Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.pending {
		return search.Snapshot{}, false
	}
	b.pending = false
	return b.latest, true
}

// wait returns a command that blocks until the next snapshot arrives or
// the mailbox is closed.
func (b *mailbox) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-b.done:
				return nil
			case <-b.notify:
				if s, ok := b.take(); ok {
					return snapshotMsg{snap: s}
				}
			}
		}
	}
}

func (b *mailbox) close() {
	b.once.Do(func() { close(b.done) })
}
