package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/searchpick/internal/search"
)

func TestMailbox_KeepsNewest(t *testing.T) {
	b := newMailbox()
	b.put(search.Snapshot{Version: 2, Query: "b"})
	b.put(search.Snapshot{Version: 1, Query: "a"})
	b.put(search.Snapshot{Version: 3, Query: "c"})

	s, ok := b.take()
	require.True(t, ok)
	assert.Equal(t, uint64(3), s.Version)
	assert.Equal(t, "c", s.Query)

	_, ok = b.take()
	assert.False(t, ok, "a snapshot is delivered once")
}

func TestMailbox_WaitDelivers(t *testing.T) {
	b := newMailbox()
	got := make(chan any, 1)
	go func() { got <- b.wait()() }()

	b.put(search.Snapshot{Version: 5})
	select {
	case msg := <-got:
		require.IsType(t, snapshotMsg{}, msg)
		assert.Equal(t, uint64(5), msg.(snapshotMsg).snap.Version)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return")
	}
}

func TestMailbox_CloseReleasesWaiters(t *testing.T) {
	b := newMailbox()
	got := make(chan any, 1)
	go func() { got <- b.wait()() }()

	b.close()
	b.close() // idempotent
	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("wait did not return after close")
	}
}
