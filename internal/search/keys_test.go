package search_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CodePhantomAI/eranfixp-sub001/internal/search"
)

func TestHandleKey(t *testing.T) {
	a := newAggregator(newStubBackend())
	t.Cleanup(a.Stop)

	require.False(t, a.HandleKey(search.KeyEvent{Key: "k"}))
	require.False(t, a.IsOpen())

	require.True(t, a.HandleKey(search.KeyEvent{Key: "k", Ctrl: true}))
	require.True(t, a.IsOpen())

	a.SetSearchTerm("draft")
	require.True(t, a.HandleKey(search.KeyEvent{Key: "Escape"}))
	require.False(t, a.IsOpen())
	require.Equal(t, "", a.SearchTerm())

	require.False(t, a.HandleKey(search.KeyEvent{Key: "Escape"}))

	require.True(t, a.HandleKey(search.KeyEvent{Key: "K", Meta: true}))
	require.True(t, a.IsOpen())
}

func TestListenUntilTeardown(t *testing.T) {
	a := newAggregator(newStubBackend())
	t.Cleanup(a.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan search.KeyEvent)
	done := make(chan struct{})
	go func() {
		a.Listen(ctx, events)
		close(done)
	}()

	events <- search.KeyEvent{Key: "k", Meta: true}
	require.Eventually(t, a.IsOpen, time.Second, 2*time.Millisecond)

	events <- search.KeyEvent{Key: "Escape"}
	require.Eventually(t, func() bool { return !a.IsOpen() }, time.Second, 2*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}
