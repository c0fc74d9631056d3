package search

import (
	"context"
	"strings"
)

// KeyEvent is a key press forwarded by the presentation shell.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

// HandleKey applies the global shortcuts: Ctrl+K or Cmd+K opens the dialog,
// Escape closes it. It reports whether the event was consumed.
func (a *Aggregator) HandleKey(ev KeyEvent) bool {
	switch {
	case strings.EqualFold(ev.Key, "k") && (ev.Ctrl || ev.Meta):
		a.Open()
		return true
	case ev.Key == "Escape":
		wasOpen := a.IsOpen()
		a.Close()
		return wasOpen
	}
	return false
}

// Listen binds the shortcuts to events until ctx is done or events is closed.
func (a *Aggregator) Listen(ctx context.Context, events <-chan KeyEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			a.HandleKey(ev)
		}
	}
}
