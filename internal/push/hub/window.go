package hub

import (
	"context"
	"sync"

	"github.com/jwalitptl/recruit-api/internal/push"
)

// Window is one open browser window attached over an event stream.
type Window struct {
	id         string
	controlled bool
	events     chan Event

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

var _ push.WindowHandle = (*Window)(nil)

func (w *Window) ID() string { return w.id }

// Events is drained by the stream writer.
func (w *Window) Events() <-chan Event { return w.events }

// Done is closed when the window is unregistered.
func (w *Window) Done() <-chan struct{} { return w.done }

func (w *Window) PostMessage(ctx context.Context, msg push.InAppMessage) error {
	return w.send(Event{Name: EventMessage, Data: msg})
}

func (w *Window) NavigateAndFocus(ctx context.Context, url string) error {
	return w.send(Event{Name: EventNavigate, Data: NavigateEvent{URL: url, Focus: true}})
}

func (w *Window) send(ev Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return push.ErrWindowClosed
	}
	select {
	case w.events <- ev:
		return nil
	default:
		return ErrWindowBusy
	}
}

func (w *Window) close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.done)
	})
}
