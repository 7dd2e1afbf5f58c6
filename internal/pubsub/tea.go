package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd creates a Bubble Tea command that waits for one event on ch.
// The command yields nil once ctx is cancelled or ch is closed.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			return event
		}
	}
}

// ContinuousListener feeds one subscription into the Bubble Tea update
// loop. Call Listen again after handling each event; at most one Listen
// command may be outstanding.
type ContinuousListener[T any] struct {
	ctx     context.Context
	ch      <-chan Event[T]
	merge   func(prev, next Event[T]) Event[T]
	pending *Event[T]
}

// ListenerOption configures a ContinuousListener.
type ListenerOption[T any] func(*ContinuousListener[T])

// WithCoalesce folds events of the same type that are already queued when
// the listener wakes, so a burst reaches the model as one message.
func WithCoalesce[T any](merge func(prev, next Event[T]) Event[T]) ListenerOption[T] {
	return func(l *ContinuousListener[T]) { l.merge = merge }
}

// ListenerFromChannel wraps an existing subscription channel.
func ListenerFromChannel[T any](ctx context.Context, ch <-chan Event[T], opts ...ListenerOption[T]) *ContinuousListener[T] {
	l := &ContinuousListener[T]{ctx: ctx, ch: ch}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Listen returns a tea.Cmd that waits for the next event. It is nil on a
// nil listener.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	if l == nil {
		return nil
	}
	if l.merge == nil {
		return ListenCmd(l.ctx, l.ch)
	}
	return l.next
}

func (l *ContinuousListener[T]) next() tea.Msg {
	var event Event[T]
	if l.pending != nil {
		event, l.pending = *l.pending, nil
	} else {
		select {
		case <-l.ctx.Done():
			return nil
		case ev, ok := <-l.ch:
			if !ok {
				return nil
			}
			event = ev
		}
	}

	for {
		select {
		case ev, ok := <-l.ch:
			if !ok {
				return event
			}
			if ev.Type != event.Type {
				// Held for the next Listen.
				l.pending = &ev
				return event
			}
			event = l.merge(event, ev)
		default:
			return event
		}
	}
}
