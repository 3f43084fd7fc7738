package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Relay carries controller events to a program in the order they were
// produced. Frames are dropped while the buffer is full; other messages
// wait for room.
type Relay struct {
	msgs chan tea.Msg
	done chan struct{}
}

func NewRelay(buffer int) *Relay {
	return &Relay{msgs: make(chan tea.Msg, buffer), done: make(chan struct{})}
}

// Send is safe to call from controller hooks. After Run returns it
// discards msg.
func (r *Relay) Send(msg tea.Msg) {
	if _, ok := msg.(FrameMsg); ok {
		select {
		case r.msgs <- msg:
		default:
		}
		return
	}
	select {
	case r.msgs <- msg:
	case <-r.done:
	}
}

// Run delivers messages until ctx ends. Call it once.
func (r *Relay) Run(ctx context.Context, deliver func(tea.Msg)) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.msgs:
			deliver(msg)
		}
	}
}
