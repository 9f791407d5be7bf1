package dispatcher

import (
	"context"

	"github.com/garyjia/billed/internal/domain/event"
)

// Handler processes events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	// Target restricts the handler to events aimed at one element; empty matches all.
	Target      string
	Handler     Handler
	Description string
}

func (h HandlerInfo) matches(evt *event.Event) bool {
	return h.Target == "" || h.Target == evt.Target
}
