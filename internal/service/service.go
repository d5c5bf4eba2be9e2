package service

import (
	"context"

	"smartfarmer_console/internal/console"
	"smartfarmer_console/internal/models"
)

// Monitoring exposes the current dashboard view.
type Monitoring interface {
	View(ctx context.Context) (models.View, error)
}

// Pump exposes the manual irrigation override.
type Pump interface {
	Toggle(ctx context.Context) (models.View, error)
}

// Stream delivers every rendered view to a subscriber until it cancels.
type Stream interface {
	Subscribe() (<-chan models.View, func())
}

// Service aggregates what the HTTP layer needs.
type Service struct {
	Monitoring
	Pump
	Stream
}

// NewService wires the console loop and the display hub it renders into.
func NewService(c *console.Console, hub *Hub) *Service {
	return &Service{
		Monitoring: c,
		Pump:       c,
		Stream:     hub,
	}
}
