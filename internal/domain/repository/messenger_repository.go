package repository

import (
	"context"
)

// MessengerRepository defines the interface for outbound notification transports
type MessengerRepository interface {
	// CanHandle reports whether target is addressed to this transport.
	CanHandle(target string) bool
	// Send delivers a Markdown text body (bold, links) to target.
	Send(ctx context.Context, target, text string) error
}
