package router

import (
	"context"
	"fmt"

	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"
)

// MessengerRouter routes notifications to the messenger that accepts the target
type MessengerRouter struct {
	messengers []repository.MessengerRepository
	logger     logger.Logger
}

// NewMessengerRouter creates a new messenger router
func NewMessengerRouter(logger logger.Logger) *MessengerRouter {
	return &MessengerRouter{
		messengers: make([]repository.MessengerRepository, 0),
		logger:     logger,
	}
}

var _ repository.MessengerRepository = (*MessengerRouter)(nil)

// Register adds a messenger. Messengers are consulted in registration order.
func (r *MessengerRouter) Register(messenger repository.MessengerRepository) {
	r.messengers = append(r.messengers, messenger)
	r.logger.Info("Registered messenger", "messenger", fmt.Sprintf("%T", messenger))
}

// GetMessenger returns the first messenger accepting target, or nil
func (r *MessengerRouter) GetMessenger(target string) repository.MessengerRepository {
	for _, m := range r.messengers {
		if m.CanHandle(target) {
			return m
		}
	}
	return nil
}

// CanHandle reports whether any registered messenger accepts target
func (r *MessengerRouter) CanHandle(target string) bool {
	return r.GetMessenger(target) != nil
}

// Send delivers text through the matching messenger
func (r *MessengerRouter) Send(ctx context.Context, target, text string) error {
	m := r.GetMessenger(target)
	if m == nil {
		return fmt.Errorf("no messenger registered for target %q", target)
	}
	return m.Send(ctx, target, text)
}
