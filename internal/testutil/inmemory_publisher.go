package testutil

import (
	"context"
	"sync"

	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/notification/publisher"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/samber/lo"
)

var _ publisher.Publisher = (*InMemoryNotificationPublisher)(nil)

// InMemoryNotificationPublisher records published notifications instead of sending them
type InMemoryNotificationPublisher struct {
	mu     sync.RWMutex
	events []*types.NotificationEvent
	// Fail makes every Publish call fail like an unreachable broker
	Fail bool
}

func NewInMemoryNotificationPublisher() *InMemoryNotificationPublisher {
	return &InMemoryNotificationPublisher{}
}

func (p *InMemoryNotificationPublisher) Publish(_ context.Context, event *types.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Fail {
		return ierr.NewError("broker unavailable").
			WithHint("Failed to publish notification").
			Mark(ierr.ErrHTTPClient)
	}

	e := *event
	p.events = append(p.events, &e)
	return nil
}

func (p *InMemoryNotificationPublisher) Close() error {
	return nil
}

// Events returns the published events in publish order
func (p *InMemoryNotificationPublisher) Events() []*types.NotificationEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*types.NotificationEvent(nil), p.events...)
}

// EventsOfType returns the published events of one type
func (p *InMemoryNotificationPublisher) EventsOfType(t types.NotificationType) []*types.NotificationEvent {
	return lo.Filter(p.Events(), func(e *types.NotificationEvent, _ int) bool {
		return e.Type == t
	})
}

func (p *InMemoryNotificationPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.Fail = false
}
