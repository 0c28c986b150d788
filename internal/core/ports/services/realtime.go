package services

import "github.com/tradekeeper/trade_keeper_app/internal/core/domain"

// EventPublisher pushes entity-level change events to every device currently
// subscribed to the event's business. Publishing is fire-and-forget; delivery
// to disconnected devices is repaired by resume reconciliation, not queued.
type EventPublisher interface {
	Publish(event domain.ChangeEvent)
}

// NoopPublisher discards events. Used where no realtime hub is wired.
type NoopPublisher struct{}

func (NoopPublisher) Publish(domain.ChangeEvent) {}
