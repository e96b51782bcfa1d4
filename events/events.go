package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeNotification      EventType = "notification"
	EventTypeMutationCompleted EventType = "mutation_completed"
	EventTypeCacheInvalidated  EventType = "cache_invalidated"
	EventTypeReferralChecked   EventType = "referral_checked"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// NotificationLevel distinguishes success toasts from error toasts
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// NotificationEvent is a transient user-visible message (a toast)
type NotificationEvent struct {
	SessionID string
	Level     NotificationLevel
	Message   string
}

func (e NotificationEvent) Type() EventType {
	return EventTypeNotification
}

// MutationCompletedEvent is emitted after a mutation ran and its dependent
// cache keys were invalidated
type MutationCompletedEvent struct {
	SessionID   string
	Operation   string
	Success     bool
	Invalidated []string
}

func (e MutationCompletedEvent) Type() EventType {
	return EventTypeMutationCompleted
}

// CacheInvalidatedEvent reports keys dropped from a session cache
type CacheInvalidatedEvent struct {
	SessionID string
	Keys      []string
}

func (e CacheInvalidatedEvent) Type() EventType {
	return EventTypeCacheInvalidated
}

// ReferralCheckedEvent records the outcome of a referral binding attempt
type ReferralCheckedEvent struct {
	TelegramID   int64
	ReferralLink string
	Exists       bool
	Message      string
}

func (e ReferralCheckedEvent) Type() EventType {
	return EventTypeReferralChecked
}

// Publisher is anything events can be published to
type Publisher interface {
	Publish(event Event)
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish emits with a background context so Bus satisfies Publisher
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Batch holds events raised while a mutation is running and releases them
// to the underlying publisher once the mutation has settled.
type Batch struct {
	real    Publisher
	pending []Event
}

// NewBatch creates a batch in front of real
func NewBatch(real Publisher) *Batch {
	return &Batch{real: real}
}

func (b *Batch) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush releases every pending event in order
func (b *Batch) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing batched events")
	for _, ev := range b.pending {
		if b.real != nil {
			b.real.Publish(ev)
		}
	}
	b.pending = nil
}

// Discard drops pending events
func (b *Batch) Discard() {
	b.pending = nil
}

// LogSubscriber writes every event of the given types to the log
func LogSubscriber(bus *Bus, types ...EventType) {
	for _, t := range types {
		bus.Subscribe(t, func(ctx context.Context, event Event) {
			entry := log.WithField("eventType", event.Type())
			switch e := event.(type) {
			case NotificationEvent:
				entry.WithFields(log.Fields{
					"session": shortSession(e.SessionID),
					"level":   e.Level,
				}).Info(e.Message)
			case MutationCompletedEvent:
				entry.WithFields(log.Fields{
					"session":     shortSession(e.SessionID),
					"operation":   e.Operation,
					"success":     e.Success,
					"invalidated": e.Invalidated,
				}).Info("Mutation completed")
			case ReferralCheckedEvent:
				entry.WithFields(log.Fields{
					"telegram_id":   e.TelegramID,
					"referral_link": e.ReferralLink,
					"exists":        e.Exists,
				}).Info(e.Message)
			default:
				entry.Debug("Event")
			}
		})
	}
}

// shortSession keeps session tokens out of the logs
func shortSession(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[:6] + "…"
}
