// Package events provides the internal event bus and the typed backend
// push-event union consumed by the notification bridge.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the types of events that can be emitted on the bus.
type EventType string

const (
	EventStoreChanged EventType = "store_changed"
	EventNotification EventType = "notification"
	EventSendStarted  EventType = "send_started"
	EventSendProgress EventType = "send_progress"
	EventSendFinished EventType = "send_finished"
)

// Buffer limits for subscriber channels.
const (
	defaultBufferSize = 256
	maxBufferSize     = 4096
)

// Event is the base interface for all bus events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// StoreChangedEvent signals that the shared store mutated; subscribers
// re-read the snapshot they care about.
type StoreChangedEvent struct {
	BaseEvent
	Field string
}

// NotificationEvent is a user-visible notification.
type NotificationEvent struct {
	BaseEvent
	Title string
	Body  string
}

// SendStartedEvent signals that an outbound send began.
type SendStartedEvent struct {
	BaseEvent
	SessionID string
	ItemCount int
}

// SendProgressEvent carries per-send aggregate progress.
type SendProgressEvent struct {
	BaseEvent
	SessionID      string
	TotalFiles     int
	CompletedCount int
}

// SendOutcome classifies how a send ended.
type SendOutcome string

const (
	OutcomeSuccess   SendOutcome = "success"
	OutcomePartial   SendOutcome = "partial"
	OutcomeFailed    SendOutcome = "failed"
	OutcomeCancelled SendOutcome = "cancelled"
)

// SendFinishedEvent signals that an outbound send reached a terminal state.
type SendFinishedEvent struct {
	BaseEvent
	SessionID    string
	Outcome      SendOutcome
	SuccessCount int
	FailedCount  int
}

// Bus manages event subscriptions and publishing.
type Bus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewBus creates a new event bus with the specified buffer size per
// subscriber channel.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if bufferSize > maxBufferSize {
		bufferSize = maxBufferSize
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events.
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Publishing never blocks; events
// are dropped when a subscriber's buffer is full.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}

	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
func (b *Bus) Unsubscribe(eventType EventType, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	subscribers := b.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			b.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types.
func (b *Bus) UnsubscribeAll(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for eventType, subscribers := range b.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				b.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range b.all {
		if subCh == ch {
			b.all[i] = b.all[len(b.all)-1]
			b.all = b.all[:len(b.all)-1]
			break
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
}

// DroppedEventCount returns the total number of events dropped due to full
// subscriber buffers.
func (b *Bus) DroppedEventCount() int64 {
	return b.droppedEvents.Load()
}

// PublishNotification is a convenience method for publishing a
// NotificationEvent.
func (b *Bus) PublishNotification(title, body string) {
	b.Publish(&NotificationEvent{
		BaseEvent: BaseEvent{EventType: EventNotification, Time: time.Now()},
		Title:     title,
		Body:      body,
	})
}

// PublishStoreChanged is a convenience method for publishing a
// StoreChangedEvent.
func (b *Bus) PublishStoreChanged(field string) {
	b.Publish(&StoreChangedEvent{
		BaseEvent: BaseEvent{EventType: EventStoreChanged, Time: time.Now()},
		Field:     field,
	})
}
