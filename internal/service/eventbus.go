package service

import (
	"sync"

	"github.com/calibancode/gifforge/internal/domain"
	"github.com/calibancode/gifforge/internal/port"
)

const (
	EventLog      = "log"
	EventProgress = "progress"
	EventState    = "state"
)

// Event is one job update fanned out to subscribers: a log line, a progress
// tick, or a state change.
type Event struct {
	Type    string          `json:"type"`
	Line    *domain.LogLine `json:"line,omitempty"`
	Percent int             `json:"percent,omitempty"`
	Message string          `json:"message,omitempty"`
	State   domain.JobState `json:"state,omitempty"`
	Cause   string          `json:"cause,omitempty"`
}

// EventBus fans job events out to per-job subscribers. Slow subscribers drop
// events rather than blocking the runner; log ordering is preserved for
// subscribers that keep up.
type EventBus struct {
	subscribers map[string][]chan Event
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

func (eb *EventBus) Subscribe(jobID string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 256)
	eb.subscribers[jobID] = append(eb.subscribers[jobID], ch)
	return ch
}

func (eb *EventBus) Unsubscribe(jobID string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[jobID]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[jobID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}

	if len(eb.subscribers[jobID]) == 0 {
		delete(eb.subscribers, jobID)
	}
}

func (eb *EventBus) Publish(jobID string, event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[jobID] {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is slow
		}
	}
}

// Log implements port.LogSink.
func (eb *EventBus) Log(jobID string, line domain.LogLine) {
	eb.Publish(jobID, Event{Type: EventLog, Line: &line})
}

// Progress implements port.LogSink.
func (eb *EventBus) Progress(jobID string, percent int, message string) {
	eb.Publish(jobID, Event{Type: EventProgress, Percent: percent, Message: message})
}

// PublishState announces a job state change.
func (eb *EventBus) PublishState(jobID string, state domain.JobState, cause string) {
	eb.Publish(jobID, Event{Type: EventState, State: state, Cause: cause})
}

var _ port.LogSink = (*EventBus)(nil)
