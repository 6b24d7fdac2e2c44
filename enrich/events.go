package enrich

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType is the type of an enrichment event.
type EventType string

const (
	EventStepSucceeded EventType = "enrich:step:success"
	EventStepFailed    EventType = "enrich:step:failed"
)

// Step names one enrichment step.
type Step string

const (
	StepCreator  Step = "creator"
	StepOwner    Step = "owner"
	StepMetadata Step = "metadata"
)

// Event reports the outcome of one step on one NFT.
type Event struct {
	Type      EventType `json:"type"`
	Step      Step      `json:"step"`
	NftID     string    `json:"nftId"`
	Timestamp int64     `json:"timestamp"`       // Unix milliseconds.
	Duration  int64     `json:"duration"`        // Milliseconds.
	Error     *string   `json:"error,omitempty"` // Set on failure.
}

// EventCallback receives events.
type EventCallback func(ctx context.Context, event Event) error

type subscription struct {
	event       EventType
	unsubscribe func()
}

type subscriptions struct {
	mu   sync.Mutex
	subs map[string]subscription
}

// Subscribe registers callback for events of type t and returns an id for
// Unsubscribe.
func (e *Enricher) Subscribe(t EventType, callback EventCallback) string {
	e.subs.mu.Lock()
	defer e.subs.mu.Unlock()

	unsubscribe := e.bus.Subscribe(string(t), callback)
	id := uuid.New().String()
	e.subs.subs[id] = subscription{event: t, unsubscribe: unsubscribe}
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (e *Enricher) Unsubscribe(id string) {
	e.subs.mu.Lock()
	defer e.subs.mu.Unlock()

	if sub, ok := e.subs.subs[id]; ok {
		sub.unsubscribe()
		delete(e.subs.subs, id)
	}
}

func (e *Enricher) emit(t EventType, step Step, nftID string, start time.Time, err error) {
	event := Event{
		Type:      t,
		Step:      step,
		NftID:     nftID,
		Timestamp: time.Now().UnixMilli(),
		Duration:  time.Since(start).Milliseconds(),
	}
	if err != nil {
		msg := err.Error()
		event.Error = &msg
	}
	e.bus.Emit(string(t), event)
}
