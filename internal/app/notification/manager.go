// Package notification provides fan-out of song transitions to presentation
// streams.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sorane/bgmscope/internal/app/tracker"
)

// Event is one published transition, stamped with a sequence number so that
// clients can detect dropped frames.
type Event struct {
	SequenceNo uint64
	Transition tracker.Transition
}

// Stream receives events for one subscriber.
type Stream interface {
	Send(Event) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{id: id, stream: stream}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast sends a transition to all subscribers. Each stream send runs in
// its own goroutine with a timeout so one stalled client cannot hold up the
// rest; Broadcast waits for the batch, keeping delivery ordered per stream.
func (m *Manager) Broadcast(tr tracker.Transition) {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	ev := Event{SequenceNo: m.sequenceNo, Transition: tr}
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding the lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(ev)
			}()

			select {
			case <-done:
				// Send errors are handled by the stream owner through its own
				// read/write failure path.
			case <-ctx.Done():
				// Timeout - continue to next subscriber
			}
		}(sub)
	}
	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
