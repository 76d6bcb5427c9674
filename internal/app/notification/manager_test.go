package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorane/bgmscope/internal/app/tracker"
	"github.com/sorane/bgmscope/internal/domain/bgm"
)

// recordingStream collects received events.
type recordingStream struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingStream) Send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingStream) received() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// stallingStream blocks until released.
type stallingStream struct {
	release chan struct{}
}

func (s *stallingStream) Send(Event) error {
	<-s.release
	return nil
}

func testTransition(song uint16, priority int) tracker.Transition {
	return tracker.Transition{Current: bgm.Playing{Song: song, Priority: priority}}
}

func TestManager_BroadcastReachesAllSubscribers(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)

	m.Broadcast(testTransition(77, 3))

	require.Len(t, a.received(), 1)
	require.Len(t, b.received(), 1)
	assert.Equal(t, uint16(77), a.received()[0].Transition.Current.Song)
}

func TestManager_SequenceNumbersIncrease(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	m.Subscribe(s)

	m.Broadcast(testTransition(1, 0))
	m.Broadcast(testTransition(2, 0))
	m.Broadcast(testTransition(3, 0))

	got := s.received()
	require.Len(t, got, 3)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
	assert.Equal(t, uint64(3), got[2].SequenceNo)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)
	require.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)

	assert.Equal(t, 0, m.SubscriberCount())
	m.Broadcast(testTransition(1, 0))
	assert.Empty(t, s.received())
}

func TestManager_StalledStreamDoesNotBlockOthers(t *testing.T) {
	m := NewManager()
	stalled := &stallingStream{release: make(chan struct{})}
	healthy := &recordingStream{}
	m.Subscribe(stalled)
	m.Subscribe(healthy)

	start := time.Now()
	m.Broadcast(testTransition(5, 1))
	elapsed := time.Since(start)

	close(stalled.release)

	require.Len(t, healthy.received(), 1)
	assert.Less(t, elapsed, 5*time.Second, "broadcast must give up on a stalled stream")
}

func TestManager_Close(t *testing.T) {
	m := NewManager()
	m.Subscribe(&recordingStream{})
	m.Subscribe(&recordingStream{})

	m.Close()

	assert.Equal(t, 0, m.SubscriberCount())
}
