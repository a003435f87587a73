package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	delay  time.Duration
}

func (s *recordingSink) Deliver(_ context.Context, event models.Event) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestDispatcher_StampsOriginAndFansOut(t *testing.T) {
	hub := &recordingSink{}
	bus := &recordingSink{err: errors.New("redis down")}

	d, err := NewDispatcher(4, "instance-a", zap.NewNop(), hub, bus)
	require.NoError(t, err)

	require.NoError(t, d.Publish(context.Background(), models.Event{Type: models.EventQueueUpdate}))
	require.NoError(t, d.Publish(context.Background(), models.Event{Type: models.EventMatchUpdated, Origin: "instance-b"}))

	require.Eventually(t, func() bool { return hub.Len() == 2 && bus.Len() == 2 }, time.Second, 5*time.Millisecond)
	d.Close(time.Second)

	hub.mu.Lock()
	defer hub.mu.Unlock()
	origins := map[models.EventType]string{}
	for _, e := range hub.events {
		origins[e.Type] = e.Origin
		assert.False(t, e.Timestamp.IsZero())
	}
	assert.Equal(t, "instance-a", origins[models.EventQueueUpdate])
	// 다른 인스턴스에서 온 이벤트의 origin은 유지
	assert.Equal(t, "instance-b", origins[models.EventMatchUpdated])
}

func TestDispatcher_PublishDoesNotWaitForSlowSinks(t *testing.T) {
	slow := &recordingSink{delay: 200 * time.Millisecond}
	d, err := NewDispatcher(8, "instance-a", zap.NewNop(), slow)
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, d.Publish(context.Background(), models.Event{Type: models.EventMatchUpdated}))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	d.Close(2 * time.Second)
	assert.Equal(t, 5, slow.Len())
}
