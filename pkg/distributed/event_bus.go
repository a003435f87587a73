package distributed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultEventChannel = "valohub:events"

// EventBus Redis Pub/Sub 기반 인스턴스 간 이벤트 전달
// 자기 인스턴스가 발행한 이벤트(origin 동일)는 수신 시 버림
type EventBus struct {
	client     redis.UniversalClient
	logger     *zap.Logger
	instanceID string
	channel    string

	mu        sync.Mutex
	cancelSub context.CancelFunc
	done      chan struct{}
}

// NewEventBus 이벤트 버스 생성
func NewEventBus(client redis.UniversalClient, instanceID string, logger *zap.Logger) *EventBus {
	return &EventBus{
		client:     client,
		logger:     logger,
		instanceID: instanceID,
		channel:    defaultEventChannel,
	}
}

// Origin 이 인스턴스의 ID
func (b *EventBus) Origin() string {
	return b.instanceID
}

// Deliver 이벤트 발행 (service.Sink)
func (b *EventBus) Deliver(ctx context.Context, event models.Event) error {
	if event.Origin == "" {
		event.Origin = b.instanceID
	}
	// 다른 인스턴스에서 들어온 이벤트를 다시 내보내지 않음
	if event.Origin != b.instanceID {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Start 구독을 시작하고 다른 인스턴스의 이벤트를 handler로 넘김
// 구독 확인까지 기다린 뒤 반환하며 수신은 백그라운드에서 계속됨
func (b *EventBus) Start(ctx context.Context, handler func(models.Event)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancelSub != nil {
		return nil
	}

	subCtx, cancel := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(subCtx, b.channel)
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		pubsub.Close()
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	b.cancelSub = cancel
	b.done = make(chan struct{})

	b.logger.Info("Event bus started",
		zap.String("instance_id", b.instanceID),
		zap.String("channel", b.channel))

	go func() {
		defer close(b.done)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				event, keep := b.decode(msg.Payload)
				if keep {
					handler(event)
				}
			case <-subCtx.Done():
				return
			}
		}
	}()
	return nil
}

// decode 메시지를 해석하고 자기 이벤트면 false
func (b *EventBus) decode(payload string) (models.Event, bool) {
	var event models.Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		b.logger.Error("Failed to unmarshal event", zap.Error(err))
		return event, false
	}
	if event.Origin == b.instanceID {
		return event, false
	}
	b.logger.Debug("Received remote event",
		zap.String("type", string(event.Type)),
		zap.String("origin", event.Origin))
	return event, true
}

// Stop 구독 중지
func (b *EventBus) Stop() {
	b.mu.Lock()
	cancel, done := b.cancelSub, b.done
	b.cancelSub = nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	b.logger.Info("Event bus stopped")
}
