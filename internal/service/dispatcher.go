package service

import (
	"context"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Sink 이벤트 수신처 (웹소켓 허브, 이벤트 버스 등)
type Sink interface {
	Deliver(ctx context.Context, event models.Event) error
}

// Dispatcher 제한된 워커 풀로 이벤트를 싱크에 전달하는 Notifier
// 느린 싱크가 매치 세션 루프를 막지 않음
type Dispatcher struct {
	pool    *ants.Pool
	sinks   []Sink
	origin  string
	timeout time.Duration
	logger  *zap.Logger
}

func NewDispatcher(workers int, origin string, logger *zap.Logger, sinks ...Sink) (*Dispatcher, error) {
	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, external(err, "create notify pool")
	}
	return &Dispatcher{
		pool:    pool,
		sinks:   sinks,
		origin:  origin,
		timeout: 5 * time.Second,
		logger:  logger,
	}, nil
}

// Publish 발행 인스턴스 표시 후 각 싱크 전달을 풀에 제출
func (d *Dispatcher) Publish(_ context.Context, event models.Event) error {
	if event.Origin == "" {
		event.Origin = d.origin
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, sink := range d.sinks {
		if err := d.pool.Submit(func() {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()
			if err := sink.Deliver(ctx, event); err != nil {
				d.logger.Warn("Event delivery failed",
					zap.String("type", string(event.Type)),
					zap.String("matchId", event.MatchID),
					zap.Error(err))
			}
		}); err != nil {
			return external(err, "submit event")
		}
	}
	return nil
}

// Running 현재 실행 중인 전달 작업 수
func (d *Dispatcher) Running() int {
	return d.pool.Running()
}

// Close 대기 중인 전달을 최대 timeout 동안 기다린 뒤 풀 해제
func (d *Dispatcher) Close(timeout time.Duration) {
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		d.logger.Warn("Notify pool did not drain in time", zap.Error(err))
	}
}
