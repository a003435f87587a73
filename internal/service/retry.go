package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cockroachdb/errors"
)

const readAttempts = 3

// retryable 일시적 저장소 실패만 재시도. 취소/만료, 없음, 검증 실패는 즉시 반환
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation):
		return false
	}
	return true
}

// readWithRetry 저장소 읽기를 제한된 지수 백오프로 재시도
// 쓰기는 재시도하지 않음 (레이팅 중복 반영 방지)
func readWithRetry[T any](ctx context.Context, op string, read func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	value, err := backoff.Retry(ctx, func() (T, error) {
		v, err := read(ctx)
		if err != nil && !retryable(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(readAttempts),
	)
	if err != nil {
		var zero T
		if !retryable(err) {
			return zero, errors.Wrap(err, op)
		}
		return zero, external(err, op)
	}
	return value, nil
}
