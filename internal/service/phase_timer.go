package service

import (
	"sync"
	"time"

	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
)

// timerKey 타이머가 무장된 단계와 스텝 (픽/밴 순번)
type timerKey struct {
	Phase models.Phase
	Step  int
}

// PhaseTimer 단계 식별자에 묶인 취소 가능한 타이머
// 발화 시 무장 당시의 키를 넘기므로 수신 측이 현재 키와 비교해 지난 발화를 버릴 수 있음
type PhaseTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	key      timerKey
	deadline time.Time
	armed    bool
}

// Arm 기존 타이머를 멈추고 새 키로 무장
func (t *PhaseTimer) Arm(key timerKey, d time.Duration, fire func(timerKey)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.key = key
	t.deadline = time.Now().Add(d)
	t.armed = true
	t.timer = time.AfterFunc(d, func() { fire(key) })
}

// Cancel 단계 전환 시 항상 호출
func (t *PhaseTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.armed = false
}

// Current 현재 무장된 키와 마감 시각
func (t *PhaseTimer) Current() (timerKey, time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.key, t.deadline, t.armed
}

// Matches 발화한 키가 아직 유효한지
func (t *PhaseTimer) Matches(key timerKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed && t.key == key
}
