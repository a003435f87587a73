package service

import (
	"github.com/cockroachdb/errors"
	"github.com/kryo1337/valodiscordhub-sub000/internal/models"
)

// Error categories. Specific errors below are marked with one of these so
// callers can branch with errors.Is(err, ErrConflict) etc.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")
	ErrSanctioned       = errors.New("participant is sanctioned")
	ErrExternalService  = errors.New("external service failure")
	ErrScoreDiscrepancy = errors.New("score reports disagree")
)

func mark(msg string, category error) error {
	return errors.Mark(errors.New(msg), category)
}

// Queue errors
var (
	ErrUnknownBracket = mark("unknown bracket", ErrValidation)
	ErrAlreadyQueued  = mark("already in queue", ErrConflict)
	ErrQueueFull      = mark("queue is full", ErrConflict)
	ErrAlreadyInMatch = mark("already in an active match", ErrConflict)
	ErrNotQueued      = mark("not in queue", ErrNotFound)
)

// Match errors
var (
	ErrMatchNotFound   = mark("match not found", ErrNotFound)
	ErrPlayerNotFound  = mark("participant not found", ErrNotFound)
	ErrNotParticipant  = mark("not a participant of this match", ErrValidation)
	ErrWrongPhase      = mark("action not allowed in current phase", ErrConflict)
	ErrNotYourTurn     = mark("not your turn", ErrConflict)
	ErrNotCaptain      = mark("only a captain can do this", ErrConflict)
	ErrMatchClosed     = mark("match session is closed", ErrConflict)
	ErrSessionNotLive  = mark("match is not running on this instance", ErrConflict)
	ErrInvalidMethod   = mark("unknown captain selection method", ErrValidation)
	ErrInvalidPick     = mark("player cannot be picked", ErrValidation)
	ErrInvalidMap      = mark("map is not available", ErrValidation)
	ErrInvalidSide     = mark("side must be attack or defense", ErrValidation)
	ErrInvalidScore    = mark("invalid score report", ErrValidation)
	ErrScoreLocked     = mark("score submission is not open yet", ErrConflict)
	ErrAwaitingAdmin   = mark("match is awaiting admin resolution", ErrConflict)
	ErrAlreadyReported = mark("score already reported", ErrConflict)
	ErrTeamsIncomplete = mark("teams are not drafted yet", ErrConflict)
)

// Admin errors
var (
	ErrAlreadyCancelled = mark("match already cancelled", ErrConflict)
	ErrInvalidResult    = mark("result must be red or blue", ErrValidation)
	ErrInvalidDuration  = mark("timeout duration must be positive", ErrValidation)
	ErrLogNotFound      = mark("admin log entry not found", ErrNotFound)
	ErrMatchBusy        = mark("another admin action is in progress for this match", ErrConflict)
)

// external 영속성/네트워크 실패를 ErrExternalService로 분류
func external(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, op), ErrExternalService)
}

// sanctionError 제재 종류와 만료 시각을 담은 ErrSanctioned
func sanctionError(s *models.Sanction) error {
	if s.Kind == models.SanctionTimeout {
		return errors.Mark(errors.Newf("timed out until %s: %s", s.ExpiresAt().UTC().Format("2006-01-02T15:04:05Z"), s.Reason), ErrSanctioned)
	}
	return errors.Mark(errors.Newf("banned: %s", s.Reason), ErrSanctioned)
}
