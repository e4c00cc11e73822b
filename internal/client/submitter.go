package client

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/noah-isme/reservation-api/internal/dto"
	"github.com/noah-isme/reservation-api/internal/reservation"
)

// MsgSubmitFailed is shown whenever the intake endpoint rejects or cannot take a submission.
const MsgSubmitFailed = "오류가 발생했습니다. 다시 시도해주세요."

var (
	// ErrSubmitInFlight is returned while an earlier submission has not finished.
	ErrSubmitInFlight = errors.New("submission already in progress")
	// ErrSubmitFailed matches every failed submission.
	ErrSubmitFailed = errors.New(MsgSubmitFailed)
)

// SubmitError carries the cause of a failed submission behind the generic message.
type SubmitError struct {
	Cause error
}

func (e *SubmitError) Error() string {
	return MsgSubmitFailed
}

// Unwrap exposes both ErrSubmitFailed and the underlying cause.
func (e *SubmitError) Unwrap() []error {
	return []error{ErrSubmitFailed, e.Cause}
}

type reserver interface {
	Reserve(ctx context.Context, req dto.CreateReservationRequest) error
}

// Submitter sends a completed draft to the intake endpoint, at most one at a time.
type Submitter struct {
	api      reserver
	inFlight atomic.Bool
	now      func() time.Time
}

// NewSubmitter constructs a Submitter backed by api.
func NewSubmitter(api reserver) *Submitter {
	return &Submitter{api: api, now: time.Now}
}

// Submitting reports whether a submission is outstanding.
func (s *Submitter) Submitting() bool {
	return s.inFlight.Load()
}

// Submit validates draft and posts it once. A *reservation.ValidationError is
// returned without touching the network.
func (s *Submitter) Submit(ctx context.Context, draft reservation.Draft) error {
	if err := draft.Validate(s.now()); err != nil {
		return err
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	if err := s.api.Reserve(ctx, draft.Payload()); err != nil {
		return &SubmitError{Cause: err}
	}
	return nil
}
