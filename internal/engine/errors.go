package engine

import (
	"errors"
	"fmt"

	"github.com/greencampus/ecopoints/internal/models"
)

var (
	// ErrNotFound: submission, user, or parent configuration row does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidVerdict: the verdict is not a terminal value for the
	// submission kind. Caller error, never retried.
	ErrInvalidVerdict = errors.New("invalid verdict")

	// ErrTooEarly: event attendance approved before the event ended.
	ErrTooEarly = errors.New("event has not ended yet")

	// ErrLimitReached: coupon redemption cap exhausted. Terminal.
	ErrLimitReached = errors.New("redemption limit reached")

	// ErrInsufficientBalance: order creation would overdraw the user.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidSubmission: malformed creation payload (unknown kind,
	// missing parent reference, non-positive order total).
	ErrInvalidSubmission = errors.New("invalid submission")

	// ErrBusy: transaction contention or timeout. Retryable with
	// backoff; the caller must not assume the decision was applied.
	ErrBusy = errors.New("storage busy")

	// ErrStorageFault: the store is unreachable or aborted the
	// transaction for infrastructure reasons. Retryable.
	ErrStorageFault = errors.New("storage fault")
)

// AlreadyDecidedError reports that the submission is already terminal,
// including the race where a concurrent decision won. It carries the
// existing status so callers can render the decision as already handled
// rather than as a failure.
type AlreadyDecidedError struct {
	Status models.Status
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("submission already decided: %s", e.Status)
}
