// Package engine turns a pending submission into a terminal decision and
// translates an approval, exactly once, into an immutable ledger credit.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/models"
)

type Engine struct {
	store Store

	// now and randInt are injectable for deterministic tests.
	now     func() time.Time
	randInt func(n int64) int64
}

type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRandInt overrides the source used to draw ranged coupon rewards.
func WithRandInt(randInt func(n int64) int64) Option {
	return func(e *Engine) { e.randInt = randInt }
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		now:     time.Now,
		randInt: rand.Int63n,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DecisionResult is the committed outcome of a Decide call.
type DecisionResult struct {
	Submission    models.Submission
	LedgerEntryID int64
	Reward        int64
	CO2SavedKg    float64
}

// Decide validates the transition, computes the reward, and commits the
// status change, ledger entry, balance update, and coupon increment as
// one atomic unit. Two concurrent calls on the same submission: exactly
// one commits, the other gets AlreadyDecidedError. A failed call leaves
// no state change behind.
func (e *Engine) Decide(ctx context.Context, kind models.SubmissionKind, submissionID uuid.UUID, verdict string, actorID uuid.UUID) (DecisionResult, error) {
	status, ok := models.ParseVerdict(kind, verdict)
	if !ok {
		return DecisionResult{}, ErrInvalidVerdict
	}

	sub, err := e.store.GetSubmission(ctx, kind, submissionID)
	if err != nil {
		return DecisionResult{}, err
	}
	if sub.Status != models.StatusPending {
		return DecisionResult{}, &AlreadyDecidedError{Status: sub.Status}
	}

	dec, err := e.buildDecidable(ctx, sub)
	if err != nil {
		return DecisionResult{}, err
	}

	commit := Commit{
		Kind:         kind,
		SubmissionID: sub.ID,
		UserID:       sub.UserID,
		Verdict:      status,
		ActorID:      actorID,
		DecidedAt:    e.now(),
	}

	if status == models.StatusApproved {
		if err := dec.eligible(e.now()); err != nil {
			return DecisionResult{}, err
		}
		commit.Reward = dec.reward(e.randInt)
		commit.Reason = dec.reason()
		commit.CouponCode = dec.couponCode()
	}

	entryID, err := e.store.CommitDecision(ctx, commit)
	if err != nil {
		return DecisionResult{}, err
	}

	sub.Status = status
	sub.DecidedAt = &commit.DecidedAt
	sub.DecidedBy = &commit.ActorID

	result := DecisionResult{
		Submission:    sub,
		LedgerEntryID: entryID,
	}
	if status == models.StatusApproved {
		result.Reward = commit.Reward
		if kind == models.KindPlasticLog {
			result.CO2SavedKg = models.CO2SavedKg(sub.WeightKg, sub.PlasticType)
		}
	}

	logger.Log.Info("Submission decided",
		zap.String("kind", string(kind)),
		zap.String("submission_id", submissionID.String()),
		zap.String("status", string(status)),
		zap.String("decided_by", actorID.String()),
		zap.Int64("reward", result.Reward),
	)

	return result, nil
}

// CreateSubmission registers a new pending item. Orders additionally
// debit the user's balance at creation; the later decision only flips
// fulfillment status.
func (e *Engine) CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if !sub.Kind.Valid() {
		return models.Submission{}, ErrInvalidSubmission
	}
	switch sub.Kind {
	case models.KindOrder:
		if sub.OrderTotalPoints <= 0 {
			return models.Submission{}, ErrInvalidSubmission
		}
	case models.KindChallengeProof:
		if sub.ChallengeID == nil {
			return models.Submission{}, ErrInvalidSubmission
		}
	case models.KindPlasticLog:
		if sub.WeightKg <= 0 {
			return models.Submission{}, ErrInvalidSubmission
		}
	case models.KindEventAttendance:
		if sub.EventID == nil {
			return models.Submission{}, ErrInvalidSubmission
		}
	case models.KindCouponRedemption:
		if sub.CouponCode == "" {
			return models.Submission{}, ErrInvalidSubmission
		}
	}

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.Status = models.StatusPending
	sub.CreatedAt = e.now()
	sub.DecidedAt = nil
	sub.DecidedBy = nil

	created, err := e.store.CreateSubmission(ctx, sub)
	if err != nil {
		return models.Submission{}, err
	}

	logger.Log.Info("Submission created",
		zap.String("kind", string(created.Kind)),
		zap.String("submission_id", created.ID.String()),
		zap.String("user_id", created.UserID.String()),
	)

	return created, nil
}

// IsRetryable reports whether the caller may retry the same call.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBusy) || errors.Is(err, ErrStorageFault)
}
