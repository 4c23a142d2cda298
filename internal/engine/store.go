package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/greencampus/ecopoints/internal/models"
)

// Store is the transactional registry and ledger the engine commits
// against. Implementations must make CommitDecision atomic: the status
// flip, the ledger append, the balance update, and the conditional
// coupon increment either all happen or none do.
type Store interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (models.BalanceView, error)
	TopN(ctx context.Context, n int) ([]models.LeaderboardRow, error)

	CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error)
	GetSubmission(ctx context.Context, kind models.SubmissionKind, id uuid.UUID) (models.Submission, error)
	ListPending(ctx context.Context, kind models.SubmissionKind) ([]models.Submission, error)

	CreateChallenge(ctx context.Context, ch models.Challenge) error
	GetChallenge(ctx context.Context, id uuid.UUID) (models.Challenge, error)
	CreateEvent(ctx context.Context, ev models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (models.Event, error)
	CreateCoupon(ctx context.Context, cp models.Coupon) error
	GetCoupon(ctx context.Context, code string) (models.Coupon, error)

	CommitDecision(ctx context.Context, commit Commit) (int64, error)
}

// Commit is the single atomic unit produced by a decision. CouponCode,
// when set, requires the store to increment that coupon's redeemed
// count only while it is below the cap, aborting the whole commit with
// ErrLimitReached otherwise.
type Commit struct {
	Kind         models.SubmissionKind
	SubmissionID uuid.UUID
	UserID       uuid.UUID
	Verdict      models.Status
	ActorID      uuid.UUID
	DecidedAt    time.Time
	Reward       int64
	Reason       string
	CouponCode   string
}
