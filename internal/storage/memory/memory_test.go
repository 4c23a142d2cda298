package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/greencampus/ecopoints/internal/engine"
	"github.com/greencampus/ecopoints/internal/models"
)

func seedUser(t *testing.T, s *Store, login string, lifetime int64, createdAt time.Time) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := s.CreateUser(context.Background(), models.User{
		ID:             id,
		Login:          login,
		Role:           models.RoleStudent,
		LifetimePoints: lifetime,
		Balance:        lifetime,
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("create user %s: %v", login, err)
	}
	return id
}

// TestTopNOrdering: lifetime points descending, ties broken by signup
// time then id so the ranking is stable across calls.
func TestTopNOrdering(t *testing.T) {
	s := New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	third := seedUser(t, s, "third", 100, base.Add(time.Hour))
	second := seedUser(t, s, "second", 100, base)
	first := seedUser(t, s, "first", 300, base.Add(2*time.Hour))
	seedUser(t, s, "fourth", 50, base)

	board, err := s.TopN(context.Background(), 3)
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if len(board) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(board))
	}

	want := []uuid.UUID{first, second, third}
	for i, row := range board {
		if row.UserID != want[i] {
			t.Errorf("rank %d: got %s, want %s", i+1, row.UserID, want[i])
		}
		if row.Rank != i+1 {
			t.Errorf("expected rank %d, got %d", i+1, row.Rank)
		}
	}
}

// TestTopNTruncates caps the board at the population size.
func TestTopNTruncates(t *testing.T) {
	s := New()
	seedUser(t, s, "only", 10, time.Now())

	board, err := s.TopN(context.Background(), 10)
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	if len(board) != 1 {
		t.Fatalf("expected 1 row, got %d", len(board))
	}
}

// TestCommitDecisionCompareAndSwap: the second commit against the same
// submission fails with the already-recorded status and adds nothing.
func TestCommitDecisionCompareAndSwap(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := seedUser(t, s, "student", 0, time.Now())

	sub := models.Submission{
		ID:     uuid.New(),
		Kind:   models.KindChallengeProof,
		UserID: userID,
		Status: models.StatusPending,
	}
	if _, err := s.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	commit := engine.Commit{
		Kind:         sub.Kind,
		SubmissionID: sub.ID,
		UserID:       userID,
		Verdict:      models.StatusApproved,
		ActorID:      uuid.New(),
		DecidedAt:    time.Now(),
		Reward:       20,
		Reason:       "Challenge approved",
	}

	entryID, err := s.CommitDecision(ctx, commit)
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if entryID == 0 {
		t.Fatal("expected a ledger entry id")
	}

	_, err = s.CommitDecision(ctx, commit)
	var already *engine.AlreadyDecidedError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyDecidedError, got %v", err)
	}
	if already.Status != models.StatusApproved {
		t.Fatalf("expected approved in conflict, got %s", already.Status)
	}

	if entries := s.Entries(userID); len(entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(entries))
	}
	view, err := s.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if view.Balance != 20 || view.LifetimePoints != 20 {
		t.Fatalf("expected 20/20, got %d/%d", view.Balance, view.LifetimePoints)
	}
}

// TestCommitDecisionCouponAtCap: a commit against an exhausted coupon
// fails whole, leaving the submission pending and the ledger untouched.
func TestCommitDecisionCouponAtCap(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := seedUser(t, s, "student", 0, time.Now())

	fixed := int64(30)
	if err := s.CreateCoupon(ctx, models.Coupon{
		Code:           "CAPPED",
		PointsFixed:    &fixed,
		MaxRedemptions: 1,
		RedeemedCount:  1,
		IsActive:       true,
	}); err != nil {
		t.Fatalf("create coupon: %v", err)
	}

	sub := models.Submission{
		ID:         uuid.New(),
		Kind:       models.KindCouponRedemption,
		UserID:     userID,
		Status:     models.StatusPending,
		CouponCode: "CAPPED",
	}
	if _, err := s.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("create submission: %v", err)
	}

	_, err := s.CommitDecision(ctx, engine.Commit{
		Kind:         sub.Kind,
		SubmissionID: sub.ID,
		UserID:       userID,
		Verdict:      models.StatusApproved,
		ActorID:      uuid.New(),
		DecidedAt:    time.Now(),
		Reward:       fixed,
		Reason:       "Coupon redeemed",
		CouponCode:   "CAPPED",
	})
	if !errors.Is(err, engine.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}

	got, err := s.GetSubmission(ctx, sub.Kind, sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Fatalf("failed commit must leave the submission pending, got %s", got.Status)
	}
	if entries := s.Entries(userID); len(entries) != 0 {
		t.Fatalf("failed commit must not append entries, got %d", len(entries))
	}
	cp, err := s.GetCoupon(ctx, "CAPPED")
	if err != nil {
		t.Fatalf("get coupon: %v", err)
	}
	if cp.RedeemedCount != 1 {
		t.Fatalf("redeemed count must not move past the cap, got %d", cp.RedeemedCount)
	}
}

// TestOrderCreationDebits: the debit and the negative ledger entry land
// together, and an overdraw is refused with no side effects.
func TestOrderCreationDebits(t *testing.T) {
	s := New()
	ctx := context.Background()
	userID := seedUser(t, s, "buyer", 100, time.Now())

	sub := models.Submission{
		ID:               uuid.New(),
		Kind:             models.KindOrder,
		UserID:           userID,
		Status:           models.StatusPending,
		OrderTotalPoints: 60,
		CreatedAt:        time.Now(),
	}
	if _, err := s.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("create order: %v", err)
	}

	view, err := s.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if view.Balance != 40 || view.LifetimePoints != 100 {
		t.Fatalf("expected 40/100 after debit, got %d/%d", view.Balance, view.LifetimePoints)
	}

	entries := s.Entries(userID)
	if len(entries) != 1 || entries[0].Delta != -60 {
		t.Fatalf("expected one -60 entry, got %+v", entries)
	}

	over := sub
	over.ID = uuid.New()
	over.OrderTotalPoints = 1000
	if _, err := s.CreateSubmission(ctx, over); !errors.Is(err, engine.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := s.Entries(userID); len(got) != 1 {
		t.Fatalf("refused order must not append entries, got %d", len(got))
	}
}
