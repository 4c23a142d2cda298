// Package memory provides a mutex-guarded in-memory engine.Store with
// the same conditional-update semantics as the Postgres store. It backs
// the engine and handler tests, including the concurrency ones.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greencampus/ecopoints/internal/engine"
	"github.com/greencampus/ecopoints/internal/models"
)

type subKey struct {
	kind models.SubmissionKind
	id   uuid.UUID
}

type Store struct {
	mu sync.Mutex

	users       map[uuid.UUID]*models.User
	byLogin     map[string]uuid.UUID
	submissions map[subKey]*models.Submission
	ledger      []models.LedgerEntry
	challenges  map[uuid.UUID]models.Challenge
	events      map[uuid.UUID]models.Event
	coupons     map[string]*models.Coupon

	nextEntryID int64
}

func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]*models.User),
		byLogin:     make(map[string]uuid.UUID),
		submissions: make(map[subKey]*models.Submission),
		challenges:  make(map[uuid.UUID]models.Challenge),
		events:      make(map[uuid.UUID]models.Event),
		coupons:     make(map[string]*models.Coupon),
	}
}

var _ engine.Store = (*Store)(nil)

func (s *Store) CreateUser(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byLogin[user.Login]; exists {
		return engine.ErrStorageFault
	}
	u := user
	s.users[u.ID] = &u
	s.byLogin[u.Login] = u.ID
	return nil
}

func (s *Store) GetUserByLogin(_ context.Context, login string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byLogin[login]
	if !ok {
		return models.User{}, engine.ErrNotFound
	}
	return *s.users[id], nil
}

func (s *Store) GetBalance(_ context.Context, userID uuid.UUID) (models.BalanceView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return models.BalanceView{}, engine.ErrNotFound
	}
	return models.BalanceView{Balance: u.Balance, LifetimePoints: u.LifetimePoints}, nil
}

func (s *Store) TopN(_ context.Context, n int) ([]models.LeaderboardRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.LifetimePoints != b.LifetimePoints {
			return a.LifetimePoints > b.LifetimePoints
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	if n > len(users) {
		n = len(users)
	}
	board := make([]models.LeaderboardRow, 0, n)
	for i := 0; i < n; i++ {
		board = append(board, models.LeaderboardRow{
			Rank:           i + 1,
			UserID:         users[i].ID,
			FullName:       users[i].FullName,
			LifetimePoints: users[i].LifetimePoints,
		})
	}
	return board, nil
}

func (s *Store) CreateSubmission(_ context.Context, sub models.Submission) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[sub.UserID]
	if !ok {
		return models.Submission{}, engine.ErrNotFound
	}

	if sub.Kind == models.KindOrder {
		if u.Balance < sub.OrderTotalPoints {
			return models.Submission{}, engine.ErrInsufficientBalance
		}
		u.Balance -= sub.OrderTotalPoints
		s.appendEntryLocked(models.LedgerEntry{
			UserID:         sub.UserID,
			SubmissionKind: sub.Kind,
			SubmissionID:   &sub.ID,
			Delta:          -sub.OrderTotalPoints,
			Reason:         "Order placed",
			CreatedAt:      sub.CreatedAt,
		})
	}

	stored := sub
	s.submissions[subKey{sub.Kind, sub.ID}] = &stored
	return sub, nil
}

func (s *Store) GetSubmission(_ context.Context, kind models.SubmissionKind, id uuid.UUID) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[subKey{kind, id}]
	if !ok {
		return models.Submission{}, engine.ErrNotFound
	}
	return *sub, nil
}

func (s *Store) ListPending(_ context.Context, kind models.SubmissionKind) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var subs []models.Submission
	for key, sub := range s.submissions {
		if key.kind == kind && sub.Status == models.StatusPending {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (s *Store) CreateChallenge(_ context.Context, ch models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.ID] = ch
	return nil
}

func (s *Store) GetChallenge(_ context.Context, id uuid.UUID) (models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[id]
	if !ok {
		return models.Challenge{}, engine.ErrNotFound
	}
	return ch, nil
}

func (s *Store) CreateEvent(_ context.Context, ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[ev.ID] = ev
	return nil
}

func (s *Store) GetEvent(_ context.Context, id uuid.UUID) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.events[id]
	if !ok {
		return models.Event{}, engine.ErrNotFound
	}
	return ev, nil
}

func (s *Store) CreateCoupon(_ context.Context, cp models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cp
	s.coupons[c.Code] = &c
	return nil
}

func (s *Store) GetCoupon(_ context.Context, code string) (models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.coupons[code]
	if !ok {
		return models.Coupon{}, engine.ErrNotFound
	}
	return *cp, nil
}

// CommitDecision mirrors the Postgres transaction: the status flip is a
// compare-and-swap on pending, the ledger append is unique per
// submission reference, and the coupon increment is conditional on the
// cap. Everything happens under one lock, so a failed precondition
// leaves no partial state.
func (s *Store) CommitDecision(_ context.Context, commit engine.Commit) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[subKey{commit.Kind, commit.SubmissionID}]
	if !ok {
		return 0, engine.ErrNotFound
	}
	if sub.Status != models.StatusPending {
		return 0, &engine.AlreadyDecidedError{Status: sub.Status}
	}

	if commit.Verdict == models.StatusApproved && commit.CouponCode != "" {
		cp, ok := s.coupons[commit.CouponCode]
		if !ok {
			return 0, engine.ErrNotFound
		}
		if cp.RedeemedCount >= cp.MaxRedemptions {
			return 0, engine.ErrLimitReached
		}
		cp.RedeemedCount++
	}

	decidedAt := commit.DecidedAt
	actorID := commit.ActorID
	sub.Status = commit.Verdict
	sub.DecidedAt = &decidedAt
	sub.DecidedBy = &actorID

	var entryID int64
	if commit.Verdict == models.StatusApproved && commit.Reward > 0 {
		subID := commit.SubmissionID
		entryID = s.appendEntryLocked(models.LedgerEntry{
			UserID:         commit.UserID,
			SubmissionKind: commit.Kind,
			SubmissionID:   &subID,
			Delta:          commit.Reward,
			Reason:         commit.Reason,
			CreatedAt:      decidedAt,
		})
		u := s.users[commit.UserID]
		u.Balance += commit.Reward
		u.LifetimePoints += commit.Reward
	}

	return entryID, nil
}

func (s *Store) appendEntryLocked(entry models.LedgerEntry) int64 {
	s.nextEntryID++
	entry.ID = s.nextEntryID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.ledger = append(s.ledger, entry)
	return entry.ID
}

// Entries snapshots the ledger for a user, used by tests to assert the
// ledger-balance equivalence.
func (s *Store) Entries(userID uuid.UUID) []models.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.LedgerEntry
	for _, e := range s.ledger {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	return entries
}
