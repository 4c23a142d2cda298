package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/greencampus/ecopoints/cmd/config"
	"github.com/greencampus/ecopoints/internal/engine"
	"github.com/greencampus/ecopoints/internal/logger"
	"github.com/greencampus/ecopoints/internal/models"
)

var (
	DB                     *sql.DB
	ErrConnectionFailed    = errors.New("db connection failed")
	ErrCreatingTableFailed = errors.New("creating table failed")
)

// Store is the Postgres-backed submission registry, ledger, and
// aggregate views. It satisfies engine.Store.
type Store struct{}

func Init() (*Store, error) {
	if config.DatabaseURI == "" {
		return nil, ErrConnectionFailed
	}

	db, err := sql.Open("pgx", config.DatabaseURI)
	if err != nil {
		logger.Log.Error("Error opening database connection", zap.Error(err))
		return nil, ErrConnectionFailed
	}
	DB = db

	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY NOT NULL,
			login VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(20) NOT NULL DEFAULT 'student',
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			balance BIGINT NOT NULL DEFAULT 0,
			lifetime_points BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id UUID PRIMARY KEY NOT NULL,
			kind VARCHAR(32) NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id),
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			decided_at TIMESTAMP,
			decided_by UUID,
			challenge_id UUID,
			weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
			plastic_type VARCHAR(20) NOT NULL DEFAULT '',
			event_id UUID,
			coupon_code VARCHAR(64) NOT NULL DEFAULT '',
			order_total_points BIGINT NOT NULL DEFAULT 0,
			proof_url TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS ledger (
			id BIGSERIAL PRIMARY KEY NOT NULL,
			user_id UUID NOT NULL REFERENCES users(id),
			submission_kind VARCHAR(32),
			submission_id UUID,
			delta BIGINT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (submission_kind, submission_id)
		);`,
		`CREATE TABLE IF NOT EXISTS challenges (
			id UUID PRIMARY KEY NOT NULL,
			title VARCHAR(255) NOT NULL,
			points_reward BIGINT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY NOT NULL,
			title VARCHAR(255) NOT NULL,
			points_reward BIGINT NOT NULL DEFAULT 0,
			start_at TIMESTAMP NOT NULL,
			end_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS coupons (
			code VARCHAR(64) PRIMARY KEY NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			points_fixed BIGINT,
			points_min BIGINT,
			points_max BIGINT,
			max_redemptions BIGINT NOT NULL DEFAULT 0,
			redeemed_count BIGINT NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);`,
	}

	for _, table := range tables {
		if _, err := DB.Exec(table); err != nil {
			logger.Log.Error("Error creating table", zap.Error(err))
			return nil, ErrCreatingTableFailed
		}
	}

	return &Store{}, nil
}

// translateErr maps driver failures onto the engine's taxonomy:
// contention and timeouts become Busy (retryable), everything else a
// StorageFault.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return engine.ErrBusy
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// serialization_failure, deadlock_detected, lock_not_available
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return engine.ErrBusy
		}
	}
	return fmt.Errorf("%w: %v", engine.ErrStorageFault, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash, role, full_name, balance, lifetime_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, user.ID, user.Login, user.PasswordHash, user.Role, user.FullName, user.Balance, user.LifetimePoints)

	return translateErr(err)
}

// EnsureAdmin upserts the bootstrap admin account used to sign in to
// the console.
func (s *Store) EnsureAdmin(ctx context.Context, login, passwordHash string) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO users (id, login, password_hash, role, full_name)
		VALUES ($1, $2, $3, 'admin', 'Administrator')
		ON CONFLICT (login) DO UPDATE SET password_hash = $3, role = 'admin';
	`, uuid.New(), login, passwordHash)

	return translateErr(err)
}

func (s *Store) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User

	err := DB.QueryRowContext(ctx, `
		SELECT id, login, password_hash, role, full_name, balance, lifetime_points, created_at
		FROM users WHERE login = $1;
	`, login).Scan(&user.ID, &user.Login, &user.PasswordHash, &user.Role, &user.FullName,
		&user.Balance, &user.LifetimePoints, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, engine.ErrNotFound
	}
	if err != nil {
		return models.User{}, translateErr(err)
	}

	return user, nil
}

func (s *Store) GetBalance(ctx context.Context, userID uuid.UUID) (models.BalanceView, error) {
	var view models.BalanceView

	err := DB.QueryRowContext(ctx, `
		SELECT balance, lifetime_points FROM users WHERE id = $1;
	`, userID).Scan(&view.Balance, &view.LifetimePoints)

	if errors.Is(err, sql.ErrNoRows) {
		return models.BalanceView{}, engine.ErrNotFound
	}
	if err != nil {
		return models.BalanceView{}, translateErr(err)
	}

	return view, nil
}

// TopN ranks users by lifetime points. Ties break on earliest account
// creation, then id.
func (s *Store) TopN(ctx context.Context, n int) ([]models.LeaderboardRow, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT id, full_name, lifetime_points FROM users
		ORDER BY lifetime_points DESC, created_at ASC, id ASC
		LIMIT $1;
	`, n)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var board []models.LeaderboardRow
	for rows.Next() {
		var row models.LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.FullName, &row.LifetimePoints); err != nil {
			return nil, translateErr(err)
		}
		row.Rank = len(board) + 1
		board = append(board, row)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}

	return board, nil
}

// CreateSubmission registers a pending item. Order creation debits the
// buyer inside the same transaction: the conditional balance decrement
// fails the whole insert when funds are insufficient.
func (s *Store) CreateSubmission(ctx context.Context, sub models.Submission) (models.Submission, error) {
	if sub.Kind != models.KindOrder {
		_, err := DB.ExecContext(ctx, `
			INSERT INTO submissions (id, kind, user_id, status, created_at, challenge_id, weight_kg, plastic_type, event_id, coupon_code, proof_url)
			VALUES ($1, $2, $3, 'pending', $4, $5, $6, $7, $8, $9, $10);
		`, sub.ID, sub.Kind, sub.UserID, sub.CreatedAt, sub.ChallengeID,
			sub.WeightKg, sub.PlasticType, sub.EventID, sub.CouponCode, sub.ProofURL)
		if err != nil {
			return models.Submission{}, translateErr(err)
		}
		return sub, nil
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Submission{}, translateErr(err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users SET balance = balance - $1 WHERE id = $2 AND balance >= $1;
	`, sub.OrderTotalPoints, sub.UserID)
	if err != nil {
		tx.Rollback()
		return models.Submission{}, translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return models.Submission{}, translateErr(err)
	}
	if affected == 0 {
		tx.Rollback()
		return models.Submission{}, engine.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, kind, user_id, status, created_at, order_total_points)
		VALUES ($1, $2, $3, 'pending', $4, $5);
	`, sub.ID, sub.Kind, sub.UserID, sub.CreatedAt, sub.OrderTotalPoints)
	if err != nil {
		tx.Rollback()
		return models.Submission{}, translateErr(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger (user_id, submission_kind, submission_id, delta, reason)
		VALUES ($1, $2, $3, $4, 'Order placed');
	`, sub.UserID, sub.Kind, sub.ID, -sub.OrderTotalPoints)
	if err != nil {
		tx.Rollback()
		return models.Submission{}, translateErr(err)
	}

	if err := tx.Commit(); err != nil {
		return models.Submission{}, translateErr(err)
	}

	return sub, nil
}

const submissionColumns = `id, kind, user_id, status, created_at, decided_at, decided_by,
		challenge_id, weight_kg, plastic_type, event_id, coupon_code, order_total_points, proof_url`

func scanSubmission(row interface{ Scan(...interface{}) error }) (models.Submission, error) {
	var sub models.Submission
	err := row.Scan(&sub.ID, &sub.Kind, &sub.UserID, &sub.Status, &sub.CreatedAt,
		&sub.DecidedAt, &sub.DecidedBy, &sub.ChallengeID, &sub.WeightKg, &sub.PlasticType,
		&sub.EventID, &sub.CouponCode, &sub.OrderTotalPoints, &sub.ProofURL)
	return sub, err
}

func (s *Store) GetSubmission(ctx context.Context, kind models.SubmissionKind, id uuid.UUID) (models.Submission, error) {
	sub, err := scanSubmission(DB.QueryRowContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions WHERE id = $1 AND kind = $2;
	`, id, kind))

	if errors.Is(err, sql.ErrNoRows) {
		return models.Submission{}, engine.ErrNotFound
	}
	if err != nil {
		return models.Submission{}, translateErr(err)
	}

	return sub, nil
}

// ListPending snapshots the current moderation queue for one kind.
func (s *Store) ListPending(ctx context.Context, kind models.SubmissionKind) ([]models.Submission, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT `+submissionColumns+` FROM submissions
		WHERE kind = $1 AND status = 'pending' ORDER BY created_at;
	`, kind)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var subs []models.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, translateErr(err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}

	return subs, nil
}

func (s *Store) CreateChallenge(ctx context.Context, ch models.Challenge) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO challenges (id, title, points_reward, is_active)
		VALUES ($1, $2, $3, $4);
	`, ch.ID, ch.Title, ch.PointsReward, ch.IsActive)

	return translateErr(err)
}

func (s *Store) GetChallenge(ctx context.Context, id uuid.UUID) (models.Challenge, error) {
	var ch models.Challenge

	err := DB.QueryRowContext(ctx, `
		SELECT id, title, points_reward, is_active, created_at FROM challenges WHERE id = $1;
	`, id).Scan(&ch.ID, &ch.Title, &ch.PointsReward, &ch.IsActive, &ch.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Challenge{}, engine.ErrNotFound
	}
	if err != nil {
		return models.Challenge{}, translateErr(err)
	}

	return ch, nil
}

func (s *Store) CreateEvent(ctx context.Context, ev models.Event) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO events (id, title, points_reward, start_at, end_at)
		VALUES ($1, $2, $3, $4, $5);
	`, ev.ID, ev.Title, ev.PointsReward, ev.StartAt, ev.EndAt)

	return translateErr(err)
}

func (s *Store) GetEvent(ctx context.Context, id uuid.UUID) (models.Event, error) {
	var ev models.Event

	err := DB.QueryRowContext(ctx, `
		SELECT id, title, points_reward, start_at, end_at FROM events WHERE id = $1;
	`, id).Scan(&ev.ID, &ev.Title, &ev.PointsReward, &ev.StartAt, &ev.EndAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, engine.ErrNotFound
	}
	if err != nil {
		return models.Event{}, translateErr(err)
	}

	return ev, nil
}

func (s *Store) CreateCoupon(ctx context.Context, cp models.Coupon) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO coupons (code, description, points_fixed, points_min, points_max, max_redemptions, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, cp.Code, cp.Description, cp.PointsFixed, cp.PointsMin, cp.PointsMax, cp.MaxRedemptions, cp.IsActive)

	return translateErr(err)
}

func (s *Store) GetCoupon(ctx context.Context, code string) (models.Coupon, error) {
	var cp models.Coupon

	err := DB.QueryRowContext(ctx, `
		SELECT code, description, points_fixed, points_min, points_max, max_redemptions, redeemed_count, is_active
		FROM coupons WHERE code = $1;
	`, code).Scan(&cp.Code, &cp.Description, &cp.PointsFixed, &cp.PointsMin, &cp.PointsMax,
		&cp.MaxRedemptions, &cp.RedeemedCount, &cp.IsActive)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Coupon{}, engine.ErrNotFound
	}
	if err != nil {
		return models.Coupon{}, translateErr(err)
	}

	return cp, nil
}

// CommitDecision applies a decision as one transaction. The status flip
// is a compare-and-swap on status='pending': under two racing admins the
// loser sees zero affected rows and gets AlreadyDecidedError with the
// winner's verdict. The coupon increment is conditional on the cap and
// aborts the whole transaction with ErrLimitReached when exhausted.
func (s *Store) CommitDecision(ctx context.Context, commit engine.Commit) (int64, error) {
	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, translateErr(err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE submissions SET status = $1, decided_at = $2, decided_by = $3
		WHERE id = $4 AND kind = $5 AND status = 'pending';
	`, commit.Verdict, commit.DecidedAt, commit.ActorID, commit.SubmissionID, commit.Kind)
	if err != nil {
		tx.Rollback()
		return 0, translateErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return 0, translateErr(err)
	}
	if affected == 0 {
		tx.Rollback()
		return 0, s.alreadyDecided(ctx, commit.Kind, commit.SubmissionID)
	}

	var entryID int64
	if commit.Verdict == models.StatusApproved && commit.Reward > 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO ledger (user_id, submission_kind, submission_id, delta, reason)
			VALUES ($1, $2, $3, $4, $5) RETURNING id;
		`, commit.UserID, commit.Kind, commit.SubmissionID, commit.Reward, commit.Reason).Scan(&entryID)
		if err != nil {
			tx.Rollback()
			if isUniqueViolation(err) {
				return 0, s.alreadyDecided(ctx, commit.Kind, commit.SubmissionID)
			}
			return 0, translateErr(err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE users SET balance = balance + $1, lifetime_points = lifetime_points + $1
			WHERE id = $2;
		`, commit.Reward, commit.UserID)
		if err != nil {
			tx.Rollback()
			return 0, translateErr(err)
		}
	}

	if commit.Verdict == models.StatusApproved && commit.CouponCode != "" {
		res, err := tx.ExecContext(ctx, `
			UPDATE coupons SET redeemed_count = redeemed_count + 1
			WHERE code = $1 AND redeemed_count < max_redemptions;
		`, commit.CouponCode)
		if err != nil {
			tx.Rollback()
			return 0, translateErr(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, translateErr(err)
		}
		if affected == 0 {
			tx.Rollback()
			return 0, engine.ErrLimitReached
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, translateErr(err)
	}

	return entryID, nil
}

// alreadyDecided re-reads the terminal status after a lost CAS so the
// caller learns what the winning decision was.
func (s *Store) alreadyDecided(ctx context.Context, kind models.SubmissionKind, id uuid.UUID) error {
	sub, err := s.GetSubmission(ctx, kind, id)
	if err != nil {
		return err
	}
	return &engine.AlreadyDecidedError{Status: sub.Status}
}

// Mismatch is one user whose materialized totals diverged from the
// ledger.
type Mismatch struct {
	UserID         uuid.UUID
	Balance        int64
	LedgerBalance  int64
	Lifetime       int64
	LedgerLifetime int64
}

// ReconciliationReport recomputes per-user ledger sums and returns every
// user whose cached balance or lifetime total diverges. Diagnostic only,
// never on the request path.
func (s *Store) ReconciliationReport(ctx context.Context) ([]Mismatch, error) {
	rows, err := DB.QueryContext(ctx, `
		SELECT u.id, u.balance, u.lifetime_points,
			COALESCE(SUM(l.delta), 0),
			COALESCE(SUM(CASE WHEN l.delta > 0 THEN l.delta ELSE 0 END), 0)
		FROM users u
		LEFT JOIN ledger l ON l.user_id = u.id
		GROUP BY u.id, u.balance, u.lifetime_points;
	`)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var mismatches []Mismatch
	for rows.Next() {
		var m Mismatch
		if err := rows.Scan(&m.UserID, &m.Balance, &m.Lifetime, &m.LedgerBalance, &m.LedgerLifetime); err != nil {
			return nil, translateErr(err)
		}
		if m.Balance != m.LedgerBalance || m.Lifetime != m.LedgerLifetime {
			mismatches = append(mismatches, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, translateErr(err)
	}

	return mismatches, nil
}

var _ engine.Store = (*Store)(nil)
