package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type SubmissionKind string

const (
	KindChallengeProof   SubmissionKind = "challenge_proof"
	KindPlasticLog       SubmissionKind = "plastic_log"
	KindEventAttendance  SubmissionKind = "event_attendance"
	KindOrder            SubmissionKind = "order"
	KindCouponRedemption SubmissionKind = "coupon_redemption"
)

func (k SubmissionKind) Valid() bool {
	switch k {
	case KindChallengeProof, KindPlasticLog, KindEventAttendance, KindOrder, KindCouponRedemption:
		return true
	}
	return false
}

// Status is the canonical submission state. A submission leaves pending
// exactly once and is immutable afterwards.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// StatusLabel maps a canonical status to the wording the admin console
// uses for that submission kind (plastic logs are "verified", orders are
// "confirmed"/"cancelled").
func StatusLabel(kind SubmissionKind, status Status) string {
	switch kind {
	case KindPlasticLog:
		if status == StatusApproved {
			return "verified"
		}
	case KindOrder:
		switch status {
		case StatusApproved:
			return "confirmed"
		case StatusRejected:
			return "cancelled"
		}
	}
	return string(status)
}

// ParseVerdict resolves a caller-supplied verdict to a canonical terminal
// status. Only the two terminal values applicable to the kind are
// accepted: canonical approved/rejected everywhere, plus verified for
// plastic logs and confirmed/cancelled for orders.
func ParseVerdict(kind SubmissionKind, verdict string) (Status, bool) {
	switch verdict {
	case string(StatusApproved), string(StatusRejected):
		return Status(verdict), true
	case "verified":
		if kind == KindPlasticLog {
			return StatusApproved, true
		}
	case "confirmed":
		if kind == KindOrder {
			return StatusApproved, true
		}
	case "cancelled":
		if kind == KindOrder {
			return StatusRejected, true
		}
	}
	return "", false
}

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

type User struct {
	ID             uuid.UUID `db:"id"`
	Login          string    `db:"login"`
	PasswordHash   string    `db:"password_hash"`
	Role           string    `db:"role"`
	FullName       string    `db:"full_name"`
	Balance        int64     `db:"balance"`
	LifetimePoints int64     `db:"lifetime_points"`
	CreatedAt      time.Time `db:"created_at"`
}

// Submission is the tagged union over all moderatable kinds. Kind-specific
// payload fields are populated only for the matching kind.
type Submission struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Kind      SubmissionKind `db:"kind" json:"kind"`
	UserID    uuid.UUID      `db:"user_id" json:"user_id"`
	Status    Status         `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	DecidedAt *time.Time     `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy *uuid.UUID     `db:"decided_by" json:"decided_by,omitempty"`

	ChallengeID      *uuid.UUID `db:"challenge_id" json:"challenge_id,omitempty"`
	WeightKg         float64    `db:"weight_kg" json:"weight_kg,omitempty"`
	PlasticType      string     `db:"plastic_type" json:"plastic_type,omitempty"`
	EventID          *uuid.UUID `db:"event_id" json:"event_id,omitempty"`
	CouponCode       string     `db:"coupon_code" json:"coupon_code,omitempty"`
	OrderTotalPoints int64      `db:"order_total_points" json:"order_total_points,omitempty"`
	ProofURL         string     `db:"proof_url" json:"proof_url,omitempty"`
}

// LedgerEntry is one immutable point movement. At most one entry exists
// per submission reference, enforced by a uniqueness constraint.
type LedgerEntry struct {
	ID             int64          `db:"id"`
	UserID         uuid.UUID      `db:"user_id"`
	SubmissionKind SubmissionKind `db:"submission_kind"`
	SubmissionID   *uuid.UUID     `db:"submission_id"`
	Delta          int64          `db:"delta"`
	Reason         string         `db:"reason"`
	CreatedAt      time.Time      `db:"created_at"`
}

type Challenge struct {
	ID           uuid.UUID `db:"id"`
	Title        string    `db:"title"`
	PointsReward int64     `db:"points_reward"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}

type Event struct {
	ID           uuid.UUID `db:"id"`
	Title        string    `db:"title"`
	PointsReward int64     `db:"points_reward"`
	StartAt      time.Time `db:"start_at"`
	EndAt        time.Time `db:"end_at"`
}

// Coupon awards either PointsFixed, or a value drawn from
// [PointsMin, PointsMax] when no fixed amount is configured.
type Coupon struct {
	Code           string `db:"code"`
	Description    string `db:"description"`
	PointsFixed    *int64 `db:"points_fixed"`
	PointsMin      *int64 `db:"points_min"`
	PointsMax      *int64 `db:"points_max"`
	MaxRedemptions int64  `db:"max_redemptions"`
	RedeemedCount  int64  `db:"redeemed_count"`
	IsActive       bool   `db:"is_active"`
}

type BalanceView struct {
	Balance        int64 `json:"balance"`
	LifetimePoints int64 `json:"lifetime_points"`
}

type LeaderboardRow struct {
	Rank           int       `json:"rank"`
	UserID         uuid.UUID `json:"user_id"`
	FullName       string    `json:"full_name"`
	LifetimePoints int64     `json:"lifetime_points"`
}

// PlasticRates is kg of CO₂ saved per kg recycled, by plastic type.
var PlasticRates = map[string]float64{
	"PET":   1.60,
	"HDPE":  1.25,
	"PVC":   0.90,
	"LDPE":  1.10,
	"PP":    1.45,
	"PS":    1.15,
	"Other": 0.75,
}

// PlasticPoints is the credited reward for a verified plastic log:
// 100 points per kg, rounded up to a whole point.
func PlasticPoints(weightKg float64) int64 {
	return int64(math.Ceil(weightKg * 100))
}

// CO2SavedKg is reported alongside plastic decisions for informational
// purposes and is never credited. Unknown types fall back to the
// "Other" rate.
func CO2SavedKg(weightKg float64, plasticType string) float64 {
	rate, ok := PlasticRates[plasticType]
	if !ok {
		rate = PlasticRates["Other"]
	}
	return weightKg * rate
}
