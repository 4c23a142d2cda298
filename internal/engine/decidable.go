package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/greencampus/ecopoints/internal/models"
)

// decidable is the per-kind behavior behind the single Decide entry
// point: eligibility gating, reward computation, and the coupon code
// whose redeemed count must be bumped inside the commit.
type decidable interface {
	eligible(now time.Time) error
	reward(randInt func(n int64) int64) int64
	reason() string
	couponCode() string
}

func (e *Engine) buildDecidable(ctx context.Context, sub models.Submission) (decidable, error) {
	switch sub.Kind {
	case models.KindChallengeProof:
		if sub.ChallengeID == nil {
			return nil, ErrNotFound
		}
		ch, err := e.store.GetChallenge(ctx, *sub.ChallengeID)
		if err != nil {
			return nil, err
		}
		return challengeDecision{challenge: ch}, nil

	case models.KindPlasticLog:
		return plasticDecision{weightKg: sub.WeightKg, plasticType: sub.PlasticType}, nil

	case models.KindEventAttendance:
		if sub.EventID == nil {
			return nil, ErrNotFound
		}
		ev, err := e.store.GetEvent(ctx, *sub.EventID)
		if err != nil {
			return nil, err
		}
		return eventDecision{event: ev}, nil

	case models.KindOrder:
		return orderDecision{}, nil

	case models.KindCouponRedemption:
		cp, err := e.store.GetCoupon(ctx, sub.CouponCode)
		if err != nil {
			return nil, err
		}
		return couponDecision{coupon: cp}, nil
	}

	return nil, ErrInvalidSubmission
}

type challengeDecision struct {
	challenge models.Challenge
}

func (d challengeDecision) eligible(time.Time) error { return nil }

// Reward is read from the parent challenge at decision time, not
// snapshotted at submission time.
func (d challengeDecision) reward(func(int64) int64) int64 { return d.challenge.PointsReward }

func (d challengeDecision) reason() string {
	return fmt.Sprintf("Challenge approved: %s", d.challenge.Title)
}

func (d challengeDecision) couponCode() string { return "" }

type plasticDecision struct {
	weightKg    float64
	plasticType string
}

func (d plasticDecision) eligible(time.Time) error { return nil }

func (d plasticDecision) reward(func(int64) int64) int64 {
	return models.PlasticPoints(d.weightKg)
}

func (d plasticDecision) reason() string {
	return fmt.Sprintf("Plastic log verified: %.2f kg %s", d.weightKg, d.plasticType)
}

func (d plasticDecision) couponCode() string { return "" }

type eventDecision struct {
	event models.Event
}

// Attendance can only be approved once the event is over.
func (d eventDecision) eligible(now time.Time) error {
	if now.Before(d.event.EndAt) {
		return ErrTooEarly
	}
	return nil
}

func (d eventDecision) reward(func(int64) int64) int64 { return d.event.PointsReward }

func (d eventDecision) reason() string {
	return fmt.Sprintf("Event attendance: %s", d.event.Title)
}

func (d eventDecision) couponCode() string { return "" }

// orderDecision flips fulfillment status only. The points debit already
// happened when the order was created, so approval credits nothing.
type orderDecision struct{}

func (d orderDecision) eligible(time.Time) error       { return nil }
func (d orderDecision) reward(func(int64) int64) int64 { return 0 }
func (d orderDecision) reason() string                 { return "Order confirmed" }
func (d orderDecision) couponCode() string             { return "" }

type couponDecision struct {
	coupon models.Coupon
}

// The cap is re-checked conditionally inside the commit; this early
// check only avoids computing a reward for a coupon that is already
// exhausted.
func (d couponDecision) eligible(time.Time) error {
	if d.coupon.RedeemedCount >= d.coupon.MaxRedemptions {
		return ErrLimitReached
	}
	return nil
}

func (d couponDecision) reward(randInt func(n int64) int64) int64 {
	if d.coupon.PointsFixed != nil {
		return *d.coupon.PointsFixed
	}
	if d.coupon.PointsMin == nil || d.coupon.PointsMax == nil {
		return 0
	}
	min, max := *d.coupon.PointsMin, *d.coupon.PointsMax
	if max <= min {
		return min
	}
	return min + randInt(max-min+1)
}

func (d couponDecision) reason() string {
	return fmt.Sprintf("Coupon redeemed: %s", d.coupon.Code)
}

func (d couponDecision) couponCode() string { return d.coupon.Code }
