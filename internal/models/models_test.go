package models

import (
	"math"
	"testing"
)

// TestParseVerdict ensures only the two terminal values applicable to a
// kind are accepted.
func TestParseVerdict(t *testing.T) {
	cases := []struct {
		kind    SubmissionKind
		verdict string
		want    Status
		ok      bool
	}{
		{KindChallengeProof, "approved", StatusApproved, true},
		{KindChallengeProof, "rejected", StatusRejected, true},
		{KindChallengeProof, "confirmed", "", false},
		{KindChallengeProof, "verified", "", false},
		{KindPlasticLog, "verified", StatusApproved, true},
		{KindPlasticLog, "rejected", StatusRejected, true},
		{KindOrder, "confirmed", StatusApproved, true},
		{KindOrder, "cancelled", StatusRejected, true},
		{KindOrder, "verified", "", false},
		{KindEventAttendance, "approved", StatusApproved, true},
		{KindCouponRedemption, "pending", "", false},
		{KindCouponRedemption, "", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseVerdict(tc.kind, tc.verdict)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseVerdict(%s, %q) = (%q, %v), want (%q, %v)",
				tc.kind, tc.verdict, got, ok, tc.want, tc.ok)
		}
	}
}

// TestStatusLabel ensures the kind-specific synonyms the console shows.
func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(KindPlasticLog, StatusApproved); got != "verified" {
		t.Fatalf("expected verified, got %q", got)
	}
	if got := StatusLabel(KindOrder, StatusApproved); got != "confirmed" {
		t.Fatalf("expected confirmed, got %q", got)
	}
	if got := StatusLabel(KindOrder, StatusRejected); got != "cancelled" {
		t.Fatalf("expected cancelled, got %q", got)
	}
	if got := StatusLabel(KindChallengeProof, StatusApproved); got != "approved" {
		t.Fatalf("expected approved, got %q", got)
	}
	if got := StatusLabel(KindPlasticLog, StatusPending); got != "pending" {
		t.Fatalf("expected pending, got %q", got)
	}
}

// TestPlasticPoints checks the round-up at 100 points per kg.
func TestPlasticPoints(t *testing.T) {
	cases := []struct {
		weightKg float64
		want     int64
	}{
		{2.0, 200},
		{0.5, 50},
		{1.234, 124},
		{0.001, 1},
	}

	for _, tc := range cases {
		if got := PlasticPoints(tc.weightKg); got != tc.want {
			t.Errorf("PlasticPoints(%v) = %d, want %d", tc.weightKg, got, tc.want)
		}
	}
}

// TestCO2SavedKg checks the per-type rates and the fallback for unknown
// types.
func TestCO2SavedKg(t *testing.T) {
	if got := CO2SavedKg(2.0, "PET"); math.Abs(got-3.2) > 1e-9 {
		t.Fatalf("CO2SavedKg(2.0, PET) = %v, want 3.2", got)
	}
	if got := CO2SavedKg(1.0, "HDPE"); math.Abs(got-1.25) > 1e-9 {
		t.Fatalf("CO2SavedKg(1.0, HDPE) = %v, want 1.25", got)
	}
	if got := CO2SavedKg(2.0, "Vinyl"); math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("unknown type should fall back to Other rate, got %v", got)
	}
}
