package types

import (
	"testing"
	"time"
)

func TestSpotKey(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0).UTC()
	base := Spot{
		SenderCallsign:   "OH2A",
		ReceiverCallsign: "SM0B",
		Band:             "20m",
		Timestamp:        ts,
		Role:             RoleSender,
	}

	same := base
	snr := -5
	same.SNR = &snr
	same.SenderLocator = "KP20ab"
	if base.Key() != same.Key() {
		t.Error("key must ignore SNR and locator fields")
	}

	otherRole := base
	otherRole.Role = RoleReceiver
	if base.Key() == otherRole.Key() {
		t.Error("role must discriminate the two records of one report")
	}

	otherTime := base
	otherTime.Timestamp = ts.Add(time.Second)
	if base.Key() == otherTime.Key() {
		t.Error("timestamp must be part of the identity")
	}

	// Identical wall time in a different zone is the same report.
	otherZone := base
	otherZone.Timestamp = ts.In(time.FixedZone("EET", 2*3600))
	if base.Key() != otherZone.Key() {
		t.Error("key must compare instants, not zones")
	}
}

func TestSpotAge(t *testing.T) {
	now := time.Now().UTC()
	s := Spot{Timestamp: now.Add(-10 * time.Minute)}
	if got := s.Age(now); got != 10*time.Minute {
		t.Errorf("Age = %v, want 10m", got)
	}
}
