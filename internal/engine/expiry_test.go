package engine

import (
	"testing"
	"time"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if IsExpired(nil, now) {
		t.Fatal("coupon without expiry must never expire")
	}

	past := now.Add(-time.Minute)
	if !IsExpired(&past, now) {
		t.Fatal("expected past timestamp to be expired")
	}

	future := now.Add(time.Minute)
	if IsExpired(&future, now) {
		t.Fatal("expected future timestamp to not be expired")
	}

	// Strictly before: an expiry equal to now is still valid.
	exact := now
	if IsExpired(&exact, now) {
		t.Fatal("expiry equal to now must not be expired")
	}
}
