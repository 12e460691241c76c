package system

import (
	"testing"
	"time"
)

func TestNowIsUTC(t *testing.T) {
	now := New().Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", now.Location())
	}
	if time.Since(now) > time.Minute {
		t.Fatalf("clock far from wall time: %v", now)
	}
}
