package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewIDIsUUID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b {
		t.Fatalf("expected distinct ids, got %s twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("expected uuid, got %q: %v", a, err)
	}
}

func TestTimestampIsUTCMillis(t *testing.T) {
	loc := time.FixedZone("X", 3*60*60)
	ts := time.Date(2024, 5, 6, 10, 11, 12, 345678901, loc)

	if got, want := Timestamp(ts), "2024-05-06T07:11:12.345Z"; got != want {
		t.Fatalf("Timestamp() = %q, want %q", got, want)
	}
}
