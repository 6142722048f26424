package utils

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}

// Timestamp formats t as an ISO-8601 UTC string.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
