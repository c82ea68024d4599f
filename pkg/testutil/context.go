package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"soultribe/pkg/requestcontext"
)

// AuthedContext returns a context carrying an authenticated user ID the way
// the auth middleware would set it.
func AuthedContext(t *testing.T, userID uuid.UUID) context.Context {
	t.Helper()
	return requestcontext.WithUserID(context.Background(), userID)
}

// FrozenContext returns a context with a pinned request time so services see a
// deterministic clock.
func FrozenContext(t *testing.T, at time.Time) context.Context {
	t.Helper()
	return requestcontext.WithTime(context.Background(), at)
}

// MustParseTime parses an RFC3339 timestamp, failing the test on error.
func MustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return parsed
}
