package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soultribe/internal/availability/service"
	"soultribe/internal/tzengine"
	"soultribe/pkg/testutil"
)

func iv(t *testing.T, start, end string) tzengine.Interval {
	t.Helper()
	return tzengine.Interval{
		Start: testutil.MustParseTime(t, start),
		End:   testutil.MustParseTime(t, end),
	}
}

func TestIntersectHourly(t *testing.T) {
	now := testutil.MustParseTime(t, "2025-06-15T12:00:00Z")
	lookahead := 3 * 24 * time.Hour

	t.Run("overlap of two whole-hour windows", func(t *testing.T) {
		got := service.IntersectHourly(
			[]tzengine.Interval{iv(t, "2025-06-16T10:00:00Z", "2025-06-16T14:00:00Z")},
			[]tzengine.Interval{iv(t, "2025-06-16T12:00:00Z", "2025-06-16T18:00:00Z")},
			now, lookahead, 5,
		)
		require.Len(t, got, 1)
		assert.Equal(t, iv(t, "2025-06-16T12:00:00Z", "2025-06-16T14:00:00Z"), got[0])
	})

	t.Run("ragged overlap snaps inward to hour boundaries", func(t *testing.T) {
		got := service.IntersectHourly(
			[]tzengine.Interval{iv(t, "2025-06-16T10:30:00Z", "2025-06-16T14:45:00Z")},
			[]tzengine.Interval{iv(t, "2025-06-16T09:00:00Z", "2025-06-16T18:00:00Z")},
			now, lookahead, 5,
		)
		require.Len(t, got, 1)
		assert.Equal(t, iv(t, "2025-06-16T11:00:00Z", "2025-06-16T14:00:00Z"), got[0])
	})

	t.Run("sub-hour overlap is dropped", func(t *testing.T) {
		got := service.IntersectHourly(
			[]tzengine.Interval{iv(t, "2025-06-16T10:00:00Z", "2025-06-16T11:30:00Z")},
			[]tzengine.Interval{iv(t, "2025-06-16T10:30:00Z", "2025-06-16T12:00:00Z")},
			now, lookahead, 5,
		)
		assert.Empty(t, got)
	})

	t.Run("windows outside the lookahead are ignored", func(t *testing.T) {
		got := service.IntersectHourly(
			[]tzengine.Interval{iv(t, "2025-06-25T10:00:00Z", "2025-06-25T14:00:00Z")},
			[]tzengine.Interval{iv(t, "2025-06-25T10:00:00Z", "2025-06-25T14:00:00Z")},
			now, lookahead, 5,
		)
		assert.Empty(t, got)
	})

	t.Run("a window straddling now is clipped to start at the next hour", func(t *testing.T) {
		shifted := testutil.MustParseTime(t, "2025-06-15T12:10:00Z")
		got := service.IntersectHourly(
			[]tzengine.Interval{iv(t, "2025-06-15T10:00:00Z", "2025-06-15T16:00:00Z")},
			[]tzengine.Interval{iv(t, "2025-06-15T10:00:00Z", "2025-06-15T16:00:00Z")},
			shifted, lookahead, 5,
		)
		require.Len(t, got, 1)
		assert.Equal(t, iv(t, "2025-06-15T13:00:00Z", "2025-06-15T16:00:00Z"), got[0])
	})

	t.Run("multiple disjoint overlaps sweep in order", func(t *testing.T) {
		a := []tzengine.Interval{
			iv(t, "2025-06-16T08:00:00Z", "2025-06-16T10:00:00Z"),
			iv(t, "2025-06-16T14:00:00Z", "2025-06-16T18:00:00Z"),
		}
		b := []tzengine.Interval{
			iv(t, "2025-06-16T09:00:00Z", "2025-06-16T12:00:00Z"),
			iv(t, "2025-06-16T16:00:00Z", "2025-06-16T20:00:00Z"),
		}
		got := service.IntersectHourly(a, b, now, lookahead, 5)
		require.Len(t, got, 2)
		assert.Equal(t, iv(t, "2025-06-16T09:00:00Z", "2025-06-16T10:00:00Z"), got[0])
		assert.Equal(t, iv(t, "2025-06-16T16:00:00Z", "2025-06-16T18:00:00Z"), got[1])
	})

	t.Run("maxItems caps the result", func(t *testing.T) {
		var a, b []tzengine.Interval
		for day := 16; day <= 18; day++ {
			start := time.Date(2025, 6, day, 9, 0, 0, 0, time.UTC)
			a = append(a, tzengine.Interval{Start: start, End: start.Add(2 * time.Hour)})
			b = append(b, tzengine.Interval{Start: start, End: start.Add(2 * time.Hour)})
		}
		got := service.IntersectHourly(a, b, now, 7*24*time.Hour, 2)
		assert.Len(t, got, 2)
	})

	t.Run("inverted and empty inputs yield nothing", func(t *testing.T) {
		got := service.IntersectHourly(
			[]tzengine.Interval{iv(t, "2025-06-16T14:00:00Z", "2025-06-16T10:00:00Z")},
			nil,
			now, lookahead, 5,
		)
		assert.Empty(t, got)
	})
}
