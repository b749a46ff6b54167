package runstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAndGetRuns(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.StoreRun(Record{
			Dataset:        "cardano",
			Timestamp:      base.Add(time.Duration(i) * time.Hour),
			Members:        100 + i,
			TotalIntervals: 7,
			Seed:           42,
			BuildDuration:  3 * time.Second,
			TrainScore:     0.9,
			Config:         "sqrt/8",
		}))
	}
	// A second dataset should not leak into cardano queries.
	require.NoError(t, s.StoreRun(Record{Dataset: "covid", Timestamp: base}))

	runs, err := s.GetRuns("cardano", base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, runs, 3)
	for i, r := range runs {
		assert.Equal(t, "cardano", r.Dataset)
		assert.Equal(t, 100+i, r.Members)
		assert.Equal(t, int64(42), r.Seed)
	}
}

func TestGetRunsRangeIsInclusive(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.StoreRun(Record{
			Dataset:   "d",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := s.GetRuns("d", base.Add(1*time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestGetRunsEmpty(t *testing.T) {
	s := newTestStore(t)
	runs, err := s.GetRuns("nothing", time.Unix(0, 0), time.Now())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestCloseIsIdempotentEnough(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
