package ftl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatsSnapshot_RoundTrips(t *testing.T) {
	f, _ := newTestFTL(t)
	ctx := context.Background()

	require.NoError(t, f.Translate(ctx, &Event{Type: EventWrite, Logical: 0}))

	snap, err := f.StatsSnapshot()
	require.NoError(t, err)

	got, err := DecodeStatsSnapshot(snap)
	require.NoError(t, err)
	require.Equal(t, uint64(1), got.WrittenPages)
	require.Equal(t, f.geo.Usable, got.UsableLogicalPages)
}
