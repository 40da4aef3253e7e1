package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordTranslate(t *testing.T) {
	r := NewRegistry()

	r.RecordTranslate("write", 2*time.Millisecond, "")
	r.RecordTranslate("read", time.Millisecond, "ReadBeforeWrite")

	require.Equal(t, float64(1), testutil.ToFloat64(r.TranslateTotal.WithLabelValues("write")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.TranslateTotal.WithLabelValues("read")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.TranslateFailuresTotal.WithLabelValues("ReadBeforeWrite")))
}

func TestRecordGC(t *testing.T) {
	r := NewRegistry()

	r.RecordClean()
	r.RecordRemap("data")
	r.RecordRemap("log")
	r.RecordShuffle()
	r.RecordGCFailure("clean")

	require.Equal(t, float64(1), testutil.ToFloat64(r.GCCleanTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(r.GCRemapTotal.WithLabelValues("data")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.GCRemapTotal.WithLabelValues("log")))
	require.Equal(t, float64(1), testutil.ToFloat64(r.GCShuffleTotal))
	require.Equal(t, float64(1), testutil.ToFloat64(r.GCFailureTotal.WithLabelValues("clean")))
}

func TestGauges(t *testing.T) {
	r := NewRegistry()

	r.SetWearSpread(3)
	r.SetBlocksAtEraseCap(2)
	r.SetPoolFreeBlocks(5)

	require.Equal(t, float64(3), testutil.ToFloat64(r.WearSpread))
	require.Equal(t, float64(2), testutil.ToFloat64(r.BlocksAtEraseCap))
	require.Equal(t, float64(5), testutil.ToFloat64(r.PoolFreeBlocks))
}
