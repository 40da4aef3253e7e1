// Package ftl implements the flash translation layer proper: the hybrid
// log-block mapping scheme, the cleaning/merge garbage collector, and the
// wear-balancing shuffle, against the geometry and device collaborators
// defined in pkg/geometry and pkg/device.
package ftl

import (
	"sync"
	"time"

	"github.com/dd0wney/ftlsim/pkg/device"
	"github.com/dd0wney/ftlsim/pkg/geometry"
	"github.com/dd0wney/ftlsim/pkg/logging"
)

// EventType is the host operation carried by an Event.
type EventType int

const (
	EventRead EventType = iota
	EventWrite
	EventErase
	EventMerge
)

func (t EventType) String() string {
	switch t {
	case EventRead:
		return "READ"
	case EventWrite:
		return "WRITE"
	case EventErase:
		return "ERASE"
	case EventMerge:
		return "MERGE"
	default:
		return "UNKNOWN"
	}
}

// Event is a host I/O request. Translate honours only EventRead and
// EventWrite; EventErase and EventMerge are rejected with
// ErrUnsupportedHostOp since the FTL issues its own physical erases.
type Event struct {
	Type     EventType
	Logical  uint64
	Size     uint64
	Start    time.Time

	// Physical is the out-parameter Translate fills in on success: the
	// physical page index the host's data was (or should be) staged to.
	Physical uint64
}

// MetricsSink is the subset of pkg/metrics.Registry that the FTL core
// depends on, kept as an interface so pkg/ftl never imports Prometheus
// directly. A nil Metrics option defaults to a no-op sink.
type MetricsSink interface {
	RecordTranslate(op string, duration time.Duration, failKind string)
	RecordErase()
	RecordClean()
	RecordRemap(kind string)
	RecordShuffle()
	RecordGCFailure(op string)
	SetWearSpread(spread uint32)
	SetBlocksAtEraseCap(n int)
	SetPoolFreeBlocks(n int)
}

type noopMetrics struct{}

func (noopMetrics) RecordTranslate(string, time.Duration, string) {}
func (noopMetrics) RecordErase()                                  {}
func (noopMetrics) RecordClean()                                  {}
func (noopMetrics) RecordRemap(string)                            {}
func (noopMetrics) RecordShuffle()                                {}
func (noopMetrics) RecordGCFailure(string)                        {}
func (noopMetrics) SetWearSpread(uint32)                          {}
func (noopMetrics) SetBlocksAtEraseCap(int)                       {}
func (noopMetrics) SetPoolFreeBlocks(int)                         {}

// Options configures a new FTL instance.
type Options struct {
	Logger  logging.Logger
	Metrics MetricsSink

	// PageSize is the byte size of the buffers the FTL stages through the
	// device collaborator during cleaning, remapping, and shuffling.
	// Defaults to 4096.
	PageSize int
}

const defaultPageSize = 4096

// FTL is the single process-wide object holding every table the
// translation layer needs: the logical-written bitmap, the logical→data
// and data→log offset tables, the log-block manifests, the per-block
// erase counters, and the over-provisioning free pool. Every operation
// holds mu for the duration of one host event.
type FTL struct {
	mu sync.Mutex

	geo      *geometry.Geometry
	ctrl     device.Controller
	log      logging.Logger
	metrics  MetricsSink
	pageSize int

	written *geometry.Bitmap

	logToData []int64 // len == geo.NumLogicalBlocks
	dataToLog []int64 // len == geo.NumPhysicalBlocks; 0 == unmapped

	manifests map[uint64]*Manifest // physical log-block index -> manifest

	eraseCount []uint32 // len == geo.NumPhysicalBlocks

	freePool []uint64 // stack of physical block indices
}

// New builds an FTL over geo, issuing physical operations against ctrl. All
// tables are allocated zero-filled and the free pool is populated with the
// over-provisioned tail [NumLogicalBlocks, NumPhysicalBlocks).
func New(geo *geometry.Geometry, ctrl device.Controller, opts Options) *FTL {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.PageSize == 0 {
		opts.PageSize = defaultPageSize
	}

	f := &FTL{
		geo:        geo,
		ctrl:       ctrl,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		pageSize:   opts.PageSize,
		written:    geometry.NewBitmap(geo.Usable),
		logToData:  make([]int64, geo.NumLogicalBlocks),
		dataToLog:  make([]int64, geo.NumPhysicalBlocks),
		manifests:  make(map[uint64]*Manifest),
		eraseCount: make([]uint32, geo.NumPhysicalBlocks),
	}

	for b := geo.NumLogicalBlocks; b < geo.NumPhysicalBlocks; b++ {
		f.freePool = append(f.freePool, b)
	}
	f.metrics.SetPoolFreeBlocks(len(f.freePool))

	return f
}

// dataBlockOf returns the physical data block currently mapped to logical
// block lb.
func (f *FTL) dataBlockOf(lb uint64) uint64 {
	return uint64(int64(lb) + f.logToData[lb])
}

// logBlockOf returns the physical log block mapped to data block d, and
// whether one is mapped at all (data→log offset 0 means unmapped).
func (f *FTL) logBlockOf(d uint64) (uint64, bool) {
	off := f.dataToLog[d]
	if off == 0 {
		return 0, false
	}
	return uint64(int64(d) + off), true
}
