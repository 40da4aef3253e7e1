package device

import (
	"context"
	"sync"
	"time"
)

// SimDevice is a minimal in-memory NAND page store. It is a test
// collaborator for the FTL core and the demo driver, not a faithful
// channel/bus timing model.
type SimDevice struct {
	mu        sync.Mutex
	pageSize  int
	pages     map[uint64][]byte
	blockSize uint64

	// InjectFailure, when non-nil, is consulted before every Issue call; it
	// lets tests force a StatusFailure/DeviceFailure without corrupting the
	// page store.
	InjectFailure func(ev *PhysicalEvent) bool
}

// NewSimDevice creates an empty simulated device with the given page size
// (bytes) and block size (pages per block, for OpErase).
func NewSimDevice(pageSize int, blockSize uint64) *SimDevice {
	return &SimDevice{
		pageSize:  pageSize,
		pages:     make(map[uint64][]byte),
		blockSize: blockSize,
	}
}

// Issue performs the requested physical operation and reports its status.
func (d *SimDevice) Issue(ctx context.Context, ev *PhysicalEvent) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if ev.Start.IsZero() {
		ev.Start = time.Now()
	}
	defer func() { ev.Elapsed = time.Since(ev.Start) }()

	if d.InjectFailure != nil && d.InjectFailure(ev) {
		return StatusFailure, ErrDeviceFailure
	}

	switch ev.Op {
	case OpRead:
		buf, ok := d.pages[ev.Page]
		if !ok {
			buf = make([]byte, d.pageSize)
		}
		copy(ev.Data, buf)
		return StatusSuccess, nil
	case OpWrite:
		buf := make([]byte, d.pageSize)
		copy(buf, ev.Data)
		d.pages[ev.Page] = buf
		return StatusSuccess, nil
	case OpErase:
		base := ev.Block * d.blockSize
		for p := base; p < base+d.blockSize; p++ {
			delete(d.pages, p)
		}
		return StatusSuccess, nil
	default:
		return StatusFailure, ErrDeviceFailure
	}
}
