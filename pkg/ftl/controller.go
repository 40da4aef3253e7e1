package ftl

import (
	"context"

	"github.com/dd0wney/ftlsim/pkg/device"
	"github.com/dd0wney/ftlsim/pkg/pools"
)

// issueRead performs a physical READ at page, staging the payload through a
// pooled page-sized buffer rather than allocating fresh on every call — GC
// shuffles and remaps issue one read per page per pass, which would
// otherwise churn the allocator continuously. GC procedures are the only
// callers: ordinary host reads never reach the controller, since Translate
// only computes the destination address and leaves payload movement to the
// caller. The returned buffer is owned by the caller until it reaches the
// matching issueWrite, which returns it to the pool.
func (f *FTL) issueRead(ctx context.Context, page uint64) ([]byte, error) {
	buf := pools.GetBytesSized(f.pageSize)
	ev := &device.PhysicalEvent{Op: device.OpRead, Page: page, Data: buf}
	status, err := f.ctrl.Issue(ctx, ev)
	if err != nil || status != device.StatusSuccess {
		pools.PutBytes(buf)
		return nil, NewError("issueRead").Physical(page).Cause(ErrDeviceFailure).Build()
	}
	return buf, nil
}

// issueWrite performs a physical WRITE of data at page. data is assumed to
// be the buffer a prior issueRead handed back for relocation, and is
// returned to the pool once the device has accepted it.
func (f *FTL) issueWrite(ctx context.Context, page uint64, data []byte) error {
	ev := &device.PhysicalEvent{Op: device.OpWrite, Page: page, Data: data}
	status, err := f.ctrl.Issue(ctx, ev)
	pools.PutBytes(data)
	if err != nil || status != device.StatusSuccess {
		return NewError("issueWrite").Physical(page).Cause(ErrDeviceFailure).Build()
	}
	return nil
}

// issueErase performs a physical ERASE of block. It refuses to issue an
// erase against a block already at its erase cap — the one choke point
// every GC procedure funnels through. Callers are responsible for
// incrementing eraseCount on success; issueErase only performs the
// physical side.
func (f *FTL) issueErase(ctx context.Context, block uint64) error {
	if f.eraseCount[block] >= f.geo.BlockErases {
		return NewError("issueErase").Physical(block).Cause(ErrEraseCapReached).Build()
	}
	ev := &device.PhysicalEvent{Op: device.OpErase, Block: block}
	status, err := f.ctrl.Issue(ctx, ev)
	if err != nil || status != device.StatusSuccess {
		return NewError("issueErase").Physical(block).Cause(ErrDeviceFailure).Build()
	}
	f.metrics.RecordErase()
	return nil
}
