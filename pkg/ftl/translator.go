package ftl

import (
	"context"
	"errors"
	"time"
)

// Translate converts one host I/O event into a physical page address,
// applying the write-path and read-path rules of the hybrid log-block
// scheme in order. It holds the FTL's lock for the duration of the call, so
// at most one event is in flight at a time.
func (f *FTL) Translate(ctx context.Context, ev *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	if ev.Start.IsZero() {
		ev.Start = start
	}

	var err error
	switch ev.Type {
	case EventWrite:
		err = f.translateWrite(ctx, ev)
	case EventRead:
		err = f.translateRead(ev)
	default:
		err = NewError("Translate").Logical(ev.Logical).Cause(ErrUnsupportedHostOp).Build()
	}

	f.metrics.RecordTranslate(ev.Type.String(), time.Since(start), failKind(err))
	return err
}

func failKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLogicalOutOfRange):
		return "LogicalOutOfRange"
	case errors.Is(err, ErrReadBeforeWrite):
		return "ReadBeforeWrite"
	case errors.Is(err, ErrPoolExhausted):
		return "PoolExhausted"
	case errors.Is(err, ErrEraseCapReached):
		return "EraseCapReached"
	case errors.Is(err, ErrDeviceFailure):
		return "DeviceFailure"
	case errors.Is(err, ErrUnsupportedHostOp):
		return "UnsupportedHostOp"
	default:
		return "Unknown"
	}
}

// translateWrite implements the three write-path rules: first write is an
// identity mapping, a subsequent write to a logical block that already has
// a mapped log block is appended (or triggers cleaning if that log block is
// full), and a logical block with no log block yet mapped gets one from the
// free pool.
func (f *FTL) translateWrite(ctx context.Context, ev *Event) error {
	L := ev.Logical
	if L >= f.geo.Usable {
		return NewError("Translate").Logical(L).Cause(ErrLogicalOutOfRange).Build()
	}

	lb, pageOffset := f.geo.LogicalBlockOf(L)

	// Rule 1: first write to this logical page is an identity mapping onto
	// its default data page. No physical event is issued here; the
	// caller's controller records the destination.
	if !f.written.Test(L) {
		f.written.Set(L)
		ev.Physical = f.geo.DataPage(L, f.logToData[lb])
		return nil
	}

	D := f.dataBlockOf(lb)

	if Λ, mapped := f.logBlockOf(D); mapped {
		M := f.manifests[Λ]

		if k, ok := M.NextFreeLogPage(f.geo.BlockSize); ok {
			M.Append(pageOffset)
			ev.Physical = f.geo.BlockBase(Λ) + uint64(k)
			return nil
		}

		// The mapped log block is full: clean it, remapping either side
		// first if it is sitting at its erase cap.
		if f.eraseCount[D] >= f.geo.BlockErases {
			newD := f.RemapDataBlock(ctx, lb, D, Λ)
			if newD == Λ {
				return NewError("Translate").Logical(L).Cause(ErrEraseCapReached).Build()
			}
			D = newD
		}
		if f.eraseCount[Λ] >= f.geo.BlockErases {
			newΛ := f.RemapLogBlock(ctx, lb, D)
			if newΛ == D {
				return NewError("Translate").Logical(L).Cause(ErrEraseCapReached).Build()
			}
			Λ = newΛ
		}

		if !f.Clean(ctx, lb, D, Λ) {
			return NewError("Translate").Logical(L).Cause(ErrPoolExhausted).Build()
		}

		if old := f.manifests[Λ]; old != nil {
			old.release()
		}
		fresh := newManifest(f.geo.BlockSize)
		fresh.Append(pageOffset)
		f.manifests[Λ] = fresh

		ev.Physical = f.geo.BlockBase(Λ)
		return nil
	}

	// Rule 3: no log block mapped yet for this data block's logical block.
	newΛ, ok := f.NextUnmappedLogBlock(ctx)
	if !ok {
		return NewError("Translate").Logical(L).Cause(ErrPoolExhausted).Build()
	}
	f.dataToLog[D] = int64(newΛ) - int64(D)
	m := newManifest(f.geo.BlockSize)
	m.Append(pageOffset)
	f.manifests[newΛ] = m

	ev.Physical = f.geo.BlockBase(newΛ)
	return nil
}

// translateRead implements the three read-path rules: a never-written
// logical page fails, a page with a fresher copy in a mapped log block
// reads from there, and everything else falls back to the identity data
// page.
func (f *FTL) translateRead(ev *Event) error {
	L := ev.Logical
	if L >= f.geo.Usable {
		return NewError("Translate").Logical(L).Cause(ErrLogicalOutOfRange).Build()
	}
	if !f.written.Test(L) {
		return NewError("Translate").Logical(L).Cause(ErrReadBeforeWrite).Build()
	}

	lb, pageOffset := f.geo.LogicalBlockOf(L)
	D := f.dataBlockOf(lb)

	if Λ, mapped := f.logBlockOf(D); mapped {
		if M, ok := f.manifests[Λ]; ok {
			if k, hit := M.FetchLogPage(pageOffset); hit {
				ev.Physical = f.geo.BlockBase(Λ) + uint64(k)
				return nil
			}
		}
	}

	ev.Physical = f.geo.DataPage(L, f.logToData[lb])
	return nil
}
