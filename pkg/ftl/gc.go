package ftl

import (
	"context"

	"github.com/dd0wney/ftlsim/pkg/logging"
)

// NextUnmappedLogBlock pops a block off the free pool for use as a fresh
// log block, skipping (and discarding) any retired block it finds at the
// top of the stack. If the pool is empty it first tries ShuffleDataLog to
// mint a new free block before giving up.
func (f *FTL) NextUnmappedLogBlock(ctx context.Context) (uint64, bool) {
	if len(f.freePool) == 0 {
		if !f.ShuffleDataLog(ctx) {
			return 0, false
		}
	}

	for len(f.freePool) > 0 {
		b := f.popFreePool()
		if f.eraseCount[b] < f.geo.BlockErases {
			f.metrics.SetPoolFreeBlocks(len(f.freePool))
			return b, true
		}
		// b is retired; drop it rather than pushing it back.
	}

	f.metrics.SetPoolFreeBlocks(len(f.freePool))
	return 0, false
}

func (f *FTL) popFreePool() uint64 {
	n := len(f.freePool)
	b := f.freePool[n-1]
	f.freePool = f.freePool[:n-1]
	return b
}

func (f *FTL) pushFreePool(b uint64) {
	f.freePool = append(f.freePool, b)
	f.metrics.SetPoolFreeBlocks(len(f.freePool))
}

// Clean merges the live pages of logical block lb, currently split across
// data block D and log block Λ, into a third scratch block, erases D and Λ,
// copies the merged content back into D, and erases the scratch block in
// turn. The caller is responsible for installing a fresh (empty) manifest
// for Λ afterwards; Clean itself never touches the logical→data or
// data→log tables.
func (f *FTL) Clean(ctx context.Context, lb, D, Λ uint64) bool {
	fail := func(reason string, err error) bool {
		f.metrics.RecordGCFailure("clean")
		f.log.Warn("clean failed", logging.String("reason", reason),
			logging.PhysicalBlock(D), logging.PhysicalBlock(Λ), logging.Error(err))
		return false
	}

	scratch, ok := f.findEmptyDataBlockForCleaning()
	if !ok {
		return fail("no scratch block available", nil)
	}

	M := f.manifests[Λ]

	for i := uint64(0); i < f.geo.BlockSize; i++ {
		L := lb*f.geo.BlockSize + i
		if !f.written.Test(L) {
			continue
		}

		var src uint64
		if k, hit := M.FetchLogPage(i); hit {
			src = f.geo.BlockBase(Λ) + uint64(k)
		} else {
			src = f.geo.BlockBase(D) + i
		}

		buf, err := f.issueRead(ctx, src)
		if err != nil {
			return fail("read into scratch", err)
		}
		if err := f.issueWrite(ctx, f.geo.BlockBase(scratch)+i, buf); err != nil {
			return fail("write into scratch", err)
		}
	}

	if err := f.issueErase(ctx, D); err != nil {
		return fail("erase data block", err)
	}
	if err := f.issueErase(ctx, Λ); err != nil {
		return fail("erase log block", err)
	}

	for i := uint64(0); i < f.geo.BlockSize; i++ {
		L := lb*f.geo.BlockSize + i
		if !f.written.Test(L) {
			continue
		}
		buf, err := f.issueRead(ctx, f.geo.BlockBase(scratch)+i)
		if err != nil {
			return fail("read back from scratch", err)
		}
		if err := f.issueWrite(ctx, f.geo.BlockBase(D)+i, buf); err != nil {
			return fail("write back to data block", err)
		}
	}

	if err := f.issueErase(ctx, scratch); err != nil {
		return fail("erase scratch block", err)
	}

	f.eraseCount[D]++
	f.eraseCount[Λ]++
	f.eraseCount[scratch]++

	f.metrics.RecordClean()
	f.updateWearMetrics()
	f.log.Debug("clean completed",
		logging.PhysicalBlock(D), logging.PhysicalBlock(Λ), logging.PhysicalBlock(scratch),
		logging.EraseCount(f.eraseCount[D]))
	return true
}

// RemapDataBlock relocates logical block lb's live pages (save for those
// whose freshest copy already lives in Λ's manifest) off Dold onto a fresh
// data block, returning the new block on success or Λ itself as the
// failure sentinel.
func (f *FTL) RemapDataBlock(ctx context.Context, lb, Dold, Λ uint64) uint64 {
	fail := func(reason string, err error) uint64 {
		f.metrics.RecordGCFailure("remap_data")
		f.log.Warn("remap_data failed", logging.String("reason", reason),
			logging.PhysicalBlock(Dold), logging.Error(err))
		return Λ
	}

	Dnew, owner, displaced := f.findEmptyDataBlockForRemapping()
	if !displaced {
		var ok bool
		Dnew, ok = f.NextUnmappedLogBlock(ctx)
		if !ok {
			return fail("pool exhausted", nil)
		}
	}

	M := f.manifests[Λ]
	for i := uint64(0); i < f.geo.BlockSize; i++ {
		L := lb*f.geo.BlockSize + i
		if !f.written.Test(L) {
			continue
		}
		if _, hit := M.FetchLogPage(i); hit {
			continue // freshest copy lives in Λ; the follow-on clean carries it
		}
		buf, err := f.issueRead(ctx, f.geo.BlockBase(Dold)+i)
		if err != nil {
			return fail("read source page", err)
		}
		if err := f.issueWrite(ctx, f.geo.BlockBase(Dnew)+i, buf); err != nil {
			return fail("write target page", err)
		}
	}

	if displaced {
		f.logToData[owner] = int64(Dold) - int64(owner)
	}
	f.logToData[lb] = int64(Dnew) - int64(lb)
	f.dataToLog[Dold] = 0
	f.dataToLog[Dnew] = int64(Λ) - int64(Dnew)

	f.metrics.RecordRemap("data")
	f.log.Debug("remap_data completed", logging.PhysicalBlock(Dold), logging.PhysicalBlock(Dnew))
	return Dnew
}

// RemapLogBlock relocates log block Λold's live entries onto a fresh log
// block, returning the new block on success or D itself as the failure
// sentinel. Λold is left unmapped and un-erased: it sits at its erase cap
// by construction (this is only called for that reason), so it can never
// be physically erased again and is simply retired rather than returned
// to the free pool.
func (f *FTL) RemapLogBlock(ctx context.Context, lb, D uint64) uint64 {
	Λold, _ := f.logBlockOf(D)

	fail := func(reason string, err error, mnew *Manifest) uint64 {
		if mnew != nil {
			mnew.release()
		}
		f.metrics.RecordGCFailure("remap_log")
		f.log.Warn("remap_log failed", logging.String("reason", reason),
			logging.PhysicalBlock(D), logging.PhysicalBlock(Λold), logging.Error(err))
		return D
	}

	Λnew, ok := f.NextUnmappedLogBlock(ctx)
	if !ok {
		return fail("pool exhausted", nil, nil)
	}

	Mold := f.manifests[Λold]
	Mnew := newManifest(f.geo.BlockSize)

	for i := uint64(0); i < f.geo.BlockSize; i++ {
		L := lb*f.geo.BlockSize + i
		if !f.written.Test(L) {
			continue
		}
		k, hit := Mold.FetchLogPage(i)
		if !hit {
			continue
		}
		buf, err := f.issueRead(ctx, f.geo.BlockBase(Λold)+uint64(k))
		if err != nil {
			return fail("read log page", err, Mnew)
		}
		j, _ := Mnew.NextFreeLogPage(f.geo.BlockSize)
		if err := f.issueWrite(ctx, f.geo.BlockBase(Λnew)+uint64(j), buf); err != nil {
			return fail("write log page", err, Mnew)
		}
		Mnew.Append(i)
	}

	f.dataToLog[D] = int64(Λnew) - int64(D)
	f.manifests[Λnew] = Mnew
	delete(f.manifests, Λold)
	Mold.release()

	f.metrics.RecordRemap("log")
	f.log.Debug("remap_log completed", logging.PhysicalBlock(Λold), logging.PhysicalBlock(Λnew))
	return Λnew
}

// ShuffleDataLog mints a new free block by finding the most-worn data/log
// pair still under the erase cap and cleaning it, which settles the
// heavily-erased pair out of the log role entirely. It then relocates the
// least-erased unlogged data block's own logical block onto the vacated
// log block's physical slot, erases that lightly-worn block once, and
// pushes it onto the free pool. It is the wear-balancing primitive: a
// lightly-erased block inherits log duty (and the higher erase frequency
// that comes with it) going forward, while the heavily-erased block stays
// in the data role, which is erased far less often.
func (f *FTL) ShuffleDataLog(ctx context.Context) bool {
	fail := func(reason string, err error) bool {
		f.metrics.RecordGCFailure("shuffle")
		f.log.Warn("shuffle failed", logging.String("reason", reason), logging.Error(err))
		return false
	}

	D, Λ, found := f.mostWornPair()
	if !found {
		return fail("no eligible worn pair", nil)
	}

	lb, ok := f.logicalBlockMappedTo(D)
	if !ok {
		return fail("data block has no owning logical block", nil)
	}

	// Dmin is the block that inherits log duty: the least-erased data
	// block not already carrying one. Its logical block is what actually
	// gets relocated onto Λ below, not lb's.
	Dmin, _, ok := f.leastErasedUnlogged()
	if !ok {
		return fail("no low-wear data block left to absorb log duty", nil)
	}
	lbMin, ok := f.logicalBlockMappedTo(Dmin)
	if !ok {
		return fail("low-wear data block has no owning logical block", nil)
	}

	if !f.Clean(ctx, lb, D, Λ) {
		return false
	}
	f.dataToLog[D] = 0
	delete(f.manifests, Λ)

	for i := uint64(0); i < f.geo.BlockSize; i++ {
		L := lbMin*f.geo.BlockSize + i
		if !f.written.Test(L) {
			continue
		}
		buf, err := f.issueRead(ctx, f.geo.BlockBase(Dmin)+i)
		if err != nil {
			return fail("read for relocation", err)
		}
		if err := f.issueWrite(ctx, f.geo.BlockBase(Λ)+i, buf); err != nil {
			return fail("write for relocation", err)
		}
	}

	if err := f.issueErase(ctx, Dmin); err != nil {
		return fail("erase old data block", err)
	}
	f.eraseCount[Dmin]++

	f.logToData[lbMin] = int64(Λ) - int64(lbMin)
	f.pushFreePool(Dmin)

	f.metrics.RecordShuffle()
	f.updateWearMetrics()
	f.log.Info("shuffle completed", logging.PhysicalBlock(D), logging.PhysicalBlock(Λ),
		logging.PhysicalBlock(Dmin), logging.EraseCount(f.eraseCount[Dmin]))
	return true
}

// mostWornPair scans every mapped data/log pair and returns the one with
// the greatest combined erase count among pairs where both blocks remain
// under the cap. Ties resolve to the last pair encountered in physical
// block order, not the first.
func (f *FTL) mostWornPair() (D, Λ uint64, found bool) {
	var bestCombined int64 = -1
	for d := uint64(0); d < f.geo.NumPhysicalBlocks; d++ {
		l, mapped := f.logBlockOf(d)
		if !mapped {
			continue
		}
		if f.eraseCount[d] >= f.geo.BlockErases || f.eraseCount[l] >= f.geo.BlockErases {
			continue
		}
		combined := int64(f.eraseCount[d]) + int64(f.eraseCount[l])
		if combined >= bestCombined {
			D, Λ, bestCombined, found = d, l, combined, true
		}
	}
	return D, Λ, found
}

// logicalBlockMappedTo returns the logical block currently mapped to
// physical data block D.
func (f *FTL) logicalBlockMappedTo(D uint64) (uint64, bool) {
	for lb := uint64(0); lb < f.geo.NumLogicalBlocks; lb++ {
		if f.dataBlockOf(lb) == D {
			return lb, true
		}
	}
	return 0, false
}

// logicalBlockAllClear reports whether every logical page in block lb is
// still unwritten.
func (f *FTL) logicalBlockAllClear(lb uint64) bool {
	for i := uint64(0); i < f.geo.BlockSize; i++ {
		if f.written.Test(lb*f.geo.BlockSize + i) {
			return false
		}
	}
	return true
}

// findEmptyDataBlockForCleaning scans every logical block for one whose
// pages are entirely unwritten and whose physical data block is under the
// erase cap, returning the least-erased such candidate to use as cleaning
// scratch space.
func (f *FTL) findEmptyDataBlockForCleaning() (uint64, bool) {
	var best uint64
	var bestErase uint32
	found := false
	for lb := uint64(0); lb < f.geo.NumLogicalBlocks; lb++ {
		if !f.logicalBlockAllClear(lb) {
			continue
		}
		d := f.dataBlockOf(lb)
		if f.eraseCount[d] >= f.geo.BlockErases {
			continue
		}
		if !found || f.eraseCount[d] < bestErase {
			best, bestErase, found = d, f.eraseCount[d], true
		}
	}
	return best, found
}

// findEmptyDataBlockForRemapping applies the same eligibility rule as
// findEmptyDataBlockForCleaning, additionally returning the logical block
// that currently owns the candidate (an empty data block is still the
// mapped home of exactly one logical block).
func (f *FTL) findEmptyDataBlockForRemapping() (block, owner uint64, ok bool) {
	var bestErase uint32
	found := false
	for lb := uint64(0); lb < f.geo.NumLogicalBlocks; lb++ {
		if !f.logicalBlockAllClear(lb) {
			continue
		}
		d := f.dataBlockOf(lb)
		if f.eraseCount[d] >= f.geo.BlockErases {
			continue
		}
		if !found || f.eraseCount[d] < bestErase {
			block, owner, bestErase, found = d, lb, f.eraseCount[d], true
		}
	}
	return block, owner, found
}

// leastErasedUnlogged scans every logical block's data block for one with
// no log block mapped, returning the least-erased such block. It fails if
// none exists or if the least-erased one is already within one erase of
// the cap, since shuffling in that case would not buy meaningful headroom.
func (f *FTL) leastErasedUnlogged() (uint64, uint32, bool) {
	var best uint64
	var bestErase uint32
	found := false
	for lb := uint64(0); lb < f.geo.NumLogicalBlocks; lb++ {
		d := f.dataBlockOf(lb)
		if _, mapped := f.logBlockOf(d); mapped {
			continue
		}
		if !found || f.eraseCount[d] < bestErase {
			best, bestErase, found = d, f.eraseCount[d], true
		}
	}
	if !found || bestErase >= f.geo.BlockErases-1 {
		return 0, 0, false
	}
	return best, bestErase, true
}

// updateWearMetrics recomputes the wear-spread and at-cap gauges after an
// operation that changed erase counts.
func (f *FTL) updateWearMetrics() {
	var min, max uint32
	atCap := 0
	for i, c := range f.eraseCount {
		if i == 0 {
			min, max = c, c
		} else {
			min = minOf(min, c)
			max = maxOf(max, c)
		}
		if c >= f.geo.BlockErases {
			atCap++
		}
	}
	f.metrics.SetWearSpread(max - min)
	f.metrics.SetBlocksAtEraseCap(atCap)
}
