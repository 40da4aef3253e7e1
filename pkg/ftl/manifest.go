package ftl

import "github.com/dd0wney/ftlsim/pkg/pools"

// Manifest is the ordered record of which logical page offsets have been
// appended to a log block. Its length is the count of used pages in the
// log block; the position of the last occurrence of an offset is the
// physical page within the log block holding the freshest copy.
type Manifest struct {
	offsets []uint64
}

func newManifest(capacityHint uint64) *Manifest {
	return &Manifest{offsets: pools.GetUint64s(int(capacityHint))}
}

// Append records that dataPageOffset was just written to the next free page
// in this log block.
func (m *Manifest) Append(dataPageOffset uint64) {
	m.offsets = append(m.offsets, dataPageOffset)
}

// Len returns the number of used pages in the log block.
func (m *Manifest) Len() int {
	return len(m.offsets)
}

// FetchLogPage returns the index of the last occurrence of dataPageOffset,
// i.e. the physical page within the log block holding its freshest copy.
func (m *Manifest) FetchLogPage(dataPageOffset uint64) (pageIndex int, ok bool) {
	for i := len(m.offsets) - 1; i >= 0; i-- {
		if m.offsets[i] == dataPageOffset {
			return i, true
		}
	}
	return 0, false
}

// NextFreeLogPage returns the current manifest length if the log block
// still has room for blockSize pages.
func (m *Manifest) NextFreeLogPage(blockSize uint64) (pageIndex int, ok bool) {
	if uint64(len(m.offsets)) < blockSize {
		return len(m.offsets), true
	}
	return 0, false
}

// Offsets returns the manifest's entries in arrival order, for callers that
// need to walk the full list.
func (m *Manifest) Offsets() []uint64 {
	return m.offsets
}

// release returns the manifest's backing slice to the pool. Call only when
// the manifest itself is being discarded (clean resets the caller's
// reference to a fresh manifest instead of mutating this one in place).
func (m *Manifest) release() {
	pools.PutUint64s(m.offsets)
	m.offsets = nil
}
