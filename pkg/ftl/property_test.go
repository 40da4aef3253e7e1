package ftl

import (
	"context"
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/ftlsim/pkg/device"
	"github.com/dd0wney/ftlsim/pkg/geometry"
)

// TestProperty_ReadAfterWrite checks the fundamental law of the mapping:
// a read immediately following a write to the same logical address always
// succeeds and never fails with ReadBeforeWrite.
func TestProperty_ReadAfterWrite(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("write then read never fails", prop.ForAll(
		func(logical uint64) bool {
			geo, err := geometry.New(4, 1, 1, 1, 4, 5, 50)
			if err != nil {
				return false
			}
			dev := device.NewSimDevice(64, geo.BlockSize)
			f := New(geo, dev, Options{PageSize: 64})
			ctx := context.Background()

			l := logical % geo.Usable
			if err := f.Translate(ctx, &Event{Type: EventWrite, Logical: l}); err != nil {
				return false
			}
			return f.Translate(ctx, &Event{Type: EventRead, Logical: l}) == nil
		},
		gen.UInt64Range(0, 1000),
	))

	props.TestingRun(t)
}

// TestProperty_ShuffleFreesTheLightlyWornBlock checks the wear-balancing
// contract ShuffleDataLog exists for: the block it hands back to the free
// pool must be the one with the lowest erase count among unlogged data
// blocks at the time of the shuffle, not the most-worn pair it just
// cleaned. An inverted shuffle would instead free the heavily-worn block,
// which this property catches directly rather than relying on
// read-after-write coverage to notice.
func TestProperty_ShuffleFreesTheLightlyWornBlock(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("freed block is never more worn than the pair it was cleaned from", prop.ForAll(
		func(seed uint8) bool {
			geo, err := geometry.New(4, 1, 1, 1, 4, 5, 50)
			if err != nil {
				return false
			}
			dev := device.NewSimDevice(64, geo.BlockSize)
			f := New(geo, dev, Options{PageSize: 64})
			ctx := context.Background()

			n := int(seed)%30 + 10
			for i := 0; i < n; i++ {
				l := uint64(i) % geo.Usable
				if err := f.Translate(ctx, &Event{Type: EventWrite, Logical: l}); err != nil {
					if errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrEraseCapReached) {
						break
					}
					return false
				}
			}

			D, _, worn := f.mostWornPair()
			before := make([]uint32, len(f.eraseCount))
			copy(before, f.eraseCount)

			if !worn || !f.ShuffleDataLog(ctx) {
				// Nothing eligible to shuffle under this workload; vacuous pass.
				return true
			}

			freed := f.freePool[len(f.freePool)-1]
			if f.eraseCount[freed] >= geo.BlockErases {
				return false // violates: free pool must contain no block at the erase cap
			}
			if freed == D {
				return false // the most-worn pair's data block must never be the one freed
			}
			return before[freed] <= before[D]
		},
		gen.UInt8Range(0, 255),
	))

	props.TestingRun(t)
}

// TestProperty_FreePoolNeverAtEraseCap checks the §8 testable property
// directly: after any workload, no block sitting in the free pool has
// reached the erase cap.
func TestProperty_FreePoolNeverAtEraseCap(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("free pool contains no block at the erase cap", prop.ForAll(
		func(writes uint16) bool {
			geo, err := geometry.New(4, 1, 1, 1, 4, 5, 50)
			if err != nil {
				return false
			}
			dev := device.NewSimDevice(64, geo.BlockSize)
			f := New(geo, dev, Options{PageSize: 64})
			ctx := context.Background()

			n := int(writes) % 500
			for i := 0; i < n; i++ {
				l := uint64(i) % geo.Usable
				if err := f.Translate(ctx, &Event{Type: EventWrite, Logical: l}); err != nil {
					if errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrEraseCapReached) {
						break
					}
					return false
				}
			}

			for _, b := range f.freePool {
				if f.eraseCount[b] >= geo.BlockErases {
					return false
				}
			}
			return true
		},
		gen.UInt16Range(0, 2000),
	))

	props.TestingRun(t)
}

// TestProperty_RepeatedWritesStayReadable checks that a logical page
// repeatedly overwritten - forcing log-block fills and cleans - is always
// readable afterwards without error.
func TestProperty_RepeatedWritesStayReadable(t *testing.T) {
	params := gopter.DefaultTestParameters()
	props := gopter.NewProperties(params)

	props.Property("repeated overwrite keeps the page readable", prop.ForAll(
		func(writes uint8) bool {
			geo, err := geometry.New(4, 1, 1, 1, 4, 5, 50)
			if err != nil {
				return false
			}
			dev := device.NewSimDevice(64, geo.BlockSize)
			f := New(geo, dev, Options{PageSize: 64})
			ctx := context.Background()

			const L = uint64(0)
			n := int(writes)%20 + 1
			for i := 0; i < n; i++ {
				if err := f.Translate(ctx, &Event{Type: EventWrite, Logical: L}); err != nil {
					// PoolExhausted/EraseCapReached are legitimate
					// terminal states once the tiny geometry wears out;
					// anything else is a bug.
					return errors.Is(err, ErrPoolExhausted) || errors.Is(err, ErrEraseCapReached)
				}
			}
			return f.Translate(ctx, &Event{Type: EventRead, Logical: L}) == nil
		},
		gen.UInt8Range(0, 255),
	))

	props.TestingRun(t)
}
