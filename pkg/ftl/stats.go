package ftl

import (
	"encoding/json"

	"github.com/golang/snappy"
)

// Stats is a point-in-time dump of the FTL's wear and occupancy state,
// cheap enough to take under the lock and safe to hand to a reader that
// cannot touch the tables directly.
type Stats struct {
	UsableLogicalPages uint64   `json:"usable_logical_pages"`
	WrittenPages       uint64   `json:"written_pages"`
	FreePoolBlocks     int      `json:"free_pool_blocks"`
	BlocksAtEraseCap   int      `json:"blocks_at_erase_cap"`
	EraseCounts        []uint32 `json:"erase_counts"`
}

// Stats returns a copy of the FTL's current wear and occupancy state.
func (f *FTL) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	atCap := 0
	for _, c := range f.eraseCount {
		if c >= f.geo.BlockErases {
			atCap++
		}
	}

	return Stats{
		UsableLogicalPages: f.geo.Usable,
		WrittenPages:       f.written.Count(),
		FreePoolBlocks:     len(f.freePool),
		BlocksAtEraseCap:   atCap,
		EraseCounts:        append([]uint32(nil), f.eraseCount...),
	}
}

// StatsSnapshot encodes the current Stats as snappy-compressed JSON, so the
// admin API can cheaply ship a wear-state dump without holding the FTL's
// lock for longer than Stats itself takes.
func (f *FTL) StatsSnapshot() ([]byte, error) {
	raw, err := json.Marshal(f.Stats())
	if err != nil {
		return nil, NewError("StatsSnapshot").Cause(err).Build()
	}
	return snappy.Encode(nil, raw), nil
}

// DecodeStatsSnapshot reverses StatsSnapshot, for consumers on the other
// side of the admin API.
func DecodeStatsSnapshot(snapshot []byte) (Stats, error) {
	raw, err := snappy.Decode(nil, snapshot)
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	if err := json.Unmarshal(raw, &s); err != nil {
		return Stats{}, err
	}
	return s, nil
}
