package metrics

import (
	dto "github.com/prometheus/client_model/go"
)

// Snapshot is a flattened, read-only view of the registry's current gauge
// and counter values, keyed by metric name and (for vectors) label value.
// It exists so a poller like the TUI can read current values without
// reaching into Prometheus's wire types itself.
type Snapshot struct {
	Gauges          map[string]float64
	Counters        map[string]float64
	CountersByLabel map[string]map[string]float64
}

// Snapshot gathers every metric family registered under r and flattens it.
func (r *Registry) Snapshot() (Snapshot, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Gauges:          make(map[string]float64),
		Counters:        make(map[string]float64),
		CountersByLabel: make(map[string]map[string]float64),
	}

	for _, fam := range families {
		name := fam.GetName()
		for _, m := range fam.GetMetric() {
			switch {
			case m.GetGauge() != nil:
				snap.Gauges[name] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				if labels := m.GetLabel(); len(labels) > 0 {
					byLabel, ok := snap.CountersByLabel[name]
					if !ok {
						byLabel = make(map[string]float64)
						snap.CountersByLabel[name] = byLabel
					}
					byLabel[labelKey(labels)] = m.GetCounter().GetValue()
				} else {
					snap.Counters[name] = m.GetCounter().GetValue()
				}
			}
		}
	}

	return snap, nil
}

func labelKey(labels []*dto.LabelPair) string {
	if len(labels) == 1 {
		return labels[0].GetValue()
	}
	key := ""
	for i, l := range labels {
		if i > 0 {
			key += ","
		}
		key += l.GetValue()
	}
	return key
}
