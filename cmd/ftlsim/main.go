// Command ftlsim drives a synthetic host workload against an in-memory
// FTL, for exercising the translation and garbage-collection paths outside
// of a test binary.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/ftlsim/pkg/config"
	"github.com/dd0wney/ftlsim/pkg/device"
	"github.com/dd0wney/ftlsim/pkg/ftl"
	"github.com/dd0wney/ftlsim/pkg/geometry"
	"github.com/dd0wney/ftlsim/pkg/logging"
	"github.com/dd0wney/ftlsim/pkg/metrics"
)

func main() {
	geometryPath := flag.String("geometry", "", "path to a geometry YAML file (defaults to a small built-in geometry)")
	ops := flag.Int("ops", 100000, "number of host events to issue")
	writeRatio := flag.Float64("write-ratio", 0.7, "fraction of events that are writes")
	seed := flag.Int64("seed", 1, "PRNG seed for the synthetic workload")
	flag.Parse()

	runID := uuid.New().String()
	log := logging.NewDefaultLogger().With(logging.String("run_id", runID))

	geo, err := loadGeometry(*geometryPath)
	if err != nil {
		log.Error("failed to load geometry", logging.Error(err))
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	dev := device.NewSimDevice(4096, geo.BlockSize)
	f := ftl.New(geo, dev, ftl.Options{Logger: log, Metrics: reg, PageSize: 4096})

	log.Info("starting workload",
		logging.Int("ops", *ops),
		logging.Uint64("usable_logical_pages", geo.Usable),
		logging.Uint64("physical_blocks", geo.NumPhysicalBlocks),
	)

	rng := rand.New(rand.NewSource(*seed))
	ctx := context.Background()

	start := time.Now()
	var failures int
	for i := 0; i < *ops; i++ {
		L := rng.Uint64() % geo.Usable

		ev := &ftl.Event{Type: ftl.EventWrite, Logical: L}
		if rng.Float64() >= *writeRatio {
			ev.Type = ftl.EventRead
		}

		if err := f.Translate(ctx, ev); err != nil {
			failures++
			log.Warn("event failed", logging.Operation(ev.Type.String()), logging.LogicalAddr(L), logging.Error(err))
		}
	}

	log.Info("workload complete",
		logging.Duration("elapsed", time.Since(start)),
		logging.Count(*ops),
		logging.Int("failures", failures),
	)
}

func loadGeometry(path string) (*geometry.Geometry, error) {
	if path == "" {
		return geometry.New(64, 1, 1, 1, 64, 1000, 15)
	}
	return config.Load(path)
}
