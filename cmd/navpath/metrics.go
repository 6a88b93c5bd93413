package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/udisondev/navpath/internal/config"
)

// Metrics is one benchmark run of the harness.
type Metrics struct {
	Settings              config.Settings
	PrecomputationTime    time.Duration
	PathfindingTime       time.Duration
	TotalPathsPrecomputed int
}

var metricsHeader = []string{
	"navmesh_source",
	"use_precomputed_cache",
	"precompute_radius",
	"total_precompute_pairs",
	"cache_capacity",
	"sample_queries",
	"segment_count",
	"precomputation_time_ms",
	"pathfinding_time_ms",
	"total_paths_precomputed",
}

func (m Metrics) record() []string {
	s := m.Settings
	return []string{
		s.NavMeshSource,
		strconv.FormatBool(s.UsePrecomputedCache),
		strconv.FormatFloat(s.PrecomputeRadius, 'f', -1, 64),
		strconv.Itoa(s.TotalPrecomputePairs),
		strconv.Itoa(s.CacheCapacity),
		strconv.Itoa(s.SampleQueries),
		strconv.Itoa(s.SegmentCount),
		strconv.FormatInt(m.PrecomputationTime.Milliseconds(), 10),
		strconv.FormatInt(m.PathfindingTime.Milliseconds(), 10),
		strconv.Itoa(m.TotalPathsPrecomputed),
	}
}

// AppendMetricsCSV appends m to the CSV file at path. The header row is
// written only when the file is created.
func AppendMetricsCSV(path string, m Metrics) (err error) {
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening metrics file %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing metrics file %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(metricsHeader); err != nil {
			return fmt.Errorf("writing metrics header: %w", err)
		}
	}
	if err := w.Write(m.record()); err != nil {
		return fmt.Errorf("writing metrics row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing metrics: %w", err)
	}
	return nil
}
