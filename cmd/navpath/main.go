package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/navpath/internal/config"
	"github.com/udisondev/navpath/internal/db"
	"github.com/udisondev/navpath/internal/navmesh"
	"github.com/udisondev/navpath/internal/pathfind"
	"github.com/udisondev/navpath/internal/pathfinder"
)

const ConfigPath = "config/navpath.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("NAVPATH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("navpath starting",
		"config", cfgPath,
		"navmesh", cfg.NavMeshSource,
		"precompute", cfg.UsePrecomputedCache)

	mesh, err := loadMesh(ctx, cfg)
	if err != nil {
		return fmt.Errorf("loading navmesh: %w", err)
	}

	pf, err := pathfinder.New(ctx, cfg, mesh)
	if err != nil {
		return fmt.Errorf("creating pathfinder: %w", err)
	}

	elapsed, found, err := runQueries(ctx, pf, cfg)
	if err != nil {
		return fmt.Errorf("running sample queries: %w", err)
	}

	stats := pf.Stats()
	slog.Info("sample queries finished",
		"queries", cfg.SampleQueries,
		"found", found,
		"elapsed", elapsed,
		"cache_hits", stats.Cache.Hits,
		"cache_misses", stats.Cache.Misses,
		"cached", stats.Cache.Len)

	if cfg.MetricsCSV != "" {
		m := Metrics{
			Settings:              cfg,
			PrecomputationTime:    stats.Precompute.Duration,
			PathfindingTime:       elapsed,
			TotalPathsPrecomputed: stats.Precompute.Solved,
		}
		if err := AppendMetricsCSV(cfg.MetricsCSV, m); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		slog.Info("metrics written", "file", cfg.MetricsCSV)
	}
	return nil
}

// loadMesh reads the navmesh from an OBJ file or, for "db:<name>" sources,
// from PostgreSQL.
func loadMesh(ctx context.Context, cfg config.Settings) (navmesh.Mesh, error) {
	name, fromDB := cfg.MeshName()
	if !fromDB {
		return navmesh.LoadOBJ(cfg.NavMeshSource)
	}

	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return navmesh.Mesh{}, fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return navmesh.Mesh{}, fmt.Errorf("running migrations: %w", err)
	}
	return database.Meshes().Load(ctx, name)
}

// runQueries issues cfg.SampleQueries random queries concurrently, the way
// many NPCs would, and returns the wall time and number of found paths.
func runQueries(ctx context.Context, pf *pathfinder.Pathfinder, cfg config.Settings) (time.Duration, int64, error) {
	graph := pf.Graph()
	if cfg.SampleQueries <= 0 || graph.Len() == 0 {
		return 0, 0, nil
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, ^seed))
	type query struct{ start, goal navmesh.Vec3 }
	queries := make([]query, cfg.SampleQueries)
	for i := range queries {
		queries[i] = query{
			start: graph.Pos(navmesh.NodeID(rng.IntN(graph.Len()))),
			goal:  graph.Pos(navmesh.NodeID(rng.IntN(graph.Len()))),
		}
	}

	var found atomic.Int64
	began := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, q := range queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var (
				path *pathfind.Path
				err  error
			)
			if cfg.SegmentCount >= 2 {
				path, err = pf.FindPathMultithreaded(q.start, q.goal, cfg.SegmentCount)
			} else {
				path, err = pf.FindPath(q.start, q.goal)
			}
			if err != nil {
				return err
			}
			if path != nil {
				found.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return time.Since(began), found.Load(), nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
