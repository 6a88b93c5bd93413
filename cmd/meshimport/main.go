// Command meshimport stores an OBJ navmesh in PostgreSQL so that the
// pathfinder can load it with navmesh_source: "db:<name>".
//
// Usage:
//
//	meshimport <file.obj> [name]
//
// The name defaults to the file name without extension.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/udisondev/navpath/internal/config"
	"github.com/udisondev/navpath/internal/db"
	"github.com/udisondev/navpath/internal/navmesh"
)

const ConfigPath = "config/navpath.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: meshimport <file.obj> [name]")
	}
	objPath := args[0]
	name := strings.TrimSuffix(filepath.Base(objPath), filepath.Ext(objPath))
	if len(args) == 2 {
		name = args[1]
	}

	cfgPath := ConfigPath
	if p := os.Getenv("NAVPATH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	mesh, err := navmesh.LoadOBJ(objPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", objPath, err)
	}
	// Reject meshes the pathfinder would refuse before touching the database.
	if _, err := navmesh.Build(mesh); err != nil {
		return fmt.Errorf("validating %s: %w", objPath, err)
	}

	dsn := cfg.Database.DSN()
	if err := db.RunMigrations(ctx, dsn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	database, err := db.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Meshes().Save(ctx, name, mesh); err != nil {
		return err
	}

	slog.Info("navmesh imported",
		"file", objPath,
		"name", name,
		"source", config.DatabaseSourcePrefix+name)
	return nil
}
