package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is returned by Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// DatabaseSourcePrefix marks NavMeshSource values that name a stored mesh.
const DatabaseSourcePrefix = "db:"

// Settings holds pathfinder and harness configuration.
// Settings are read once at startup and never mutated afterwards.
type Settings struct {
	// Navmesh: path to an OBJ file, or "db:<name>" for a stored mesh.
	NavMeshSource string `yaml:"navmesh_source"`

	// Precompute
	UsePrecomputedCache  bool    `yaml:"use_precomputed_cache"`
	PrecomputeRadius     float64 `yaml:"precompute_radius"`      // max distance between sampled endpoints
	TotalPrecomputePairs int     `yaml:"total_precompute_pairs"` // sampling attempts
	Seed                 uint64  `yaml:"seed"`                   // 0 = random

	// Cache
	CacheCapacity int `yaml:"cache_capacity"`

	// Workers shared by precompute and segmented queries (0 = NumCPU)
	Workers int `yaml:"workers"`

	// Harness (cmd/navpath)
	LogLevel      string `yaml:"log_level"`
	SampleQueries int    `yaml:"sample_queries"`
	SegmentCount  int    `yaml:"segment_count"` // < 2 = single-threaded queries
	MetricsCSV    string `yaml:"metrics_csv"`

	// Database
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns Settings with sensible defaults.
func Default() Settings {
	return Settings{
		NavMeshSource:        "NavMesh.obj",
		UsePrecomputedCache:  true,
		PrecomputeRadius:     50,
		TotalPrecomputePairs: 1000,
		CacheCapacity:        10000,
		LogLevel:             "info",
		SampleQueries:        100,
		SegmentCount:         1,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "navpath",
			Password: "navpath",
			DBName:   "navpath",
			SSLMode:  "disable",
		},
	}
}

// Load loads settings from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Settings, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the pathfinder-relevant fields.
func (s Settings) Validate() error {
	switch {
	case s.CacheCapacity < 1:
		return fmt.Errorf("%w: cache_capacity must be positive, got %d", ErrInvalidSettings, s.CacheCapacity)
	case s.TotalPrecomputePairs < 0:
		return fmt.Errorf("%w: total_precompute_pairs must not be negative, got %d", ErrInvalidSettings, s.TotalPrecomputePairs)
	case math.IsNaN(s.PrecomputeRadius) || math.IsInf(s.PrecomputeRadius, 0) || s.PrecomputeRadius < 0:
		return fmt.Errorf("%w: precompute_radius must be a finite non-negative number, got %v", ErrInvalidSettings, s.PrecomputeRadius)
	case s.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidSettings, s.Workers)
	}
	return nil
}

// MeshName returns the stored mesh name when NavMeshSource points at the
// database.
func (s Settings) MeshName() (string, bool) {
	name, ok := strings.CutPrefix(s.NavMeshSource, DatabaseSourcePrefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
