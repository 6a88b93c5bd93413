package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/navpath/internal/config"
)

func TestAppendMetricsCSV_HeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")

	m := Metrics{
		Settings:              config.Default(),
		PrecomputationTime:    1500 * time.Millisecond,
		PathfindingTime:       250 * time.Millisecond,
		TotalPathsPrecomputed: 42,
	}
	require.NoError(t, AppendMetricsCSV(path, m))
	require.NoError(t, AppendMetricsCSV(path, m))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two rows")

	assert.Equal(t, metricsHeader, rows[0])
	assert.Equal(t, rows[1], rows[2])
	assert.Equal(t, "NavMesh.obj", rows[1][0])
	assert.Equal(t, "1500", rows[1][7])
	assert.Equal(t, "250", rows[1][8])
	assert.Equal(t, "42", rows[1][9])
}

func TestAppendMetricsCSV_ExistingFileNoHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, AppendMetricsCSV(path, Metrics{Settings: config.Default()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEqual(t, metricsHeader, rows[0])
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
		{"verbose", "INFO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in).String())
		})
	}
}
