package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aouyang1/go-traffic-forecaster/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearCSV() string {
	var b strings.Builder
	b.WriteString("month,visits\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "2023-%02d,%d\n", i+1, 100+10*i)
	}
	return b.String()
}

func TestParseFlags(t *testing.T) {
	testData := map[string]struct {
		args     []string
		expected *flags
		err      error
	}{
		"defaults": {
			args:     nil,
			expected: &flags{in: "-", horizon: 0, holdout: -1, format: "table", table: "forecast"},
		},
		"overrides": {
			args:     []string{"-in", "traffic.csv", "-horizon", "12", "-confidence", "0.95", "-format", "json"},
			expected: &flags{in: "traffic.csv", horizon: 12, confidence: 0.95, holdout: -1, format: "json", table: "forecast"},
		},
		"unknown format": {
			args: []string{"-format", "xml"},
			err:  ErrUnknownFormat,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TRAFFICCAST_CONFIG", "")
			var stderr bytes.Buffer
			f, err := parseFlags(td.args, &stderr)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, f)
		})
	}
}

func TestRun(t *testing.T) {
	testData := map[string]struct {
		args     []string
		contains []string
	}{
		"table": {
			args:     []string{"-horizon", "3"},
			contains: []string{"Forecast (80% interval):", "2024-01", "Growth:"},
		},
		"json": {
			args:     []string{"-horizon", "3", "-format", "json"},
			contains: []string{`"run_id"`, `"point_estimate": 220`},
		},
		"csv": {
			args:     []string{"-horizon", "3", "-format", "csv", "-table", "growth"},
			contains: []string{"date,segment,growth_pct", "2024-01-01,forecast,120.00"},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TRAFFICCAST_CONFIG", "")
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), td.args, strings.NewReader(linearCSV()), &stdout, &stderr)
			require.Nil(t, err, stderr.String())
			for _, c := range td.contains {
				assert.Contains(t, stdout.String(), c)
			}
		})
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	t.Setenv("TRAFFICCAST_CONFIG", "")
	dir := t.TempDir()
	in := filepath.Join(dir, "traffic.csv")
	require.Nil(t, os.WriteFile(in, []byte(linearCSV()), 0o644))

	outDir := filepath.Join(dir, "tables")
	plot := filepath.Join(dir, "forecast.html")
	metricsFile := filepath.Join(dir, "trafficcast.prom")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(),
		[]string{"-in", in, "-out", outDir, "-plot", plot, "-metrics-file", metricsFile},
		strings.NewReader(""), &stdout, &stderr)
	require.Nil(t, err, stderr.String())

	for _, table := range export.Tables {
		_, err := os.Stat(filepath.Join(outDir, string(table)+".csv"))
		assert.Nil(t, err, string(table))
	}

	html, err := os.ReadFile(plot)
	require.Nil(t, err)
	assert.Contains(t, string(html), "Traffic Forecast")

	prom, err := os.ReadFile(metricsFile)
	require.Nil(t, err)
	assert.Contains(t, string(prom), `trafficcast_cli_runs_total{outcome="success"} 1`)
}

func TestRunErrors(t *testing.T) {
	testData := map[string]struct {
		args  []string
		input string
	}{
		"horizon outside policy": {
			args:  []string{"-horizon", "48"},
			input: linearCSV(),
		},
		"no valid rows": {
			input: "month,visits\nfoo,bar\n",
		},
		"missing input file": {
			args: []string{"-in", filepath.Join(t.TempDir(), "missing.csv")},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TRAFFICCAST_CONFIG", "")
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), td.args, strings.NewReader(td.input), &stdout, &stderr)
			assert.NotNil(t, err)
			assert.Empty(t, stdout.String())
		})
	}
}
