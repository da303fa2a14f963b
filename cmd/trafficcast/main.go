// Command trafficcast forecasts a monthly traffic series read from a CSV file and prints the
// report as a table, JSON or one of the export tables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	forecaster "github.com/aouyang1/go-traffic-forecaster"
	"github.com/aouyang1/go-traffic-forecaster/export"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
	"github.com/aouyang1/go-traffic-forecaster/internal/config"
	"github.com/aouyang1/go-traffic-forecaster/internal/logger"
	"github.com/aouyang1/go-traffic-forecaster/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/pkg/profile"
)

var ErrUnknownFormat = errors.New("unknown output format")

type flags struct {
	in          string
	configPath  string
	horizon     int
	confidence  float64
	holdout     int
	format      string
	table       string
	outDir      string
	plot        string
	metricsFile string
	cpuProfile  bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	fs := flag.NewFlagSet("trafficcast", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &flags{}
	fs.StringVar(&f.in, "in", "-", "input csv with a month column and a value column, - for stdin")
	fs.StringVar(&f.configPath, "config", os.Getenv(config.EnvConfigPath), "optional yaml config file")
	fs.IntVar(&f.horizon, "horizon", 0, "months to project, 0 uses the configured horizon")
	fs.Float64Var(&f.confidence, "confidence", 0, "prediction interval coverage, 0 uses the configured level")
	fs.IntVar(&f.holdout, "holdout", -1, "periods held out for backtesting, -1 uses the configured value")
	fs.StringVar(&f.format, "format", "table", "output format: table, json or csv")
	fs.StringVar(&f.table, "table", string(export.TableForecast), "table written when format is csv")
	fs.StringVar(&f.outDir, "out", "", "directory to write every export table into")
	fs.StringVar(&f.plot, "plot", "", "write an html chart of the forecast to this path")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics in the prometheus textfile format")
	fs.BoolVar(&f.cpuProfile, "cpuprofile", false, "profile cpu usage into the working directory")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch f.format {
	case "table", "json", "csv":
	default:
		return nil, fmt.Errorf("%q, %w", f.format, ErrUnknownFormat)
	}
	return f, nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "trafficcast: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if f.cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	}

	cfg, err := config.LoadFile(ctx, f.configPath)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Out: stderr})

	if f.horizon > 0 {
		cfg.Horizon = f.horizon
	}
	if f.confidence > 0 {
		cfg.Confidence = f.confidence
	}
	if f.holdout >= 0 {
		cfg.HoldoutPeriods = f.holdout
	}
	opt, err := cfg.PipelineOptions()
	if err != nil {
		return err
	}
	opt.Logger = &log

	var m *metrics.Manager
	if f.metricsFile != "" {
		m = metrics.NewManager(metrics.WithSubsystem("cli"))
		opt.Recorder = m
	}

	fc, err := forecaster.New(opt)
	if err != nil {
		return err
	}

	records, err := readInput(f.in, stdin)
	if err != nil {
		return err
	}

	report, runErr := fc.Run(records)
	if m != nil {
		// failed runs are still counted
		if err := m.WriteToTextfile(f.metricsFile); err != nil {
			log.Error().Err(err).Str("path", f.metricsFile).Msg("unable to write metrics")
		}
	}
	if runErr != nil {
		return runErr
	}

	if err := writeReport(stdout, report, f); err != nil {
		return err
	}
	if f.outDir != "" {
		if err := writeTables(f.outDir, report); err != nil {
			return err
		}
		log.Info().Str("dir", f.outDir).Msg("wrote export tables")
	}
	if f.plot != "" {
		if err := writePlot(f.plot, report); err != nil {
			return err
		}
		log.Info().Str("path", f.plot).Msg("wrote forecast chart")
	}
	return nil
}

func readInput(path string, stdin io.Reader) ([]ingest.Record, error) {
	if path == "-" || path == "" {
		return export.ReadRecords(stdin)
	}
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input, %w", err)
	}
	defer fd.Close()
	return export.ReadRecords(fd)
}

func writeReport(w io.Writer, report *forecaster.Report, f *flags) error {
	switch f.format {
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("unable to marshal report, %w", err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "csv":
		table, ok := export.ParseTable(f.table)
		if !ok {
			return fmt.Errorf("unknown table %q", f.table)
		}
		return report.WriteCSV(w, table)
	}
	return report.TablePrint(w)
}

func writeTables(dir string, report *forecaster.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory, %w", err)
	}
	for _, table := range export.Tables {
		if err := writeFile(filepath.Join(dir, string(table)+".csv"), func(w io.Writer) error {
			return report.WriteCSV(w, table)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writePlot(path string, report *forecaster.Report) error {
	return writeFile(path, report.PlotHTML)
}

func writeFile(path string, write func(io.Writer) error) error {
	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	if err := write(fd); err != nil {
		fd.Close()
		return fmt.Errorf("unable to write %s, %w", path, err)
	}
	return fd.Close()
}
