// Package forecaster runs the monthly traffic pipeline: it validates raw rows into a monthly
// series, fits and projects the forecast, then flags anomalies and derives accuracy and
// growth tables from the fit.
package forecaster

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/accuracy"
	"github.com/aouyang1/go-traffic-forecaster/anomaly"
	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/growth"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pipeline failures callers are expected to match on with errors.Is
var (
	ErrInvalidDate      = ingest.ErrInvalidDate
	ErrNoValidData      = ingest.ErrNoValidData
	ErrInsufficientData = ingest.ErrInsufficientData
	ErrModelFitFailure  = forecast.ErrModelFitFailure
	ErrLengthMismatch   = accuracy.ErrLengthMismatch
)

// Forecaster holds validated options and runs the pipeline. It keeps no state between runs
// and is safe for concurrent use.
type Forecaster struct {
	opt *Options
	log zerolog.Logger
	rec Recorder
}

// New creates a new instance of a Forecaster using the provided options. If no options are
// provided a default is used.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}

	f := &Forecaster{
		opt: opt,
		log: zerolog.Nop(),
		rec: nopRecorder{},
	}
	if opt.Logger != nil {
		f.log = opt.Logger.With().Str("module", "forecaster").Logger()
	}
	if opt.Recorder != nil {
		f.rec = opt.Recorder
	}
	return f, nil
}

// Options returns the options the forecaster runs with
func (f *Forecaster) Options() *Options {
	return f.opt
}

// Run validates the records and produces the full report. Any failure aborts the run and no
// partial report is returned.
func (f *Forecaster) Run(records []ingest.Record) (*Report, error) {
	runID := uuid.NewString()
	log := f.log.With().Str("run_id", runID).Logger()

	ingested, err := ingest.Validate(records, f.opt.IngestOptions)
	if err != nil {
		f.rec.RecordRun(OutcomeInvalidInput, 0)
		return nil, fmt.Errorf("unable to validate series, %w", err)
	}
	f.logIngest(log, ingested)

	rep, err := f.analyze(log, ingested.Dataset)
	if err != nil {
		return nil, err
	}
	rep.RunID = runID
	rep.Ingest = ingested
	rep.Precision = ingested.Precision()
	return rep, nil
}

// RunDataset runs the pipeline on an already validated series
func (f *Forecaster) RunDataset(td *timedataset.TimeDataset) (*Report, error) {
	if td.Len() < ingest.MinPoints {
		f.rec.RecordRun(OutcomeInvalidInput, 0)
		return nil, fmt.Errorf("%d point(s), %w", td.Len(), ErrInsufficientData)
	}
	runID := uuid.NewString()
	rep, err := f.analyze(f.log.With().Str("run_id", runID).Logger(), td.Copy())
	if err != nil {
		return nil, err
	}
	rep.RunID = runID
	rep.Precision = td.Precision()
	return rep, nil
}

func (f *Forecaster) logIngest(log zerolog.Logger, res *ingest.Result) {
	reasons := make(map[string]int)
	for _, d := range res.Dropped {
		log.Debug().Int("row", d.Index).Str("label", d.Label).Err(d.Err).Msg("dropped row")
		reasons[d.Reason()]++
	}
	for reason, cnt := range reasons {
		f.rec.RecordDropped(reason, cnt)
	}
	if res.Duplicates > 0 {
		log.Warn().Int("duplicates", res.Duplicates).Msg("duplicate months overwritten by later rows")
	}
	if len(res.Gaps) > 0 {
		log.Warn().Int("gaps", len(res.Gaps)).Int("cadence_months", res.Cadence).Msg("series has missing months")
	}
}

func (f *Forecaster) analyze(log zerolog.Logger, td *timedataset.TimeDataset) (*Report, error) {
	fc, err := forecast.New(f.opt.ForecastOptions)
	if err != nil {
		f.rec.RecordRun(OutcomeError, 0)
		return nil, fmt.Errorf("unable to initialize forecast, %w", err)
	}
	fc.SetLogger(log)

	start := time.Now()
	res, err := fc.FitAndForecast(td, f.opt.Horizon, f.opt.ConfidenceLevel)
	fitDuration := time.Since(start)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, forecast.ErrModelFitFailure) {
			outcome = OutcomeFitFailure
		}
		f.rec.RecordRun(outcome, fitDuration)
		return nil, fmt.Errorf("unable to forecast series, %w", err)
	}
	if degraded, reason := res.Model.Degraded(); degraded {
		log.Warn().Str("reason", reason).Msg("forecast degraded to trend only")
	}

	anomalies := anomaly.Detect(td, f.opt.AnomalyThreshold)

	metrics, err := accuracy.Evaluate(td, res.Fitted)
	if err != nil {
		f.rec.RecordRun(OutcomeError, fitDuration)
		return nil, fmt.Errorf("unable to evaluate in-sample accuracy, %w", err)
	}

	var holdout *BacktestResult
	if f.opt.HoldoutPeriods > 0 {
		holdout, err = Backtest(td, f.opt.HoldoutPeriods, f.opt.ConfidenceLevel, f.opt.ForecastOptions)
		if err != nil {
			log.Warn().Err(err).Int("holdout_periods", f.opt.HoldoutPeriods).Msg("skipping holdout evaluation")
			holdout = nil
		}
	}

	growthRecords := growth.Compute(td, res.Projected, f.opt.GrowthLag)

	f.rec.RecordSeries(td.Len(), len(anomalies))
	f.rec.RecordRun(OutcomeSuccess, fitDuration)
	log.Info().
		Int("points", td.Len()).
		Int("horizon", f.opt.Horizon).
		Int("anomalies", len(anomalies)).
		Float64("mape", metrics.MAPE).
		Dur("fit_duration", fitDuration).
		Msg("forecast complete")

	return &Report{
		Horizon:    f.opt.Horizon,
		Confidence: f.opt.ConfidenceLevel,
		History:    td,
		Result:     res,
		Anomalies:  anomalies,
		Accuracy:   metrics,
		Holdout:    holdout,
		Growth:     growthRecords,
	}, nil
}
