package forecaster

import "time"

// Outcome labels a finished pipeline run
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeInvalidInput Outcome = "invalid_input"
	OutcomeFitFailure   Outcome = "fit_failure"
	OutcomeError        Outcome = "error"
)

// Recorder receives measurements from pipeline runs
type Recorder interface {
	RecordRun(outcome Outcome, fitDuration time.Duration)
	RecordDropped(reason string, count int)
	RecordSeries(points, anomalies int)
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(Outcome, time.Duration) {}
func (nopRecorder) RecordDropped(string, int)        {}
func (nopRecorder) RecordSeries(int, int)            {}
