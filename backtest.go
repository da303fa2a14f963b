package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-traffic-forecaster/accuracy"
	"github.com/aouyang1/go-traffic-forecaster/forecast"
	"github.com/aouyang1/go-traffic-forecaster/forecast/options"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

var ErrHoldoutTooLarge = errors.New("holdout leaves too few points to train on")

// BacktestResult is the out of sample accuracy of a model trained without the last Holdout
// periods of history
type BacktestResult struct {
	Holdout   int              `json:"holdout_periods"`
	TrainSize int              `json:"train_size"`
	Projected []forecast.Point `json:"projected"`
	Metrics   accuracy.Metrics `json:"metrics"`
}

// Backtest fits on all but the last holdout points of td and evaluates the projection of the
// held out months against their actual values
func Backtest(td *timedataset.TimeDataset, holdout int, confidence float64, opt *options.Options) (*BacktestResult, error) {
	if holdout < 1 {
		return nil, fmt.Errorf("got %d, %w", holdout, ErrInvalidHoldout)
	}
	trainSize := td.Len() - holdout
	if trainSize < forecast.MinTrainingPoints {
		return nil, fmt.Errorf("%d of %d points held out, %w", holdout, td.Len(), ErrHoldoutTooLarge)
	}

	train, err := td.Slice(0, trainSize)
	if err != nil {
		return nil, fmt.Errorf("unable to slice training set, %w", err)
	}
	test, err := td.Slice(trainSize, td.Len())
	if err != nil {
		return nil, fmt.Errorf("unable to slice holdout set, %w", err)
	}

	f, err := forecast.New(opt)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast, %w", err)
	}
	if err := f.Fit(train.T, train.Y); err != nil {
		return nil, fmt.Errorf("unable to fit training set, %w", err)
	}

	projected, _, err := f.Predict(test.T, confidence)
	if err != nil {
		return nil, fmt.Errorf("unable to project holdout months, %w", err)
	}

	metrics, err := accuracy.Evaluate(test, projected)
	if err != nil {
		return nil, fmt.Errorf("unable to evaluate holdout accuracy, %w", err)
	}

	return &BacktestResult{
		Holdout:   holdout,
		TrainSize: trainSize,
		Projected: projected,
		Metrics:   metrics,
	}, nil
}
