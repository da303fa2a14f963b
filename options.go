package forecaster

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/aouyang1/go-traffic-forecaster/anomaly"
	"github.com/aouyang1/go-traffic-forecaster/forecast/options"
	"github.com/aouyang1/go-traffic-forecaster/growth"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
	"github.com/rs/zerolog"
)

const (
	DefaultHorizon         = 6
	DefaultHorizonMin      = 3
	DefaultHorizonMax      = 24
	DefaultConfidenceLevel = 0.8
	DefaultConfidenceMin   = 0.50
	DefaultConfidenceMax   = 0.99
)

var (
	ErrInvalidHorizon    = errors.New("horizon is outside of the horizon policy")
	ErrInvalidPolicy     = errors.New("invalid horizon policy")
	ErrInvalidConfidence = errors.New("confidence level is outside of the allowed range")
	ErrInvalidThreshold  = errors.New("anomaly threshold must be positive")
	ErrInvalidLag        = errors.New("growth lag must be positive")
	ErrInvalidHoldout    = errors.New("holdout periods must be non-negative")

	ErrInvalidForecastOptions = errors.New("invalid forecast options")
)

// HorizonPolicy bounds the number of months a caller may project. When Allowed is set the
// horizon must be one of its values in addition to lying within [Min, Max].
type HorizonPolicy struct {
	Min     int   `json:"min"`
	Max     int   `json:"max"`
	Allowed []int `json:"allowed,omitempty"`
}

// NewDefaultHorizonPolicy allows any horizon from 3 to 24 months
func NewDefaultHorizonPolicy() HorizonPolicy {
	return HorizonPolicy{Min: DefaultHorizonMin, Max: DefaultHorizonMax}
}

// Validate checks the policy itself is satisfiable
func (p HorizonPolicy) Validate() error {
	if p.Min < 1 || p.Max < p.Min {
		return fmt.Errorf("min %d, max %d, %w", p.Min, p.Max, ErrInvalidPolicy)
	}
	return nil
}

// Check reports whether horizon satisfies the policy
func (p HorizonPolicy) Check(horizon int) error {
	if horizon < p.Min || horizon > p.Max {
		return fmt.Errorf("%d not within [%d, %d], %w", horizon, p.Min, p.Max, ErrInvalidHorizon)
	}
	if len(p.Allowed) > 0 && !slices.Contains(p.Allowed, horizon) {
		return fmt.Errorf("%d not one of %v, %w", horizon, p.Allowed, ErrInvalidHorizon)
	}
	return nil
}

// Options configures every stage of a pipeline run
type Options struct {
	Horizon       int           `json:"horizon"`
	HorizonPolicy HorizonPolicy `json:"horizon_policy"`

	// ConfidenceLevel is the coverage of the prediction interval and must lie within
	// [ConfidenceMin, ConfidenceMax]
	ConfidenceLevel float64 `json:"confidence_level"`
	ConfidenceMin   float64 `json:"confidence_min"`
	ConfidenceMax   float64 `json:"confidence_max"`

	AnomalyThreshold float64 `json:"anomaly_threshold"`
	GrowthLag        int     `json:"growth_lag"`

	// HoldoutPeriods evaluates out of sample accuracy on the last periods of history when set
	HoldoutPeriods int `json:"holdout_periods"`

	IngestOptions   *ingest.Options  `json:"ingest_options"`
	ForecastOptions *options.Options `json:"forecast_options"`

	Logger   *zerolog.Logger `json:"-"`
	Recorder Recorder        `json:"-"`
}

// NewDefaultOptions projects 6 months at 80% confidence
func NewDefaultOptions() *Options {
	return &Options{
		Horizon:          DefaultHorizon,
		HorizonPolicy:    NewDefaultHorizonPolicy(),
		ConfidenceLevel:  DefaultConfidenceLevel,
		ConfidenceMin:    DefaultConfidenceMin,
		ConfidenceMax:    DefaultConfidenceMax,
		AnomalyThreshold: anomaly.DefaultThreshold,
		GrowthLag:        growth.DefaultLag,
		IngestOptions:    ingest.NewDefaultOptions(),
		ForecastOptions:  options.NewDefaultOptions(),
	}
}

// Validate checks every option. Out of range values are rejected, never clamped.
func (o *Options) Validate() error {
	if err := o.HorizonPolicy.Validate(); err != nil {
		return err
	}
	if err := o.HorizonPolicy.Check(o.Horizon); err != nil {
		return err
	}

	if math.IsNaN(o.ConfidenceLevel) || o.ConfidenceLevel <= 0 || o.ConfidenceLevel >= 1 {
		return fmt.Errorf("%v not within (0, 1), %w", o.ConfidenceLevel, ErrInvalidConfidence)
	}
	if o.ConfidenceLevel < o.ConfidenceMin || o.ConfidenceLevel > o.ConfidenceMax {
		return fmt.Errorf("%v not within [%v, %v], %w", o.ConfidenceLevel, o.ConfidenceMin, o.ConfidenceMax, ErrInvalidConfidence)
	}

	if math.IsNaN(o.AnomalyThreshold) || o.AnomalyThreshold <= 0 {
		return fmt.Errorf("got %v, %w", o.AnomalyThreshold, ErrInvalidThreshold)
	}
	if o.GrowthLag < 1 {
		return fmt.Errorf("got %d, %w", o.GrowthLag, ErrInvalidLag)
	}
	if o.HoldoutPeriods < 0 {
		return fmt.Errorf("got %d, %w", o.HoldoutPeriods, ErrInvalidHoldout)
	}

	if err := o.ForecastOptions.Validate(); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidForecastOptions, err)
	}
	return nil
}

// WithHorizon returns a copy of the options projecting horizon months
func (o *Options) WithHorizon(horizon int) *Options {
	c := *o
	c.Horizon = horizon
	return &c
}

// WithConfidence returns a copy of the options at the given confidence level
func (o *Options) WithConfidence(confidence float64) *Options {
	c := *o
	c.ConfidenceLevel = confidence
	return &c
}
