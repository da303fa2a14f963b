// Package config loads process configuration for the binaries. Values are layered from
// defaults, an optional YAML file, a .env file and TRAFFICCAST_ environment variables.
package config

import (
	"context"

	forecaster "github.com/aouyang1/go-traffic-forecaster"
	"github.com/aouyang1/go-traffic-forecaster/forecast/options"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
)

// Config contains process configuration
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error
	LogLevel  string `koanf:"log_level"`
	LogPretty bool   `koanf:"log_pretty"`

	// Addr configures the HTTP listen address, e.g. ":8080"
	Addr string `koanf:"addr"`

	Horizon    int     `koanf:"horizon"`
	Confidence float64 `koanf:"confidence"`
	HorizonMin int     `koanf:"horizon_min"`
	HorizonMax int     `koanf:"horizon_max"`

	// HorizonAllowed restricts horizons to a fixed menu when set
	HorizonAllowed []int `koanf:"horizon_allowed"`

	AnomalyThreshold float64 `koanf:"anomaly_threshold"`
	GrowthLag        int     `koanf:"growth_lag"`
	HoldoutPeriods   int     `koanf:"holdout_periods"`
	KeepZeros        bool    `koanf:"keep_zeros"`

	SeasonalityOrders int     `koanf:"seasonality_orders"`
	TradingDays       bool    `koanf:"trading_days"`
	Regularization    float64 `koanf:"regularization"`
	OutlierPasses     int     `koanf:"outlier_passes"`

	// MaxUploadBytes caps the size of an uploaded CSV body
	MaxUploadBytes int64    `koanf:"max_upload_bytes"`
	CORSOrigins    []string `koanf:"cors_origins"`
}

// New creates a Config with defaults matching the pipeline defaults
func New(_ context.Context) *Config {
	opt := forecaster.NewDefaultOptions()
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		Horizon:           opt.Horizon,
		Confidence:        opt.ConfidenceLevel,
		HorizonMin:        opt.HorizonPolicy.Min,
		HorizonMax:        opt.HorizonPolicy.Max,
		AnomalyThreshold:  opt.AnomalyThreshold,
		GrowthLag:         opt.GrowthLag,
		SeasonalityOrders: opt.ForecastOptions.SeasonalityOptions.Orders,
		MaxUploadBytes:    1 << 20,
		CORSOrigins:       []string{"*"},
	}
}

// PipelineOptions converts the configuration into validated pipeline options
func (c *Config) PipelineOptions() (*forecaster.Options, error) {
	fOpt := options.NewDefaultOptions()
	fOpt.SeasonalityOptions.Orders = c.SeasonalityOrders
	fOpt.TradingDays = c.TradingDays
	fOpt.Regularization = c.Regularization
	fOpt.OutlierOptions.NumPasses = c.OutlierPasses

	opt := forecaster.NewDefaultOptions()
	opt.Horizon = c.Horizon
	opt.ConfidenceLevel = c.Confidence
	opt.HorizonPolicy = forecaster.HorizonPolicy{
		Min:     c.HorizonMin,
		Max:     c.HorizonMax,
		Allowed: c.HorizonAllowed,
	}
	opt.AnomalyThreshold = c.AnomalyThreshold
	opt.GrowthLag = c.GrowthLag
	opt.HoldoutPeriods = c.HoldoutPeriods
	opt.IngestOptions = &ingest.Options{KeepZeros: c.KeepZeros}
	opt.ForecastOptions = fOpt

	if err := opt.Validate(); err != nil {
		return nil, wrapInvalid(err)
	}
	return opt, nil
}
