package options

// OutlierOptions configures the residual outlier passes. Each pass fits the model, flags
// residuals outside the Tukey fences computed from the given percentiles and refits without
// them. NumPasses of 0 disables outlier removal.
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewDefaultOutlierOptions() OutlierOptions {
	return OutlierOptions{
		NumPasses:       0,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

func (o OutlierOptions) Validate() error {
	if o.NumPasses < 0 || o.TukeyFactor < 0 {
		return ErrInvalidOutlierOptions
	}
	if o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile > o.UpperPercentile {
		return ErrInvalidOutlierOptions
	}
	return nil
}

const DefaultMinNoiseFraction = 0.01

// IntervalOptions configures the prediction intervals. MinNoiseFraction floors the residual
// standard error at that fraction of the mean absolute training value so that a series
// fit exactly still reports a non-degenerate interval.
type IntervalOptions struct {
	MinNoiseFraction float64 `json:"min_noise_fraction"`
}

func NewDefaultIntervalOptions() IntervalOptions {
	return IntervalOptions{
		MinNoiseFraction: DefaultMinNoiseFraction,
	}
}

func (i IntervalOptions) Validate() error {
	if i.MinNoiseFraction < 0 || i.MinNoiseFraction >= 1 {
		return ErrInvalidNoiseFraction
	}
	return nil
}
