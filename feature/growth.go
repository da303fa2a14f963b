package feature

import (
	"fmt"
	"strings"
)

const (
	GrowthIntercept = "intercept"
	GrowthLinear    = "linear"
	GrowthQuadratic = "quadratic"
)

type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

// String returns the string representation of the growth feature
func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (g Growth) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return g.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

// Decode converts the feature into a map of label values
func (g Growth) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = g.Name
	return res
}

// Generate evaluates the growth curve on month indices. The linear term is scaled so the
// training window spans [0, 1]; values beyond the window extrapolate past 1. Returns nil
// for an unknown growth name.
func (g Growth) Generate(monthIdx []float64, trainStart, trainEnd float64) []float64 {
	span := trainEnd - trainStart
	if span <= 0 {
		span = 1
	}

	res := make([]float64, len(monthIdx))
	for i, m := range monthIdx {
		x := (m - trainStart) / span
		switch g.Name {
		case GrowthIntercept:
			res[i] = 1.0
		case GrowthLinear:
			res[i] = x
		case GrowthQuadratic:
			res[i] = x * x
		default:
			return nil
		}
	}
	return res
}

func Intercept() *Growth {
	return NewGrowth(GrowthIntercept)
}

func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

func Quadratic() *Growth {
	return NewGrowth(GrowthQuadratic)
}
