package feature

import (
	"fmt"
	"strings"
)

type ChangepointComp string

const (
	ChangepointCompSlope ChangepointComp = "slope"
)

// Changepoint is a month after which the trend slope may change. Only the slope
// component is modelled so the trend stays continuous through the changepoint.
type Changepoint struct {
	Name            string          `json:"name"`
	ChangepointComp ChangepointComp `json:"changepoint_component"`
}

func NewChangepoint(name string, comp ChangepointComp) *Changepoint {
	return &Changepoint{name, comp}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s_%s", c.Name, c.ChangepointComp)
}

func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	case "changepoint_component":
		return string(c.ChangepointComp), true
	}
	return "", false
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = c.Name
	res["changepoint_component"] = string(c.ChangepointComp)
	return res
}

// Generate returns the hinge max(0, m - chpt) scaled by the training span
func (c Changepoint) Generate(monthIdx []float64, chpt, trainStart, trainEnd float64) []float64 {
	span := trainEnd - trainStart
	if span <= 0 {
		span = 1
	}
	res := make([]float64, len(monthIdx))
	for i, m := range monthIdx {
		if m > chpt {
			res[i] = (m - chpt) / span
		}
	}
	return res
}
