package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type FourierComp string

const (
	FourierCompSin FourierComp = "sin"
	FourierCompCos FourierComp = "cos"
)

type Seasonality struct {
	Name        string      `json:"name"`
	FourierComp FourierComp `json:"fourier_component"`
	Order       int         `json:"order"`
}

func NewSeasonality(name string, fcomp FourierComp, order int) *Seasonality {
	return &Seasonality{name, fcomp, order}
}

func (s Seasonality) String() string {
	return fmt.Sprintf("seas_%s_%02d_%s", s.Name, s.Order, s.FourierComp)
}

func (s Seasonality) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return s.Name, true
	case "fourier_component":
		return string(s.FourierComp), true
	case "order":
		return strconv.Itoa(s.Order), true
	}
	return "", false
}

func (s Seasonality) Type() FeatureType {
	return FeatureTypeSeasonality
}

func (s Seasonality) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = s.Name
	res["fourier_component"] = string(s.FourierComp)
	res["order"] = strconv.Itoa(s.Order)
	return res
}

// Generate evaluates the Fourier component of the configured order on the time feature
// for a cycle of the given period, both expressed in the same unit
func (s Seasonality) Generate(timeFeature []float64, period float64) []float64 {
	omega := 2.0 * math.Pi * float64(s.Order) / period
	res := make([]float64, len(timeFeature))
	for i, tFeat := range timeFeature {
		rad := omega * tFeat
		switch s.FourierComp {
		case FourierCompSin:
			res[i] = math.Sin(rad)
		case FourierCompCos:
			res[i] = math.Cos(rad)
		}
	}
	return res
}
