package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateMonths returns n consecutive months beginning at the month containing start
func GenerateMonths(start time.Time, n int) []time.Time {
	t := make([]time.Time, 0, n)
	first := MonthStart(start)
	for i := 0; i < n; i++ {
		t = append(t, AddMonths(first, i))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites values falling in [start, end) with val
func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		if (t[i].After(start) || t[i].Equal(start)) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLinearY returns slope*i for each of the n points
func GenerateLinearY(n int, slope float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, slope*float64(i))
	}
	return Series(y)
}

// GenerateWaveY generates a yearly sinusoid of the given Fourier order. phase is in months.
func GenerateWaveY(t []time.Time, amp, order, phase float64) Series {
	n := len(t)
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		moy := float64(t[i].Month()-1) + phase
		val := amp * math.Sin(2.0*math.Pi*order/12.0*moy)
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise returns gaussian noise from a seeded source so fixtures are reproducible
func GenerateNoise(n int, scale float64, seed uint64) Series {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*scale)
	}
	return Series(y)
}

// GenerateChange adds a level shift of bias plus slope per month from chpt onwards
func GenerateChange(t []time.Time, chpt time.Time, bias, slope float64) Series {
	n := len(t)
	y := make([]float64, n)
	c := MonthIndex(chpt)
	for i := 0; i < n; i++ {
		m := MonthIndex(t[i])
		if m >= c {
			y[i] = bias + slope*float64(m-c)
		}
	}
	return Series(y)
}
