package feature

import (
	"gonum.org/v1/gonum/mat"
)

// Set tracks feature data keyed by the string representation of each feature. Labels
// are kept in insertion order so the resulting matrix columns are deterministic.
type Set struct {
	m      int
	set    map[string][]float64
	labels []Feature
}

func NewSet() *Set {
	return &Set{
		set: make(map[string][]float64),
	}
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil {
		return 0
	}
	return s.m
}

// Set stores the data of a feature. Shorter series are zero padded to the longest series
// in the set. Setting an existing feature replaces its data.
func (s *Set) Set(f Feature, data []float64) *Set {
	if s.set == nil {
		s.set = make(map[string][]float64)
	}

	if len(data) > s.m {
		for label, d := range s.set {
			s.set[label] = append(d, make([]float64, len(data)-len(d))...)
		}
		s.m = len(data)
	}

	d := make([]float64, s.m)
	copy(d, data)

	label := f.String()
	if _, exists := s.set[label]; !exists {
		s.labels = append(s.labels, f)
	}
	s.set[label] = d
	return s
}

// Get returns the data of a feature if it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	d, exists := s.set[f.String()]
	return d, exists
}

// Update merges all features of other into the set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, f := range other.labels {
		s.Set(f, other.set[f.String()])
	}
	return s
}

// Labels returns a copy of the feature labels in column order
func (s *Set) Labels() []Feature {
	if s == nil {
		return nil
	}
	labels := make([]Feature, len(s.labels))
	copy(labels, s.labels)
	return labels
}

// Filter returns a new set of only the features for which keep returns true
func (s *Set) Filter(keep func(Feature) bool) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, f := range s.labels {
		if keep(f) {
			res.Set(f, s.set[f.String()])
		}
	}
	return res
}

// Matrix returns a matrix representation of the set with m rows representing observations
// and n columns representing features
func (s *Set) Matrix() *mat.Dense {
	if s.Len() == 0 || s.m == 0 {
		return nil
	}

	n := len(s.labels)
	obs := make([]float64, s.m*n)
	for j, f := range s.labels {
		d := s.set[f.String()]
		for i := 0; i < s.m; i++ {
			obs[n*i+j] = d[i]
		}
	}
	return mat.NewDense(s.m, n, obs)
}
