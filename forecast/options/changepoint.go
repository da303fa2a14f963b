package options

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-traffic-forecaster/feature"
	"github.com/aouyang1/go-traffic-forecaster/forecast/util"
	"github.com/aouyang1/go-traffic-forecaster/timedataset"
)

var (
	DefaultAutoNumChangepoints int     = 3
	DefaultChangepointRange    float64 = 0.8
)

// Changepoint describes a month after which the ongoing trend may change slope
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection
// by evenly placing N changepoints on observed months in the first Range fraction of the
// training window, or a set of known changepoints. Running with auto-detection on short
// series will generally require a regularization parameter to avoid overfitting.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	Range               float64       `json:"range"`
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	return TablePrintChangepoints(w, prefix, indent, indentGrowth, c.Changepoints)
}

// TablePrintChangepoints prints a table of changepoint names and months
func TablePrintChangepoints(w io.Writer, prefix, indent string, indentGrowth int, chpts []Changepoint) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	noCfg := " None"
	if len(chpts) > 0 {
		noCfg = ""
		fmt.Fprintf(tbl, "%s%sName\tMonth\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	}
	fmt.Fprintf(w, "%s%sChangepoints:%s\n", prefix, util.IndentExpand(indent, indentGrowth), noCfg)
	for _, chpt := range chpts {
		fmt.Fprintf(tbl, "%s%s%s\t%s\t\n",
			prefix, util.IndentExpand(indent, indentGrowth+1),
			chpt.Name, chpt.T.Format("2006-01"))
	}
	return tbl.Flush()
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                false,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		Range:               DefaultChangepointRange,
		Changepoints:        nil,
	}
}

func (c ChangepointOptions) Validate() error {
	if c.AutoNumChangepoints < 0 {
		return ErrNegativeChangepoints
	}
	if c.Range < 0 || c.Range > 1 {
		return fmt.Errorf("got %.3f, %w", c.Range, ErrInvalidChangepointSpan)
	}
	return nil
}

// GenerateAutoChangepoints places changepoints on observed months evenly spread over the
// first Range fraction of t. The first and last months are never used.
func (c ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	if !c.Auto || len(t) < 3 {
		return nil
	}

	n := c.AutoNumChangepoints
	if n == 0 {
		n = DefaultAutoNumChangepoints
	}
	span := c.Range
	if span == 0 {
		span = DefaultChangepointRange
	}

	seen := make(map[int]struct{})
	chpts := make([]Changepoint, 0, n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * span * float64(len(t)-1) / float64(n)))
		if idx <= 0 || idx >= len(t)-1 {
			continue
		}
		if _, exists := seen[idx]; exists {
			continue
		}
		seen[idx] = struct{}{}
		chpts = append(chpts, NewChangepoint(fmt.Sprintf("auto_%02d", len(chpts)), t[idx]))
	}
	return chpts
}

// Resolve returns the known and auto changepoints that fall strictly inside the training
// months, ordered by time and deduplicated by month
func (c ChangepointOptions) Resolve(t []time.Time) []Changepoint {
	if len(t) < 2 {
		return nil
	}
	start := timedataset.MonthIndex(t[0])
	end := timedataset.MonthIndex(t[len(t)-1])

	candidates := make([]Changepoint, 0, len(c.Changepoints)+c.AutoNumChangepoints)
	candidates = append(candidates, c.Changepoints...)
	candidates = append(candidates, c.GenerateAutoChangepoints(t)...)

	seen := make(map[int]struct{})
	res := make([]Changepoint, 0, len(candidates))
	for i, chpt := range candidates {
		idx := timedataset.MonthIndex(chpt.T)
		// a changepoint on or after the last training month would never be observed
		if idx <= start || idx >= end {
			continue
		}
		if _, exists := seen[idx]; exists {
			continue
		}
		seen[idx] = struct{}{}
		if chpt.Name == "" {
			chpt.Name = fmt.Sprintf("%d", i)
		}
		chpt.T = timedataset.MonthStart(chpt.T)
		res = append(res, chpt)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].T.Before(res[j].T)
	})
	return res
}

// GenerateChangepointFeatures returns a slope hinge feature for every changepoint
func GenerateChangepointFeatures(chpts []Changepoint, monthIdx []float64, trainStart, trainEnd float64) *feature.Set {
	feat := feature.NewSet()
	for _, chpt := range chpts {
		chpntSlope := feature.NewChangepoint(chpt.Name, feature.ChangepointCompSlope)
		feat.Set(chpntSlope, chpntSlope.Generate(monthIdx, float64(timedataset.MonthIndex(chpt.T)), trainStart, trainEnd))
	}
	return feat
}
