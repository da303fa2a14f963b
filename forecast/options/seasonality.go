package options

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aouyang1/go-traffic-forecaster/forecast/util"
)

const (
	DefaultSeasonalityOrders = 3
	DefaultMinCycles         = 2
)

// SeasonalityOptions configures the yearly Fourier series. Orders is the highest harmonic
// to fit and MinCycles is the number of full years of history required before any
// seasonality is modelled.
type SeasonalityOptions struct {
	Orders    int `json:"orders"`
	MinCycles int `json:"min_cycles"`
}

// NewDefaultSeasonalityOptions generates a yearly seasonality config of 3 orders requiring
// two years of history
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		Orders:    DefaultSeasonalityOrders,
		MinCycles: DefaultMinCycles,
	}
}

func (s SeasonalityOptions) Validate() error {
	if s.Orders < 0 {
		return ErrNegativeOrders
	}
	if s.MinCycles < 0 {
		return ErrNegativeMinCycles
	}
	return nil
}

// MinHistory returns the number of months of history needed to fit seasonality
func (s SeasonalityOptions) MinHistory() int {
	return s.MinCycles * YearlyPeriod
}

// MaxOrder returns the highest yearly harmonic observable when sampling every cadence
// months
func MaxOrder(cadence int) int {
	if cadence <= 0 {
		return 0
	}
	return YearlyPeriod / (2 * cadence)
}

// FourierOrders returns the orders to fit at the given cadence, capped at the highest
// observable harmonic
func (s SeasonalityOptions) FourierOrders(cadence int) []int {
	n := min(s.Orders, MaxOrder(cadence))
	if n <= 0 {
		return nil
	}
	orders := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		orders = append(orders, i)
	}
	return orders
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if s.Orders == 0 {
		_, err := fmt.Fprintf(w, "%s%sSeasonality: None\n", prefix, util.IndentExpand(indent, indentGrowth))
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%sSeasonality:\n", prefix, util.IndentExpand(indent, indentGrowth)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tbl, "%s%sName\tPeriod\tOrders\tMinCycles\t\n", prefix, util.IndentExpand(indent, indentGrowth+1))
	fmt.Fprintf(tbl, "%s%s%s\t%dmo\t%d\t%d\t\n",
		prefix, util.IndentExpand(indent, indentGrowth+1),
		LabelSeasYearly, YearlyPeriod, s.Orders, s.MinCycles)
	return tbl.Flush()
}
