package feature

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

const CalendarTradingDays = "trading_days"

// USHolidays are the federal holidays removed from the weekday count of a month
var USHolidays = []*cal.Holiday{
	us.NewYear,
	us.MlkDay,
	us.PresidentsDay,
	us.MemorialDay,
	us.IndependenceDay,
	us.LaborDay,
	us.ColumbusDay,
	us.VeteransDay,
	us.ThanksgivingDay,
	us.ChristmasDay,
}

// Calendar is a regressor derived from the composition of each month, such as the
// number of business days it contains
type Calendar struct {
	Name string `json:"name"`
}

func NewCalendar(name string) *Calendar {
	return &Calendar{name}
}

func TradingDays() *Calendar {
	return NewCalendar(CalendarTradingDays)
}

func (c Calendar) String() string {
	return fmt.Sprintf("cal_%s", c.Name)
}

func (c Calendar) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	}
	return "", false
}

func (c Calendar) Type() FeatureType {
	return FeatureTypeCalendar
}

func (c Calendar) Decode() map[string]string {
	res := make(map[string]string)
	res["name"] = c.Name
	return res
}

// Generate returns the business day count of each month minus center. Returns nil for an
// unknown calendar name.
func (c Calendar) Generate(tSeries []time.Time, center float64) []float64 {
	if c.Name != CalendarTradingDays {
		return nil
	}
	res := make([]float64, len(tSeries))
	for i, t := range tSeries {
		res[i] = float64(BusinessDays(t.Year(), t.Month(), USHolidays)) - center
	}
	return res
}

// BusinessDays counts the weekdays in a month that are not an observed holiday. A holiday
// may be observed in the neighbouring year, e.g. a Saturday New Year's Day on 31-Dec.
func BusinessDays(year int, month time.Month, holidays []*cal.Holiday) int {
	observed := make(map[int]struct{})
	for _, hol := range holidays {
		for y := year - 1; y <= year+1; y++ {
			_, obs := hol.Calc(y)
			if obs.Month() == month && obs.Year() == year {
				observed[obs.Day()] = struct{}{}
			}
		}
	}

	var cnt int
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for day.Month() == month {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			if _, isHoliday := observed[day.Day()]; !isHoliday {
				cnt++
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return cnt
}
