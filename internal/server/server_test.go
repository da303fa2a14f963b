package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	forecaster "github.com/aouyang1/go-traffic-forecaster"
	"github.com/aouyang1/go-traffic-forecaster/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	. "github.com/smartystreets/goconvey/convey"
)

func linearCSV() string {
	var b strings.Builder
	b.WriteString("month,visits\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "2023-%02d,%d\n", i+1, 100+10*i)
	}
	return b.String()
}

type forecastResponse struct {
	RunID    string `json:"run_id"`
	Horizon  int    `json:"horizon"`
	Forecast []struct {
		Point float64 `json:"point_estimate"`
		Lower float64 `json:"lower_bound"`
		Upper float64 `json:"upper_bound"`
	} `json:"forecast"`
}

func newTestServer(cfg Config) (*Server, *metrics.Manager) {
	m := metrics.NewManager()
	cfg.Log = zerolog.Nop()
	cfg.Metrics = m
	return New(cfg), m
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	Convey("Given a server", t, func() {
		s, _ := newTestServer(Config{})

		Convey("When checking health", func() {
			rec := do(s, http.MethodGet, "/healthz", "")

			Convey("Then it should report ok", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})
	})
}

func TestForecast(t *testing.T) {
	Convey("Given a server", t, func() {
		s, m := newTestServer(Config{})

		Convey("When posting a linear series", func() {
			rec := do(s, http.MethodPost, "/v1/forecast?horizon=3&confidence=0.9", linearCSV())

			Convey("Then it should respond with the report", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldEqual, "application/json")

				var resp forecastResponse
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.RunID, ShouldNotBeEmpty)
				So(resp.Horizon, ShouldEqual, 3)
				So(len(resp.Forecast), ShouldEqual, 3)
				for i, p := range resp.Forecast {
					So(p.Point, ShouldAlmostEqual, 220+10*float64(i), 1e-6)
					So(p.Lower, ShouldBeLessThanOrEqualTo, p.Point)
					So(p.Upper, ShouldBeGreaterThanOrEqualTo, p.Point)
				}
			})

			Convey("Then the run should be recorded", func() {
				scrape := do(s, http.MethodGet, "/metrics", "")
				So(scrape.Code, ShouldEqual, http.StatusOK)
				So(scrape.Body.String(), ShouldContainSubstring, `trafficcast_pipeline_runs_total{outcome="success"} 1`)
				So(m.Registry(), ShouldNotBeNil)
			})
		})

		Convey("When posting with the default horizon", func() {
			rec := do(s, http.MethodPost, "/v1/forecast", linearCSV())

			Convey("Then six months should be projected", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var resp forecastResponse
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(len(resp.Forecast), ShouldEqual, 6)
			})
		})
	})
}

func TestForecastErrors(t *testing.T) {
	testData := map[string]struct {
		target string
		body   string
		status int
	}{
		"horizon not a number": {
			target: "/v1/forecast?horizon=six",
			body:   linearCSV(),
			status: http.StatusBadRequest,
		},
		"horizon outside policy": {
			target: "/v1/forecast?horizon=36",
			body:   linearCSV(),
			status: http.StatusBadRequest,
		},
		"confidence outside range": {
			target: "/v1/forecast?confidence=0.999",
			body:   linearCSV(),
			status: http.StatusBadRequest,
		},
		"empty body": {
			target: "/v1/forecast",
			body:   "",
			status: http.StatusBadRequest,
		},
		"no valid rows": {
			target: "/v1/forecast",
			body:   "month,visits\nfoo,1\nbar,2\n",
			status: http.StatusUnprocessableEntity,
		},
		"single point": {
			target: "/v1/forecast",
			body:   "month,visits\n2023-01,100\n",
			status: http.StatusUnprocessableEntity,
		},
		"unknown table": {
			target: "/v1/forecast/weather.csv",
			body:   linearCSV(),
			status: http.StatusBadRequest,
		},
	}

	s, _ := newTestServer(Config{})
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			Convey("When posting "+name, t, func() {
				rec := do(s, http.MethodPost, td.target, td.body)

				Convey("Then it should be rejected with a json error", func() {
					So(rec.Code, ShouldEqual, td.status)
					So(rec.Body.String(), ShouldContainSubstring, `"error"`)
				})
			})
		})
	}
}

func TestBodyLimit(t *testing.T) {
	Convey("Given a server with a small upload limit", t, func() {
		s, _ := newTestServer(Config{MaxUploadBytes: 64})

		Convey("When posting a larger body", func() {
			rec := do(s, http.MethodPost, "/v1/forecast", linearCSV())

			Convey("Then it should be rejected as too large", func() {
				So(rec.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})
	})
}

func TestTable(t *testing.T) {
	Convey("Given a server", t, func() {
		s, _ := newTestServer(Config{})

		Convey("When requesting the forecast table", func() {
			rec := do(s, http.MethodPost, "/v1/forecast/forecast.csv?horizon=3", linearCSV())

			Convey("Then it should respond with csv", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
				So(len(lines), ShouldEqual, 4)
				So(lines[0], ShouldEqual, "date,point_estimate,lower_bound,upper_bound")
				So(lines[1], ShouldStartWith, "2024-01-01,220,")
			})
		})

		Convey("When requesting the growth table without the suffix", func() {
			rec := do(s, http.MethodPost, "/v1/forecast/growth", linearCSV())

			Convey("Then it should respond with the growth header", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(bytes.HasPrefix(rec.Body.Bytes(), []byte("date,segment,growth_pct\n")), ShouldBeTrue)
			})
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given a server restricted to one origin", t, func() {
		s, _ := newTestServer(Config{CORSOrigins: []string{"https://dash.example.com"}})

		Convey("When a preflight arrives from that origin", func() {
			req := httptest.NewRequest(http.MethodOptions, "/v1/forecast", nil)
			req.Header.Set("Origin", "https://dash.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			Convey("Then the origin should be allowed", func() {
				So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://dash.example.com")
			})
		})
	})
}

func TestStatusFor(t *testing.T) {
	testData := map[string]struct {
		err    error
		status int
	}{
		"bad parameter":     {fmt.Errorf("horizon %q, %w", "x", ErrInvalidParameter), http.StatusBadRequest},
		"horizon":           {forecaster.ErrInvalidHorizon, http.StatusBadRequest},
		"confidence":        {forecaster.ErrInvalidConfidence, http.StatusBadRequest},
		"too large":         {ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
		"no valid data":     {fmt.Errorf("unable to validate series, %w", forecaster.ErrNoValidData), http.StatusUnprocessableEntity},
		"insufficient data": {forecaster.ErrInsufficientData, http.StatusUnprocessableEntity},
		"fit failure":       {fmt.Errorf("unable to forecast series, %w", forecaster.ErrModelFitFailure), http.StatusUnprocessableEntity},
		"unexpected":        {errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			Convey("When mapping "+name, t, func() {
				So(statusFor(td.err), ShouldEqual, td.status)
			})
		})
	}
}
