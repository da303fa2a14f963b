package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	forecaster "github.com/aouyang1/go-traffic-forecaster"
	"github.com/aouyang1/go-traffic-forecaster/export"
	"github.com/aouyang1/go-traffic-forecaster/ingest"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

var (
	ErrInvalidParameter = errors.New("invalid query parameter")
	ErrUnknownTable     = errors.New("unknown table")
	ErrBodyTooLarge     = errors.New("request body too large")
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleForecast runs the pipeline on an uploaded two column CSV and responds with the
// report as JSON
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	report, err := s.run(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleTable runs the pipeline and responds with one export table as CSV
func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(chi.URLParam(r, "table"), ".csv")
	table, ok := export.ParseTable(name)
	if !ok {
		s.writeError(w, fmt.Errorf("%q, %w", name, ErrUnknownTable))
		return
	}

	report, err := s.run(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, table); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(table)+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Error().Err(err).Msg("unable to write csv response")
	}
}

func (s *Server) run(w http.ResponseWriter, r *http.Request) (*forecaster.Report, error) {
	opt, err := s.requestOptions(r)
	if err != nil {
		return nil, err
	}
	f, err := forecaster.New(opt)
	if err != nil {
		return nil, err
	}

	body := http.MaxBytesReader(w, r.Body, s.maxUpload)
	records, err := export.ReadRecords(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("limit %d bytes, %w", maxErr.Limit, ErrBodyTooLarge)
		}
		return nil, err
	}
	return f.Run(records)
}

// requestOptions overlays the horizon and confidence query parameters on the server options
func (s *Server) requestOptions(r *http.Request) (*forecaster.Options, error) {
	opt := s.opt
	q := r.URL.Query()

	if v := q.Get("horizon"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("horizon %q, %w", v, ErrInvalidParameter)
		}
		opt = opt.WithHorizon(h)
	}
	if v := q.Get("confidence"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("confidence %q, %w", v, ErrInvalidParameter)
		}
		opt = opt.WithConfidence(c)
	}
	return opt, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, ErrUnknownTable),
		errors.Is(err, forecaster.ErrInvalidHorizon),
		errors.Is(err, forecaster.ErrInvalidConfidence),
		errors.Is(err, export.ErrEmptyTable):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrNoValidData),
		errors.Is(err, ingest.ErrInsufficientData),
		errors.Is(err, forecaster.ErrModelFitFailure):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		s.log.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("unable to marshal response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		s.log.Error().Err(err).Msg("unable to write response")
	}
}
