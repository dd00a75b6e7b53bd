// Package server exposes wake operations over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/fgeck/gowake/internal/mac"
	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/registry"
	"github.com/fgeck/gowake/internal/services/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Wake request outcomes, used as the "result" metric label.
const (
	resultSent     = "sent"
	resultInvalid  = "invalid"
	resultNotFound = "not_found"
	resultFailed   = "failed"
)

const maxBodyBytes = 1 << 16

// Lister enumerates registered machines.
type Lister interface {
	List() iter.Seq[models.Machine]
}

type metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gowake_wake_requests_total",
			Help: "Wake requests received over HTTP, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gowake_wake_duration_seconds",
			Help:    "Time spent sending magic packets.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Impl serves the HTTP API.
type Impl struct {
	runner   runner.Service
	machines Lister
	wakeCfg  models.WakeConfig
	logger   zerolog.Logger
	metrics  *metrics
	gatherer prometheus.Gatherer
	now      func() time.Time
}

// New creates a new HTTP API service with its own metrics registry.
func New(logger zerolog.Logger, runnerSvc runner.Service, machines Lister, wakeCfg models.WakeConfig) *Impl {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(logger, runnerSvc, machines, wakeCfg, reg)
}

// NewWithRegistry creates a new HTTP API service registering its metrics on reg.
func NewWithRegistry(
	logger zerolog.Logger,
	runnerSvc runner.Service,
	machines Lister,
	wakeCfg models.WakeConfig,
	reg *prometheus.Registry,
) *Impl {
	return &Impl{
		runner:   runnerSvc,
		machines: machines,
		wakeCfg:  wakeCfg,
		logger:   logger,
		metrics:  newMetrics(reg),
		gatherer: reg,
		now:      time.Now,
	}
}

// Handler returns the API routes.
func (s *Impl) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/health", s.handleError(s.health))
	mux.Handle("GET /api/v1/machines", s.handleError(s.listMachines))
	mux.Handle("POST /api/v1/wakeup", s.handleError(s.wakeup))
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx is cancelled.
func (s *Impl) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving HTTP API: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP API: %w", err)
	}
	s.logger.Info().Msg("HTTP API stopped")
	return nil
}

type httpErr struct {
	code int
	err  error
}

func (h *httpErr) Error() string {
	return h.err.Error()
}

func httpError(code int, err error) error {
	return &httpErr{code, err}
}

type messageResponse struct {
	Message string `json:"message"`
}

type machineResponse struct {
	Name string `json:"name"`
	MAC  string `json:"mac"`
}

type wakeupRequest struct {
	MAC  string `json:"mac"`
	Name string `json:"name"`
}

func (s *Impl) handleError(h func(http.ResponseWriter, *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		if errors.Is(err, context.Canceled) {
			return // client canceled the request
		}
		code := http.StatusInternalServerError
		unwrapped := err
		var he *httpErr
		if errors.As(err, &he) {
			code = he.code
			unwrapped = he.err
		}
		s.logger.Warn().
			Str("path", r.URL.Path).
			Int("status", code).
			Err(unwrapped).
			Msg("request failed")
		writeJSON(w, code, messageResponse{Message: unwrapped.Error()})
	})
}

func (s *Impl) health(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := fmt.Fprint(w, s.now().Format("2006-01-02 15:04:05"))
	return err
}

func (s *Impl) listMachines(w http.ResponseWriter, r *http.Request) error {
	out := []machineResponse{}
	for m := range s.machines.List() {
		out = append(out, machineResponse{Name: m.Name, MAC: m.MAC.String()})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Impl) wakeup(w http.ResponseWriter, r *http.Request) error {
	var body wakeupRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.metrics.requests.WithLabelValues(resultInvalid).Inc()
		return httpError(http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}

	req := models.WakeRequest{Config: s.wakeCfg}
	switch {
	case strings.TrimSpace(body.MAC) != "":
		req.Target = body.MAC
		req.NameAsMAC = true
	case body.Name != "":
		req.Target = body.Name
	default:
		s.metrics.requests.WithLabelValues(resultInvalid).Inc()
		return httpError(http.StatusBadRequest, errors.New("either mac or name is required"))
	}

	s.logger.Debug().Str("target", req.Target).Bool("mac", req.NameAsMAC).Msg("received wakeup request")

	start := time.Now()
	result, err := s.runner.Run(r.Context(), req)
	s.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, mac.ErrInvalidFormat), errors.Is(err, mac.ErrInvalidLength):
			s.metrics.requests.WithLabelValues(resultInvalid).Inc()
			return httpError(http.StatusBadRequest, err)
		case errors.Is(err, registry.ErrNotFound):
			s.metrics.requests.WithLabelValues(resultNotFound).Inc()
			return httpError(http.StatusNotFound, err)
		default:
			s.metrics.requests.WithLabelValues(resultFailed).Inc()
			return err
		}
	}

	s.metrics.requests.WithLabelValues(resultSent).Inc()
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Magic packet sent to %s", result.MAC.Upper()),
	})
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
