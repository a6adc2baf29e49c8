package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/core"
	"github.com/ChrisMcGann/IsoDist/pkg/elements"
	"github.com/ChrisMcGann/IsoDist/pkg/filter"
	"github.com/ChrisMcGann/IsoDist/pkg/isotope"
	"github.com/ChrisMcGann/IsoDist/pkg/observability"
)

var tracer = otel.Tracer("isodist/server")

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 1 << 20
)

// Config configures a Handler. Zero values take defaults.
type Config struct {
	Table        *elements.Table
	ModDB        *core.ModDatabase
	Logger       *zap.Logger
	Timeout      time.Duration // Per-request computation limit
	MaxBodyBytes int64
}

// Handler serves the isotope distribution API.
type Handler struct {
	calc         *isotope.Calculator
	table        *elements.Table
	modDB        *core.ModDatabase
	logger       *zap.Logger
	timeout      time.Duration
	maxBodyBytes int64
	metrics      *metrics
}

// NewHandler creates a handler. Metric instruments come from the global
// meter provider, so observability.InitMetrics should run first when
// metrics are exported.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Table == nil {
		cfg.Table = elements.DefaultTable()
	}
	if cfg.ModDB == nil {
		cfg.ModDB = core.DefaultModDatabase()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	return &Handler{
		calc:         isotope.NewCalculator(cfg.Table, cfg.Logger),
		table:        cfg.Table,
		modDB:        cfg.ModDB,
		logger:       cfg.Logger,
		timeout:      cfg.Timeout,
		maxBodyBytes: cfg.MaxBodyBytes,
		metrics:      m,
	}, nil
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Distribution handles POST /distribution
func (h *Handler) Distribution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx, h.logger)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "isodist.distribution",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	fail := func(status int, body observability.ErrorResponse, err error) {
		observability.RecordError(ctx, span, logger, h.metrics.errors, "distribution", body, err, status, w)
	}

	var req DistributionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		fail(http.StatusBadRequest, observability.ErrorResponse{Error: "invalid request body"}, err)
		return
	}

	comp, mods, err := h.resolve(&req)
	if err != nil {
		fail(http.StatusBadRequest, observability.ErrorResponse{Error: err.Error()}, err)
		return
	}

	cfg, filters, err := requestConfig(&req)
	if err != nil {
		fail(http.StatusBadRequest, observability.ErrorResponse{Error: err.Error()}, err)
		return
	}

	span.SetAttributes(
		attribute.String("isodist.formula", comp.String()),
		attribute.Int("isodist.atoms", comp.TotalAtoms()),
		attribute.Float64("isodist.fine_resolution", cfg.FineResolution),
	)

	computeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	spec, err := h.calc.ComputeDistribution(computeCtx, comp, cfg)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		status, body := classifyError(err)
		fail(status, body, err)
		return
	}

	spec.Sequence = req.Sequence
	spec.Modifications = mods
	if req.Charge > 0 {
		if spec, err = spec.Charged(req.Charge); err != nil {
			fail(http.StatusBadRequest, observability.ErrorResponse{Error: err.Error()}, err)
			return
		}
	}
	if err := filters.Apply(spec); err != nil {
		fail(http.StatusBadRequest, observability.ErrorResponse{Error: err.Error()}, err)
		return
	}

	attrs := metric.WithAttributes(attribute.String("normalization", cfg.Normalization.String()))
	h.metrics.computations.Add(ctx, 1, attrs)
	h.metrics.duration.Record(ctx, elapsed, attrs)
	h.metrics.peaks.Record(ctx, int64(len(spec.Peaks)), attrs)

	span.AddEvent("distribution.complete", trace.WithAttributes(
		attribute.Int("peaks", len(spec.Peaks)),
		attribute.Float64("resolution", spec.Resolution),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("distribution computed",
		zap.String("formula", spec.Formula),
		zap.Int("charge", spec.Charge),
		zap.Int("peaks", len(spec.Peaks)),
		zap.Float64("resolution", spec.Resolution),
		zap.Float64("duration_ms", elapsed),
		zap.String("request_id", requestID),
	)

	observability.WriteJSON(w, http.StatusOK, NewDistributionResponse(spec))
}

// resolve turns the request into an elemental composition.
func (h *Handler) resolve(req *DistributionRequest) (core.Composition, []core.Modification, error) {
	switch {
	case req.Formula != "" && req.Sequence != "":
		return nil, nil, errors.New("set either formula or sequence, not both")
	case req.Formula != "":
		if req.Mods != "" {
			return nil, nil, errors.New("mods require a sequence")
		}
		comp, err := core.ParseFormula(req.Formula)
		return comp, nil, err
	case req.Sequence != "":
		mods, err := h.modDB.ParseModString(req.Mods, req.Sequence)
		if err != nil {
			return nil, nil, err
		}
		comp, err := core.PeptideComposition(req.Sequence, mods)
		return comp, mods, err
	}
	return nil, nil, errors.New("formula or sequence is required")
}

func requestConfig(req *DistributionRequest) (isotope.Config, *filter.Config, error) {
	cfg := isotope.DefaultConfig()
	if req.FineResolution != nil {
		cfg.FineResolution = *req.FineResolution
	}
	if req.MinProbability != nil {
		cfg.MinProbability = *req.MinProbability
	}

	norm, err := core.ParseNormalization(req.Normalization)
	if err != nil {
		return cfg, nil, err
	}
	cfg.Normalization = norm

	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}
	if req.Charge < 0 {
		return cfg, nil, fmt.Errorf("charge must not be negative, got %d", req.Charge)
	}

	filters := &filter.Config{TopN: req.TopN, IntensityCutoff: req.IntensityCutoff}
	if err := filters.Validate(); err != nil {
		return cfg, nil, err
	}
	return cfg, filters, nil
}

// classifyError maps computation errors to HTTP statuses.
func classifyError(err error) (int, observability.ErrorResponse) {
	var sizeErr *isotope.UnsupportedSizeError
	switch {
	case errors.As(err, &sizeErr):
		return http.StatusUnprocessableEntity, observability.ErrorResponse{
			Error:   "formula too complex for fine-grained calculation; retry with a coarser fine_resolution",
			Element: sizeErr.Element,
		}
	case errors.Is(err, elements.ErrUnknownElement),
		errors.Is(err, isotope.ErrInvalidComposition),
		errors.Is(err, isotope.ErrInvalidConfig):
		return http.StatusBadRequest, observability.ErrorResponse{Error: err.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, observability.ErrorResponse{Error: "computation cancelled or timed out"}
	}
	return http.StatusInternalServerError, observability.ErrorResponse{Error: "internal error"}
}

// NewDistributionResponse converts a spectrum to its JSON form.
func NewDistributionResponse(spec *core.Spectrum) DistributionResponse {
	resp := DistributionResponse{
		Formula:          spec.Formula,
		Sequence:         spec.Sequence,
		Charge:           spec.Charge,
		MonoisotopicMass: spec.MonoisotopicMass,
		Resolution:       spec.Resolution,
		Normalization:    spec.Normalization.String(),
		Peaks:            make([]PeakJSON, len(spec.Peaks)),
	}
	for i, p := range spec.Peaks {
		resp.Peaks[i] = PeakJSON{Mass: p.Mass, Intensity: p.Intensity}
	}
	return resp
}

// ListElements handles GET /elements
func (h *Handler) ListElements(w http.ResponseWriter, r *http.Request) {
	observability.WriteJSON(w, http.StatusOK, map[string][]string{"elements": h.table.Symbols()})
}

// GetElement handles GET /elements/{symbol}
func (h *Handler) GetElement(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	isotopes, err := h.table.Isotopes(symbol)
	if err != nil {
		observability.WriteJSON(w, http.StatusNotFound, observability.ErrorResponse{Error: err.Error()})
		return
	}

	resp := ElementResponse{Symbol: symbol, Isotopes: make([]IsotopeJSON, len(isotopes))}
	for i, iso := range isotopes {
		resp.Isotopes[i] = IsotopeJSON{MassNumber: iso.MassNumber, Mass: iso.Mass, Abundance: iso.Abundance}
	}
	observability.WriteJSON(w, http.StatusOK, resp)
}
