package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"zoomtier/core-go/internal/device"
	"zoomtier/core-go/internal/engine"
	"zoomtier/core-go/internal/metrics"
	"zoomtier/core-go/internal/policy"
	"zoomtier/core-go/internal/resolution"
	"zoomtier/core-go/internal/thresholds"
)

type Handler struct {
	log     zerolog.Logger
	engine  *engine.Engine
	metrics *metrics.Metrics
}

func NewHandler(log zerolog.Logger, e *engine.Engine, m *metrics.Metrics) *Handler {
	return &Handler{log: log, engine: e, metrics: m}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/device", func(r chi.Router) {
				r.Get("/", h.handleGetDevice)
				r.Post("/detect", h.handleDetectDevice)
			})

			r.Get("/resolve", h.handleResolve)
			r.Get("/scale", h.handleScale)
			r.Get("/policies/{level}", h.handleGetPolicy)

			r.Route("/thresholds", func(r chi.Router) {
				r.Get("/", h.handleGetThresholds)
				r.Put("/", h.handleSetThresholds)
				r.Delete("/", h.handleResetThresholds)
				r.Get("/validate", h.handleValidateThresholds)
			})

			r.Get("/cache", h.handleCacheStats)
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set(middleware.RequestIDHeader, middleware.GetReqID(r.Context()))

		next.ServeHTTP(ww, r)

		// Route patterns keep metric label cardinality bounded.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		h.metrics.ObserveHTTPRequest(r.Method, path, ww.Status(), time.Since(start))

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	res := h.engine.ValidateThresholds()
	if !res.Valid {
		h.writeError(w, http.StatusServiceUnavailable, "invalid_thresholds", "active thresholds are invalid", map[string]any{"violations": res.Violations})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

type deviceResponse struct {
	Profile    device.Profile `json:"profile"`
	DeviceType device.Type    `json:"device_type"`
	Multiplier float64        `json:"multiplier"`
	Thresholds thresholds.Set `json:"thresholds"`
}

func (h *Handler) deviceResponse() deviceResponse {
	p := h.engine.Profile()
	return deviceResponse{
		Profile:    p,
		DeviceType: p.Type,
		Multiplier: p.Type.Multiplier(),
		Thresholds: h.engine.Thresholds(),
	}
}

func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.deviceResponse())
}

// handleDetectDevice re-profiles the engine from the caller's client hints.
func (h *Handler) handleDetectDevice(w http.ResponseWriter, r *http.Request) {
	h.engine.Redetect(r.Context(), newHintsProvider(r))
	h.writeJSON(w, http.StatusOK, h.deviceResponse())
}

// deviceParam returns the device query parameter, or the engine's current
// type when it is absent.
func (h *Handler) deviceParam(r *http.Request) (device.Type, error) {
	raw := r.URL.Query().Get("device")
	if raw == "" {
		return h.engine.CurrentDeviceType(), nil
	}
	return device.ParseType(raw)
}

func parseScaleParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New(name + " must be a number")
	}
	if v < 0 {
		return 0, errors.New(name + " must not be negative")
	}
	return v, nil
}

// parseActiveParam reads the optional active flag; absent means false.
func parseActiveParam(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("active")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New("active must be a boolean")
	}
	return b, nil
}

type scaleResponse struct {
	RawScale        float64     `json:"raw_scale"`
	DeviceType      device.Type `json:"device_type"`
	ResponsiveScale float64     `json:"responsive_scale"`
}

func (h *Handler) handleScale(w http.ResponseWriter, r *http.Request) {
	raw, err := parseScaleParam(r, "raw")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	t, err := h.deviceParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	h.writeJSON(w, http.StatusOK, scaleResponse{
		RawScale:        raw,
		DeviceType:      t,
		ResponsiveScale: h.engine.ResponsiveScale(raw, t),
	})
}

type resolveResponse struct {
	scaleResponse
	Level  resolution.Level    `json:"level"`
	Policy policy.RenderPolicy `json:"policy"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	raw, err := parseScaleParam(r, "scale")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	t, err := h.deviceParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	active, err := parseActiveParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}

	scaled := h.engine.ResponsiveScale(raw, t)
	level, err := h.engine.DetermineContentLevel(scaled)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resolveResponse{
		scaleResponse: scaleResponse{RawScale: raw, DeviceType: t, ResponsiveScale: scaled},
		Level:         level,
		Policy:        h.engine.ProgressiveStyles(level, active),
	})
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	var cfgErr *resolution.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		h.writeError(w, http.StatusConflict, "invalid_thresholds", "active thresholds are invalid", map[string]any{"violations": cfgErr.Violations})
	case errors.Is(err, resolution.ErrInvalidScale):
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
	default:
		h.log.Error().Err(err).Msg("resolve failed")
		h.writeError(w, http.StatusInternalServerError, "internal_error", "failed to resolve content level", nil)
	}
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	level, err := resolution.ParseLevel(chi.URLParam(r, "level"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	}
	active, err := parseActiveParam(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
		return
	}
	h.writeJSON(w, http.StatusOK, h.engine.ProgressiveStyles(level, active))
}

func (h *Handler) handleGetThresholds(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Thresholds())
}

type thresholdsResponse struct {
	Thresholds thresholds.Set    `json:"thresholds"`
	Validation thresholds.Result `json:"validation"`
}

// handleSetThresholds merges the body onto the active thresholds. The result
// is applied even when invalid; the response carries the validation so the
// caller can decide to reset.
func (h *Handler) handleSetThresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholds.Partial
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	if req.IsZero() {
		h.writeError(w, http.StatusBadRequest, "validation_failed", "at least one threshold is required", nil)
		return
	}

	set := h.engine.SetCustomThresholds(req)
	h.writeJSON(w, http.StatusOK, thresholdsResponse{Thresholds: set, Validation: thresholds.Validate(set)})
}

func (h *Handler) handleResetThresholds(w http.ResponseWriter, r *http.Request) {
	set := h.engine.ResetThresholds()
	h.writeJSON(w, http.StatusOK, thresholdsResponse{Thresholds: set, Validation: thresholds.Validate(set)})
}

func (h *Handler) handleValidateThresholds(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.ValidateThresholds())
}

func (h *Handler) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.CacheStats())
}
