package api

import (
	"encoding/json"
	"net/http"
	"time"

	"RateCast/internal/domain/models"
	"RateCast/internal/service/metrics"
	"RateCast/internal/service/ratelimit"
	"RateCast/internal/usecase"
	pkgcache "RateCast/pkg/cache"
	applogger "RateCast/pkg/logger"
)

// ForecastHandler serves predict/evaluate over plain net/http. Used where
// the Echo stack is not wired, e.g. lightweight deployments and tests.
type ForecastHandler struct {
	orch  *usecase.ForecastOrchestrator
	cache pkgcache.Store
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewForecastHandler(orch *usecase.ForecastOrchestrator) *ForecastHandler {
	metrics.Register()
	return &ForecastHandler{orch: orch, rl: ratelimit.New(5, 2)}
}

func (h *ForecastHandler) SetCache(c pkgcache.Store) { h.cache = c }

// SetLogger injects a structured logger.
func (h *ForecastHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *ForecastHandler) Predict() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "predict"
		defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !h.rl.Allow(r.RemoteAddr + ":predict") {
			if h.l != nil {
				h.l.Warn("forecast.predict rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		var req models.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.ShockPathBps) == 0 {
			http.Error(w, "shock_path_bps required", http.StatusBadRequest)
			return
		}
		if req.Horizons <= 0 {
			req.Horizons = 6
		}

		res, err := h.orch.Predict(r.Context(), &req)
		if err != nil {
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("forecast.predict error", applogger.Error(err))
			}
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		writeJSON(w, res, h.l, endpoint)
	}
}

func (h *ForecastHandler) Evaluate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "evaluate"
		defer func() { metrics.ForecastLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		engine := r.URL.Query().Get("engine")
		if engine == "" {
			engine = "bvar"
		}
		if !h.rl.Allow(r.RemoteAddr + ":evaluate") {
			if h.l != nil {
				h.l.Warn("forecast.evaluate rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}

		cacheKey := pkgcache.Key("evaluate", engine)
		if h.cache != nil {
			switch raw, err := h.cache.Get(r.Context(), cacheKey); {
			case err == nil:
				w.Header().Set("Content-Type", "application/json")
				if h.l != nil {
					h.l.Debug("forecast.evaluate cache_hit", applogger.String("key", cacheKey))
				}
				_, _ = w.Write([]byte(raw))
				return
			case err != pkgcache.ErrMiss:
				if h.l != nil {
					h.l.Warn("forecast.evaluate cache_get_error", applogger.Error(err))
				}
			}
		}

		res, err := h.orch.Evaluate(r.Context(), &models.EvaluateRequest{Engine: engine})
		if err != nil {
			metrics.ForecastErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("forecast.evaluate error", applogger.Error(err))
			}
			http.Error(w, err.Error(), statusForError(err))
			return
		}
		b, err := json.Marshal(res)
		if err != nil {
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		if h.cache != nil {
			if err := h.cache.Set(r.Context(), cacheKey, string(b), 30*time.Second); err != nil && h.l != nil {
				h.l.Warn("forecast.evaluate cache_set_error", applogger.Error(err))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}, l *applogger.Logger, endpoint string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil && l != nil {
		l.Warn("forecast."+endpoint+" write_error", applogger.Error(err))
	}
}

func statusForError(err error) int {
	switch {
	case models.IsErrKind(err, models.ErrConfiguration):
		return http.StatusBadRequest
	case models.IsErrKind(err, models.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case models.IsErrKind(err, models.ErrModel):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
