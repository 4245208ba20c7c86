package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"RateCast/internal/domain/models"
	drepo "RateCast/internal/domain/repository"
	domsvc "RateCast/internal/domain/service"
	"RateCast/internal/services/align"
	"RateCast/internal/services/bvar"
	"RateCast/internal/services/distribution"
	"RateCast/internal/services/lp"
	"RateCast/pkg/logger"
)

// ForecastConfig carries the tuning for both estimation engines and the
// downstream probability machinery.
type ForecastConfig struct {
	ShockSeries    string
	ResponseSeries string
	LookbackYears  int

	Prior        bvar.PriorSpec
	MonteCarlo   bvar.MonteCarloConfig
	LP           lp.Config
	Bootstrap    lp.BootstrapConfig
	Distribution distribution.Config
	Calendar     distribution.CalendarConfig
}

// DefaultForecastConfig returns the standard dual-engine setup.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		ShockSeries:    string(drepo.SeriesPolicy),
		ResponseSeries: string(drepo.DefaultSeries()),
		LookbackYears:  15,
		Prior:          bvar.DefaultPriorSpec(),
		MonteCarlo:     bvar.DefaultMonteCarloConfig(),
		LP:             lp.DefaultConfig(),
		Bootstrap:      lp.DefaultBootstrapConfig(),
		Distribution:   distribution.DefaultConfig(),
		Calendar:       distribution.DefaultCalendarConfig(),
	}
}

// ForecastOrchestrator owns the fitted models and serves predict/evaluate
// calls against them. Refits swap the models atomically, so inference never
// observes a half-fitted state.
type ForecastOrchestrator struct {
	events    drepo.EventStore
	calendar  drepo.CalendarSource
	artifacts drepo.ArtifactStore
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       ForecastConfig

	aligner align.Aligner

	mu     sync.RWMutex
	model  *bvar.Fitted
	lpFit  *lp.Fitted
	series *models.AlignedSeries
}

func NewForecastOrchestrator(
	events drepo.EventStore,
	calendar drepo.CalendarSource,
	artifacts drepo.ArtifactStore,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg ForecastConfig,
) *ForecastOrchestrator {
	return &ForecastOrchestrator{
		events:    events,
		calendar:  calendar,
		artifacts: artifacts,
		metrics:   metrics,
		log:       log,
		cfg:       cfg,
	}
}

// Refit pulls the event history from the store, aligns it onto the monthly
// grid and refits both engines.
func (o *ForecastOrchestrator) Refit(ctx context.Context) error {
	to := time.Now().UTC()
	from := to.AddDate(-o.cfg.LookbackYears, 0, 0)

	shock, err := o.events.Query(ctx, o.cfg.ShockSeries, from, to, 0)
	if err != nil {
		return fmt.Errorf("query shock series: %w", err)
	}
	response, err := o.events.Query(ctx, o.cfg.ResponseSeries, from, to, 0)
	if err != nil {
		return fmt.Errorf("query response series: %w", err)
	}

	series, err := o.aligner.Align(shock, response)
	if err != nil {
		return err
	}
	return o.RefitFrom(ctx, series)
}

// RefitFrom refits both engines on an already aligned series.
func (o *ForecastOrchestrator) RefitFrom(ctx context.Context, series *models.AlignedSeries) error {
	start := time.Now()

	model, err := bvar.Fit(series, o.cfg.Prior)
	if err != nil {
		o.metrics.RecordError("refit_bvar")
		return err
	}

	lpFit, err := lp.Fit(series, o.cfg.LP)
	if err != nil {
		o.metrics.RecordError("refit_lp")
		return err
	}
	if err := lp.BootstrapCI(series, lpFit, o.cfg.Bootstrap); err != nil {
		o.metrics.RecordError("refit_lp_bootstrap")
		return err
	}

	o.mu.Lock()
	o.model = model
	o.lpFit = lpFit
	o.series = series
	o.mu.Unlock()

	o.metrics.RecordLatency("refit", time.Since(start).Seconds())
	o.log.Info("models refitted",
		logger.Int("observations", series.Len()),
		logger.Bool("stable", model.Stability.Stable),
		logger.Int("lp_horizons", len(lpFit.Horizons)),
	)
	return nil
}

// Predict runs a conditional forecast on the requested engine and assembles
// the full response: point estimate, bands, discretized distribution and
// the per-meeting calendar allocation.
func (o *ForecastOrchestrator) Predict(ctx context.Context, req *models.PredictRequest) (*models.PredictResult, error) {
	o.mu.RLock()
	model, lpFit := o.model, o.lpFit
	o.mu.RUnlock()

	start := time.Now()

	if len(req.ShockPathBps) == 0 {
		return nil, models.NewModelError(models.ErrConfiguration, "shock path is empty")
	}

	var (
		path       *models.ForecastPath
		rationale  func(*models.HorizonForecast) string
		peakH      int
		advisories []string
		err        error
	)
	switch req.Engine {
	case "lp":
		if lpFit == nil {
			return nil, models.NewModelError(models.ErrModel, "no fitted lp model, refit first")
		}
		path, err = lpFit.ForecastPath(req.ShockPathBps[0], req.Horizons)
		rationale = lpFit.RationaleText
		peakH, _ = lpFit.PeakHorizon()
		advisories = lpFit.Advisories
	case "bvar", "":
		if model == nil {
			return nil, models.NewModelError(models.ErrModel, "no fitted bvar model, refit first")
		}
		mc := o.cfg.MonteCarlo
		if req.ExtendPolicy != "" {
			mc.ExtendPolicy = req.ExtendPolicy
		}
		path, err = model.ConditionalForecast(req.ShockPathBps, req.Horizons, mc, req.Seed)
		rationale = model.RationaleText
		peakH, _ = model.IRF.PeakResponseHorizon()
		advisories = model.Advisories
	default:
		return nil, models.NewModelError(models.ErrConfiguration, "unknown engine %q", req.Engine)
	}
	if err != nil {
		o.metrics.RecordError("predict")
		return nil, err
	}

	target := path.At(req.Horizons)
	if target == nil {
		return nil, models.NewModelError(models.ErrModel, "forecast path missing target horizon %d", req.Horizons)
	}

	points, err := distribution.Discretize(target, o.cfg.Distribution)
	if err != nil {
		return nil, err
	}

	expected := distribution.RoundToGrid(target.Mean, o.cfg.Distribution.BinWidthBps)
	deltaBps, aggregateP := moveToAllocate(points, expected)

	res := &models.PredictResult{
		ExpectedMoveBps:   expected,
		HorizonLabel:      fmt.Sprintf("%dm", req.Horizons),
		ProbabilityOfMove: aggregateP,
		CI80Bps:           [2]float64{target.CI80Lower, target.CI80Upper},
		CI95Bps:           [2]float64{target.CI95Lower, target.CI95Upper},
		Distribution:      points,
		Rationale:         rationale(target),
		Engine:            path.Engine,
		Advisories:        advisories,
	}

	meetings, calErr := o.calendar.UpcomingMeetings(ctx, time.Now().UTC(), o.cfg.Calendar.MaxMeetings)
	if calErr != nil || len(meetings) == 0 {
		res.Advisories = append(res.Advisories, "meeting calendar unavailable, per-meeting allocation skipped")
	} else {
		per, perErr := distribution.MapToCalendar(meetings, aggregateP, deltaBps, peakH, o.cfg.Calendar)
		if perErr != nil {
			return nil, perErr
		}
		res.PerMeeting = per
		res.ProbabilityOfMove = per[0].Probability
	}

	o.metrics.RecordForecast(path.Engine)
	o.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return res, nil
}

// Evaluate reports diagnostics for the requested engine.
func (o *ForecastOrchestrator) Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluateResult, error) {
	o.mu.RLock()
	model, lpFit := o.model, o.lpFit
	o.mu.RUnlock()

	switch req.Engine {
	case "lp":
		if lpFit == nil {
			return nil, models.NewModelError(models.ErrModel, "no fitted lp model, refit first")
		}
		peakH, peakV := lpFit.PeakHorizon()
		res := models.EvaluateResult{
			RSquared:    lpFit.MeanR2(),
			Stable:      true, // direct projections carry no companion dynamics
			LPHorizonR2: lpFit.HorizonR2(),
			IRF: models.IRFSummary{
				PeakHorizon:     peakH,
				PeakResponseBps: peakV,
				CumulativeBps:   lpFit.CumulativeResponse(),
			},
			Advisories: lpFit.Advisories,
		}
		if h1 := lpFit.At(1); h1 != nil {
			res.IRF.Horizon1Bps = h1.ShockCoef
		}
		return &res, nil
	case "bvar", "":
		if model == nil {
			return nil, models.NewModelError(models.ErrModel, "no fitted bvar model, refit first")
		}
		res := model.Evaluate()
		return &res, nil
	default:
		return nil, models.NewModelError(models.ErrConfiguration, "unknown engine %q", req.Engine)
	}
}

// Snapshot serializes the fitted state under the given artifact name.
func (o *ForecastOrchestrator) Snapshot(ctx context.Context, name string) error {
	o.mu.RLock()
	model, lpFit := o.model, o.lpFit
	o.mu.RUnlock()

	if model == nil {
		return models.NewModelError(models.ErrModel, "no fitted model to snapshot")
	}
	art := model.Artifact()
	if lpFit != nil {
		art.LP = lpFit.Artifacts()
	}
	if err := o.artifacts.Save(ctx, name, art); err != nil {
		o.metrics.RecordError("snapshot")
		return err
	}
	o.log.Info("model snapshot saved", logger.String("name", name), logger.String("data_hash", art.DataHash))
	return nil
}

// Restore loads a snapshot and swaps it in as the serving state.
func (o *ForecastOrchestrator) Restore(ctx context.Context, name string) error {
	art, err := o.artifacts.Load(ctx, name)
	if err != nil {
		o.metrics.RecordError("restore")
		return err
	}
	model, err := bvar.FromArtifact(art)
	if err != nil {
		return err
	}
	var lpFit *lp.Fitted
	if len(art.LP) > 0 {
		lpFit, err = lp.FromArtifacts(art.LP, o.cfg.LP)
		if err != nil {
			return err
		}
	}

	o.mu.Lock()
	o.model = model
	o.lpFit = lpFit
	o.mu.Unlock()

	o.log.Info("model snapshot restored", logger.String("name", name), logger.String("data_hash", art.DataHash))
	return nil
}

// WarmStart brings the orchestrator to a servable state: restore the named
// snapshot when one exists, otherwise refit from the event store.
func (o *ForecastOrchestrator) WarmStart(ctx context.Context, snapshot string) error {
	err := o.Restore(ctx, snapshot)
	if err == nil {
		return nil
	}
	o.log.Warn("no model snapshot restored, refitting from store",
		logger.String("name", snapshot), logger.Error(err))
	return o.Refit(ctx)
}

// Fitted reports whether a model is available for inference.
func (o *ForecastOrchestrator) Fitted() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.model != nil || o.lpFit != nil
}

// moveToAllocate picks the move size whose probability is spread over the
// meeting calendar. When the expected move rounds to zero the most probable
// non-zero outcome is used instead, with the total non-zero mass as its
// probability.
func moveToAllocate(points []models.DistributionPoint, expected int) (deltaBps int, p float64) {
	if expected != 0 {
		for _, pt := range points {
			if (expected > 0 && pt.DeltaBps > 0) || (expected < 0 && pt.DeltaBps < 0) {
				p += pt.Probability
			}
		}
		return expected, p
	}
	best := 0.0
	for _, pt := range points {
		if pt.DeltaBps == 0 {
			continue
		}
		p += pt.Probability
		if pt.Probability > best {
			best = pt.Probability
			deltaBps = pt.DeltaBps
		}
	}
	return deltaBps, p
}

var (
	_ domsvc.Forecaster      = (*ForecastOrchestrator)(nil)
	_ domsvc.ModelFitter     = (*ForecastOrchestrator)(nil)
	_ domsvc.ArtifactManager = (*ForecastOrchestrator)(nil)
)
