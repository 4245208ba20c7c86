package service

import (
	"context"

	"RateCast/internal/domain/models"
)

// Forecaster produces conditional rate forecasts from fitted models.
type Forecaster interface {
	Predict(ctx context.Context, req *models.PredictRequest) (*models.PredictResult, error)
	Evaluate(ctx context.Context, req *models.EvaluateRequest) (*models.EvaluateResult, error)
}

// ModelFitter refits the estimation engines.
type ModelFitter interface {
	Refit(ctx context.Context) error
	RefitFrom(ctx context.Context, series *models.AlignedSeries) error
}

// ArtifactManager persists and restores fitted model state.
type ArtifactManager interface {
	Snapshot(ctx context.Context, name string) error
	Restore(ctx context.Context, name string) error
}
