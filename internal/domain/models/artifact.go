package models

// ModelArtifact is the JSON-serializable snapshot of a fitted forecaster,
// used for persistence, audit and versioning. A snapshot restores a model
// that produces identical evaluate() and forecast output.
type ModelArtifact struct {
	Version         int                `json:"version"`
	Beta            [][]float64        `json:"beta"`  // k x (1 + k*p)
	Sigma           [][]float64        `json:"sigma"` // k x k residual covariance
	Lags            int                `json:"lags"`
	PriorParams     map[string]float64 `json:"prior_params"`
	TrainStart      string             `json:"train_start"` // RFC3339 date
	TrainEnd        string             `json:"train_end"`
	ScaleInfo       map[string]float64 `json:"scale_info"` // empirical variances used by the prior
	Stable          bool               `json:"stable"`
	RSquared        []float64          `json:"r_squared"`        // per-equation in-sample fit
	ConditionNumber float64            `json:"condition_number"` // of Sigma before ridging
	LagState        [][]float64        `json:"lag_state"`        // last p observations, oldest first
	DataHash        string             `json:"data_hash"`
	Seed            int64              `json:"seed"`

	LP []LPHorizonArtifact `json:"lp"` // parallel bundle of per-horizon LP models
}

// LPHorizonArtifact is one persisted local-projections horizon model.
type LPHorizonArtifact struct {
	Horizon   int       `json:"horizon"`
	Lags      int       `json:"lags"`
	Alpha     float64   `json:"alpha"`
	Method    string    `json:"method"`
	Coef      []float64 `json:"coef"` // intercept first, then shock, then controls
	ShockCoef float64   `json:"shock_coef"`
	RSquared  float64   `json:"r_squared"`
	CILower   float64   `json:"ci_lower"`
	CIUpper   float64   `json:"ci_upper"`
}
