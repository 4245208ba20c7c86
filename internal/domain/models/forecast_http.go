package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Engine       string    `json:"engine" default:"bvar" validate:"oneof=bvar lp"`
	ShockPathBps []float64 `json:"shock_path_bps" validate:"required,min=1,max=24"`
	Horizons     int       `json:"horizons" default:"6" validate:"gte=1,lte=24"`
	ExtendPolicy string    `json:"extend_policy" default:"hold" validate:"oneof=hold zero"`
	Seed         int64     `json:"seed" default:"0"`
}

type EvaluateRequest struct {
	Engine string `query:"engine" json:"engine" default:"bvar" validate:"oneof=bvar lp"`
}

type HistoryRequest struct {
	Series string `query:"series" json:"series" validate:"required"`
	From   string `query:"from" json:"from"` // RFC 3339, defaults to 15 years back
	To     string `query:"to" json:"to"`     // RFC 3339, defaults to now
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=0,lte=10000"`
}

type DiagnosticsRequest struct {
	WindowMonths int `query:"window_months" json:"window_months" default:"12" validate:"gte=1,lte=120"`
}

type SnapshotRequest struct {
	Name string `json:"name" default:"latest" validate:"required,max=128"`
}
