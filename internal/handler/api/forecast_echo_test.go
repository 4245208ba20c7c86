package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	xhttp "RateCast/pkg/http"

	"github.com/labstack/echo/v4"
)

func echoContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPredictRejectsUnknownEngine(t *testing.T) {
	c, rec := echoContext(t, http.MethodPost, "/api/predict",
		`{"engine":"arima","shock_path_bps":[25]}`)

	h := &ForecastEchoHandler{}
	if err := h.Predict(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if body.Status != http.StatusBadRequest {
		t.Fatalf("envelope status = %d, want 400", body.Status)
	}
	if body.Data == nil {
		t.Fatal("expected validation errors in data")
	}
}

func TestPredictRejectsMissingShockPath(t *testing.T) {
	c, rec := echoContext(t, http.MethodPost, "/api/predict", `{"engine":"bvar"}`)

	h := &ForecastEchoHandler{}
	if err := h.Predict(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
