package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/FlavioCFOliveira/seqnet/internal/layer"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

func newTestEcho(t *testing.T, reg *net.Registry) *echo.Echo {
	t.Helper()
	e := echo.New()
	New(reg, nil).WithWorkers(2).Register(e)
	return e
}

func newTestRegistry(t *testing.T) *net.Registry {
	t.Helper()
	k, err := layer.NewKernel(layer.KindLSTM, 1, 4, 3)
	if err != nil {
		t.Fatal(err)
	}
	head, err := layer.NewDense(4, 1, nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := net.NewSnapshot("api", k, head)
	if err != nil {
		t.Fatal(err)
	}
	return net.NewRegistry(snap)
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthAndModel(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, newTestRegistry(t))

	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status %d", rec.Code)
	}
	if h := decode[HealthResponse](t, rec); h.Status != "ok" || h.Version != 1 {
		t.Errorf("health = %+v", h)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/model", "")
	info := decode[ModelInfo](t, rec)
	if info.Kind != "lstm" || info.HiddenSize != 4 || info.Name != "api" || info.Activation != "linear" {
		t.Errorf("model = %+v", info)
	}
}

func TestModelWithoutSnapshot(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, net.NewRegistry(nil))

	rec := doJSON(t, e, http.MethodGet, "/v1/model", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, expected 404", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPost, "/v1/forecast", `{"sequence":[[1]],"future":0}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("forecast status %d, expected 404", rec.Code)
	}
}

func TestForecast(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)
	e := newTestEcho(t, reg)

	rec := doJSON(t, e, http.MethodPost, "/v1/forecast", `{"sequence":[[0.1],[0.2],[0.3]],"future":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[ForecastResponse](t, rec)
	if len(got.Outputs) != 5 || len(got.LookAhead) != 2 {
		t.Fatalf("outputs = %d, look_ahead = %d", len(got.Outputs), len(got.LookAhead))
	}

	want, err := reg.Predict([][]float64{{0.1}, {0.2}, {0.3}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want.Outputs {
		if math.Abs(got.Outputs[i][0]-want.Outputs[i][0]) > 1e-12 {
			t.Errorf("outputs[%d] = %v, expected %v", i, got.Outputs[i][0], want.Outputs[i][0])
		}
	}
}

func TestForecastErrors(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, newTestRegistry(t))

	tests := []struct {
		name   string
		body   string
		status int
		typ    string
	}{
		{"malformed", `{"sequence":`, http.StatusBadRequest, "invalid_request_error"},
		{"unknown field", `{"seq":[[1]]}`, http.StatusBadRequest, "invalid_request_error"},
		{"wide row", `{"sequence":[[1,2]],"future":0}`, http.StatusBadRequest, "shape_mismatch"},
		{"negative future", `{"sequence":[[1]],"future":-1}`, http.StatusBadRequest, "invalid_request_error"},
		{"empty with look-ahead", `{"sequence":[],"future":3}`, http.StatusBadRequest, "invalid_request_error"},
		{"huge future", `{"sequence":[[1]],"future":100000}`, http.StatusBadRequest, "invalid_request_error"},
		{"overflow", `{"sequence":[[1e308],[1e308]],"future":0}`, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/forecast", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status %d, expected %d; body=%s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.typ == "" {
				return
			}
			if got := decode[ErrorResponse](t, rec); got.Error.Type != tt.typ {
				t.Errorf("error type = %q, expected %q", got.Error.Type, tt.typ)
			}
		})
	}
}

func TestForecastBatch(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, newTestRegistry(t))

	rec := doJSON(t, e, http.MethodPost, "/v1/forecast/batch", `{"sequences":[[[1]],[[1],[2]],[[3],[2],[1]]],"future":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[BatchResponse](t, rec)
	if len(got.Traces) != 3 {
		t.Fatalf("traces = %d, expected 3", len(got.Traces))
	}
	for i, tr := range got.Traces {
		if len(tr) != i+2 {
			t.Errorf("trace %d has %d steps, expected %d", i, len(tr), i+2)
		}
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/forecast/batch", `{"sequences":[[[1]],[[1,1]]],"future":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad batch status %d, expected 400", rec.Code)
	}
}

func TestBaseline(t *testing.T) {
	t.Parallel()
	e := newTestEcho(t, net.NewRegistry(nil))

	rec := doJSON(t, e, http.MethodPost, "/v1/baseline", `{"history":[1,2,3],"test":[4,5],"method":"naive"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[BaselineResponse](t, rec)
	if len(got.Predictions) != 2 || got.Predictions[0] != 3 || got.Predictions[1] != 4 {
		t.Errorf("predictions = %v, expected [3 4]", got.Predictions)
	}
	if math.Abs(got.RMSE-1) > 1e-12 {
		t.Errorf("rmse = %v, expected 1", got.RMSE)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/baseline", `{"history":[1],"test":[2],"method":"exp","alpha":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad alpha status %d, expected 400", rec.Code)
	}
}
