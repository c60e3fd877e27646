// Package server exposes the predictor over HTTP.
package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/FlavioCFOliveira/seqnet/internal/baseline"
	"github.com/FlavioCFOliveira/seqnet/internal/errs"
	"github.com/FlavioCFOliveira/seqnet/internal/logger"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

// MaxFuture bounds the look-ahead a single request may ask for.
const MaxFuture = 10_000

type Server struct {
	reg     *net.Registry
	log     logger.Logger
	workers int
}

func New(reg *net.Registry, log logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{reg: reg, log: log}
}

// WithWorkers sets the worker count for batch forecasts; 0 means one per CPU.
func (s *Server) WithWorkers(n int) *Server {
	s.workers = n
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/model", s.handleModel)
	e.POST("/v1/forecast", s.handleForecast)
	e.POST("/v1/forecast/batch", s.handleForecastBatch)
	e.POST("/v1/baseline", s.handleBaseline)
}

func (s *Server) handleHealth(c *echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if snap := s.reg.Current(); snap != nil {
		resp.Version = snap.Version
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleModel(c *echo.Context) error {
	snap := s.reg.Current()
	if snap == nil {
		return writeError(c, http.StatusNotFound, "not_found_error", net.ErrNoSnapshot.Error())
	}
	return c.JSON(http.StatusOK, NewModelInfo(snap))
}

func (s *Server) handleForecast(c *echo.Context) error {
	req, err := decodeJSON[ForecastRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Future > MaxFuture {
		return writeBadRequest(c, "future exceeds the per-request limit")
	}

	trace, err := s.reg.Predict(req.Sequence, req.Future)
	if err != nil {
		return s.writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, ForecastResponse{
		Version:   trace.Version,
		Outputs:   trace.Outputs,
		LookAhead: trace.LookAhead(),
	})
}

func (s *Server) handleForecastBatch(c *echo.Context) error {
	req, err := decodeJSON[BatchRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Future > MaxFuture {
		return writeBadRequest(c, "future exceeds the per-request limit")
	}

	snap := s.reg.Current()
	traces, err := net.UnrollBatch(snap, req.Sequences, req.Future, s.workers)
	if err != nil {
		return s.writeDomainError(c, err)
	}
	out := make([][][]float64, len(traces))
	for i, tr := range traces {
		out[i] = tr.Outputs
	}
	return c.JSON(http.StatusOK, BatchResponse{Version: snap.Version, Traces: out})
}

func (s *Server) handleBaseline(c *echo.Context) error {
	req, err := decodeJSON[BaselineRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	f, err := baseline.ByName(req.Method, req.Window, req.Alpha)
	if err != nil {
		return s.writeDomainError(c, err)
	}
	res, err := baseline.Evaluate(f, req.History, req.Test)
	if err != nil {
		return s.writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, NewBaselineResponse(res))
}

// writeDomainError maps error kinds to HTTP statuses.
func (s *Server) writeDomainError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, errs.ErrShapeMismatch):
		return writeError(c, http.StatusBadRequest, "shape_mismatch", err.Error())
	case errors.Is(err, errs.ErrInvalidInput):
		return writeBadRequest(c, err.Error())
	case errors.Is(err, errs.ErrNumericInstability):
		return writeError(c, http.StatusUnprocessableEntity, "numeric_instability", err.Error())
	case errors.Is(err, net.ErrNoSnapshot), errors.Is(err, store.ErrNotFound):
		return writeError(c, http.StatusNotFound, "not_found_error", err.Error())
	default:
		s.log.Error("request failed", "path", c.Request().URL.Path, "error", err)
		return writeError(c, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, ErrorResponse{Error: ErrorBody{Type: errType, Message: msg}})
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
