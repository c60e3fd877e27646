package server

import (
	"math"
	"time"

	"github.com/FlavioCFOliveira/seqnet/internal/activations"
	"github.com/FlavioCFOliveira/seqnet/internal/baseline"
	"github.com/FlavioCFOliveira/seqnet/internal/net"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version uint64 `json:"version"`
}

type ModelInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Version    uint64    `json:"version"`
	Kind       string    `json:"kind"`
	InSize     int       `json:"in_size"`
	HiddenSize int       `json:"hidden_size"`
	OutSize    int       `json:"out_size"`
	Peephole   bool      `json:"peephole"`
	Activation string    `json:"activation"`
	Params     int       `json:"params"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewModelInfo describes s without its parameters.
func NewModelInfo(s *net.Snapshot) ModelInfo {
	return ModelInfo{
		ID:         s.ID,
		Name:       s.Name,
		Version:    s.Version,
		Kind:       s.Kernel.Kind.String(),
		InSize:     s.Kernel.InSize,
		HiddenSize: s.Kernel.HiddenSize,
		OutSize:    s.Head.OutSize(),
		Peephole:   s.Kernel.HasPeephole(),
		Activation: activations.Name(s.Head.Act),
		Params:     s.NumParams(),
		CreatedAt:  s.CreatedAt,
	}
}

type ForecastRequest struct {
	Sequence [][]float64 `json:"sequence"`
	Future   int         `json:"future"`
}

type ForecastResponse struct {
	Version   uint64      `json:"version"`
	Outputs   [][]float64 `json:"outputs"`
	LookAhead [][]float64 `json:"look_ahead"`
}

type BatchRequest struct {
	Sequences [][][]float64 `json:"sequences"`
	Future    int           `json:"future"`
}

type BatchResponse struct {
	Version uint64        `json:"version"`
	Traces  [][][]float64 `json:"traces"`
}

type BaselineRequest struct {
	History []float64 `json:"history"`
	Test    []float64 `json:"test"`
	Method  string    `json:"method"`
	Window  int       `json:"window"`
	Alpha   float64   `json:"alpha"`
}

type BaselineResponse struct {
	Method      string    `json:"method"`
	Predictions []float64 `json:"predictions"`
	RMSE        float64   `json:"rmse"`
	MAE         float64   `json:"mae"`
	MAPE        *float64  `json:"mape,omitempty"`
}

// NewBaselineResponse converts res; an undefined MAPE is omitted.
func NewBaselineResponse(res *baseline.Result) BaselineResponse {
	resp := BaselineResponse{Method: res.Method, Predictions: res.Predictions, RMSE: res.RMSE, MAE: res.MAE}
	if !math.IsNaN(res.MAPE) {
		mape := res.MAPE
		resp.MAPE = &mape
	}
	return resp
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
