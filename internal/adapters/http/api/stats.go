package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/vigil/internal/domain/ensemble"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Stats(r.Context()))
}

type configPayload struct {
	SupervisedWeight  float64 `json:"supervised_weight"`
	AnomalyWeight     float64 `json:"anomaly_weight"`
	FraudThreshold    float64 `json:"fraud_threshold"`
	HighRiskThreshold float64 `json:"high_risk_threshold"`
}

func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.deps.EnsembleConfig()
	writeJSON(w, http.StatusOK, configPayload{
		SupervisedWeight:  cfg.SupervisedWeight,
		AnomalyWeight:     cfg.AnomalyWeight,
		FraudThreshold:    cfg.FraudThreshold,
		HighRiskThreshold: cfg.HighRiskThreshold,
	})
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req configPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	err := s.deps.Reconfigure(ensemble.Config{
		SupervisedWeight:  req.SupervisedWeight,
		AnomalyWeight:     req.AnomalyWeight,
		FraudThreshold:    req.FraudThreshold,
		HighRiskThreshold: req.HighRiskThreshold,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.handleGetConfig(w, r)
}
