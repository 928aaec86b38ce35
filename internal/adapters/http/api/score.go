package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/vigil/internal/domain/model"
)

// transactionRequest is the wire form of a transaction. A missing
// transaction_id is generated server-side; a missing timestamp means now.
type transactionRequest struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	MerchantID    string          `json:"merchant_id"`
	Amount        decimal.Decimal `json:"amount"`
	Type          string          `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (r transactionRequest) toModel() model.Transaction {
	id := r.TransactionID
	if id == "" {
		id = uuid.NewString()
	}
	ts := r.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return model.Transaction{
		ID:         id,
		UserID:     r.UserID,
		MerchantID: r.MerchantID,
		Amount:     r.Amount,
		Type:       r.Type,
		Timestamp:  ts,
	}
}

type scoreResponse struct {
	TransactionID    string   `json:"transaction_id"`
	FraudScore       float64  `json:"fraud_score"`
	SupervisedScore  float64  `json:"supervised_score"`
	AnomalyScore     float64  `json:"anomaly_score"`
	IsFraud          bool     `json:"is_fraud"`
	RiskLevel        string   `json:"risk_level"`
	RiskFactors      []string `json:"risk_factors"`
	ProcessingTimeMs float64  `json:"processing_time_ms"`
}

func toScoreResponse(res model.ScoringResult) scoreResponse {
	return scoreResponse{
		TransactionID:    res.TransactionID,
		FraudScore:       res.FraudScore,
		SupervisedScore:  res.SupervisedScore,
		AnomalyScore:     res.AnomalyScore,
		IsFraud:          res.IsFraud,
		RiskLevel:        string(res.RiskLevel),
		RiskFactors:      res.RiskFactors,
		ProcessingTimeMs: float64(res.ProcessingTime.Nanoseconds()) / 1e6,
	}
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := s.deps.Score(r.Context(), req.toModel())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toScoreResponse(res))
}

type batchRequest struct {
	Transactions []transactionRequest `json:"transactions"`
}

type batchItemResponse struct {
	Result *scoreResponse `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItemResponse `json:"results"`
}

func (s *Server) handleScoreBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Transactions) == 0 {
		writeError(w, http.StatusBadRequest, "empty batch")
		return
	}

	txns := make([]model.Transaction, len(req.Transactions))
	for i, tr := range req.Transactions {
		txns[i] = tr.toModel()
	}

	items, err := s.deps.ScoreBatch(r.Context(), txns)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	out := batchResponse{Results: make([]batchItemResponse, len(items))}
	for i, item := range items {
		if item.Err != nil {
			out.Results[i] = batchItemResponse{Error: item.Err.Error()}
			continue
		}
		res := toScoreResponse(*item.Result)
		out.Results[i] = batchItemResponse{Result: &res}
	}
	writeJSON(w, http.StatusOK, out)
}
