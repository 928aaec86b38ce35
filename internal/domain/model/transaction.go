// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable payment event submitted for scoring. Amounts
// are carried as decimals up to the feature boundary; the scoring pipeline
// converts once to float64 when the feature vector is built.
type Transaction struct {
	ID         string          // unique id for idempotency
	UserID     string          // paying account
	MerchantID string          // receiving counterparty
	Amount     decimal.Decimal // positive transaction amount
	Type       string          // e.g. "purchase", "withdrawal", "transfer"
	Timestamp  time.Time       // when the transaction occurred
}

// Validate rejects transactions the pipeline must not score. A rejected
// transaction leaves history and statistics untouched.
func (t Transaction) Validate() error {
	switch {
	case strings.TrimSpace(t.ID) == "":
		return fmt.Errorf("%w: missing transaction id", ErrInvalidTransaction)
	case strings.TrimSpace(t.UserID) == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidTransaction)
	case strings.TrimSpace(t.MerchantID) == "":
		return fmt.Errorf("%w: missing merchant id", ErrInvalidTransaction)
	case !t.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	case t.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTransaction)
	}
	return nil
}

// RiskLevel classifies a verdict.
type RiskLevel string

// Risk levels ordered by severity.
const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ScoringResult is the terminal artifact returned to callers. The core does
// not retain results; persistence belongs to the service layer around it.
type ScoringResult struct {
	TransactionID   string        `json:"transaction_id"`
	FraudScore      float64       `json:"fraud_score"`
	SupervisedScore float64       `json:"supervised_score"`
	AnomalyScore    float64       `json:"anomaly_score"`
	IsFraud         bool          `json:"is_fraud"`
	RiskLevel       RiskLevel     `json:"risk_level"`
	RiskFactors     []string      `json:"risk_factors"`
	ProcessingTime  time.Duration `json:"processing_time"`
}

// Stats is the read-only introspection snapshot exposed for monitoring.
type Stats struct {
	TotalScored      int64   `json:"total_scored"`
	FraudCount       int64   `json:"fraud_count"`
	LegitimateCount  int64   `json:"legitimate_count"`
	AvgLatencyMillis float64 `json:"avg_latency_ms"`
	EntitiesTracked  int     `json:"entities_tracked"`
}
