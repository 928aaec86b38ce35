package ensemble

import (
	"github.com/okian/vigil/internal/domain/model"
)

// Verdict is the engine's output for one transaction.
type Verdict struct {
	FraudScore  float64
	IsFraud     bool
	RiskLevel   model.RiskLevel
	RiskFactors []string
}

// Engine blends the two model scores and explains the result. An Engine is
// immutable after construction; reconfiguration swaps in a new Engine.
type Engine struct {
	cfg        Config
	thresholds RuleThresholds
}

// Option configures an Engine.
type Option func(*Engine)

// WithRuleThresholds overrides the risk factor tuning. Zero-valued fields
// keep their defaults.
func WithRuleThresholds(t RuleThresholds) Option {
	return func(e *Engine) { e.thresholds = t.withDefaults() }
}

// NewEngine validates the config and builds an engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, thresholds: DefaultRuleThresholds()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the engine's validated configuration.
func (e *Engine) Config() Config { return e.cfg }

// Decide computes the weighted fraud score, classifies it, and collects
// the risk factors that apply, ordered from most to least severe.
func (e *Engine) Decide(vec []float64, supervised, anomaly float64) Verdict {
	score := e.cfg.SupervisedWeight*supervised + e.cfg.AnomalyWeight*anomaly

	level := model.RiskLow
	switch {
	case score >= e.cfg.HighRiskThreshold:
		level = model.RiskHigh
	case score >= e.cfg.FraudThreshold:
		level = model.RiskMedium
	}

	in := ruleInput{vec: vec, supervised: supervised, anomaly: anomaly}
	factors := make([]string, 0, 4)
	for _, rule := range riskRules {
		if msg, ok := rule.apply(in, e.thresholds); ok {
			factors = append(factors, msg)
		}
	}

	return Verdict{
		FraudScore:  score,
		IsFraud:     score >= e.cfg.FraudThreshold,
		RiskLevel:   level,
		RiskFactors: factors,
	}
}
