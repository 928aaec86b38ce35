// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; file and env values layer on top via Load.
// - Fatal configuration problems surface at startup, never at score time.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// ModelBundle is the path to a JSON model bundle. Empty selects the
	// built-in deterministic bundle.
	ModelBundle string `koanf:"model_bundle"`

	// Ensemble weights and thresholds.
	SupervisedWeight  float64 `koanf:"supervised_weight"`
	AnomalyWeight     float64 `koanf:"anomaly_weight"`
	FraudThreshold    float64 `koanf:"fraud_threshold"`
	HighRiskThreshold float64 `koanf:"high_risk_threshold"`

	// History store sizing and hygiene.
	ShardCount        int `koanf:"shard_count"`
	IdleEntityTTLMin  int `koanf:"idle_entity_ttl_minutes"`
	SweepIntervalSec  int `koanf:"sweep_interval_seconds"`

	// Async intake pipeline sizing.
	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	DedupeSize  int `koanf:"dedupe_size"`

	// MaxBatchSize caps POST /score/batch.
	MaxBatchSize int `koanf:"max_batch_size"`

	// MerchantRiskScores maps merchant IDs to externally assessed risk in
	// [0,1]. Unknown merchants fall back to DefaultMerchantRisk.
	MerchantRiskScores  map[string]float64 `koanf:"merchant_risk_scores"`
	DefaultMerchantRisk float64            `koanf:"default_merchant_risk"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9090",
		ModelBundle:         "",
		SupervisedWeight:    0.7,
		AnomalyWeight:       0.3,
		FraudThreshold:      0.5,
		HighRiskThreshold:   0.75,
		ShardCount:          16,
		IdleEntityTTLMin:    24 * 60,
		SweepIntervalSec:    60,
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 2,
		DedupeSize:          500_000,
		MaxBatchSize:        500,
		MerchantRiskScores:  map[string]float64{},
		DefaultMerchantRisk: 0.5,
	}
}
