// Package app wires the scoring pipeline together and owns its lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/vigil/internal/adapters/mq/queue"
	"github.com/okian/vigil/internal/adapters/mq/worker"
	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/config"
	"github.com/okian/vigil/internal/domain/dedupe"
	"github.com/okian/vigil/internal/domain/ensemble"
	"github.com/okian/vigil/internal/domain/feature"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/internal/domain/scoring"
	"github.com/okian/vigil/internal/domain/velocity"
	"github.com/okian/vigil/internal/syncutil"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Entity lock keys are prefixed so a user and a merchant sharing an id
// never alias each other.
const (
	userKeyPrefix     = "u/"
	merchantKeyPrefix = "m/"
)

// BatchItem is one entry of a batch scoring response. Exactly one of
// Result and Err is set.
type BatchItem struct {
	Result *model.ScoringResult
	Err    error
}

// Service is the fraud detection pipeline: history, velocity, features,
// both models, and the ensemble decision, plus the async intake around it.
type Service struct {
	mu      sync.RWMutex
	started bool

	cfg        *config.Config
	store      repository.Store
	velocity   *velocity.Calculator
	builder    *feature.Builder
	supervised scoring.Scorer
	anomaly    scoring.Scorer
	engine     atomic.Pointer[ensemble.Engine]
	locks      syncutil.KeyMutex

	queue   *queue.Queue
	pool    *worker.Pool
	tracker *dedupe.Tracker

	log logger.Logger

	totalScored  atomic.Int64
	fraudCount   atomic.Int64
	legitCount   atomic.Int64
	latencyNanos atomic.Int64
}

// New builds a stopped Service from configuration. Any model or threshold
// problem is returned here; a constructed Service never fails for
// configuration reasons at score time.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg: cfg,
		log: logger.Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemStore(
			repository.WithShardCount(cfg.ShardCount),
			repository.WithIdleTTL(time.Duration(cfg.IdleEntityTTLMin)*time.Minute),
			repository.WithSweepInterval(time.Duration(cfg.SweepIntervalSec)*time.Second),
		)
	}
	s.velocity = velocity.NewCalculator(s.store)
	s.builder = feature.NewBuilder(cfg.MerchantRiskScores, cfg.DefaultMerchantRisk)

	if s.supervised == nil || s.anomaly == nil {
		bundle, err := loadBundle(cfg.ModelBundle)
		if err != nil {
			return nil, err
		}
		sup, err := scoring.NewTreeScorer(bundle.Supervised)
		if err != nil {
			return nil, err
		}
		anom, err := scoring.NewAutoencoderScorer(bundle.Anomaly)
		if err != nil {
			return nil, err
		}
		s.supervised, s.anomaly = sup, anom
	}

	eng, err := ensemble.NewEngine(ensemble.Config{
		SupervisedWeight:  cfg.SupervisedWeight,
		AnomalyWeight:     cfg.AnomalyWeight,
		FraudThreshold:    cfg.FraudThreshold,
		HighRiskThreshold: cfg.HighRiskThreshold,
	})
	if err != nil {
		return nil, err
	}
	s.engine.Store(eng)

	s.queue = queue.New(cfg.QueueSize)
	s.tracker = dedupe.New(cfg.DedupeSize)
	s.pool = worker.NewPool(s.queue, s, worker.WithWorkerCount(cfg.WorkerCount))

	return s, nil
}

func loadBundle(path string) (*scoring.Bundle, error) {
	if path == "" {
		return scoring.DefaultBundle(), nil
	}
	return scoring.LoadBundle(path)
}

// Start launches the async workers and opens the service for scoring.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.pool.Start(ctx)
	s.started = true
	s.log.Info(ctx, "service started",
		logger.Int("workers", s.cfg.WorkerCount),
		logger.Int("queue_capacity", s.queue.Cap()))
	return nil
}

// Stop closes intake, drains the workers, and releases the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotReady
	}
	s.started = false
	s.queue.Close()
	s.pool.Stop()
	err := s.store.Close()
	s.log.Info(ctx, "service stopped")
	return err
}

// Score runs the full pipeline for one transaction. History for the
// transaction's entities is locked from the velocity read through the
// history append, so concurrent transactions for the same user serialize
// and each one sees exactly the prior transactions.
func (s *Service) Score(ctx context.Context, txn model.Transaction) (model.ScoringResult, error) {
	if !s.ready() {
		return model.ScoringResult{}, ErrNotReady
	}
	if err := txn.Validate(); err != nil {
		metrics.RecordTransactionRejected()
		metrics.RecordErrorByComponent("app", "invalid_input")
		return model.ScoringResult{}, err
	}

	start := time.Now()
	unlock := s.locks.LockAll(userKeyPrefix+txn.UserID, merchantKeyPrefix+txn.MerchantID)

	vel := s.velocity.Compute(ctx, txn.UserID, txn.Timestamp)
	userStats := s.store.Stats(ctx, txn.UserID)
	merchantStats := s.store.Stats(ctx, txn.MerchantID)
	pairCount := s.store.PairCount(ctx, txn.UserID, txn.MerchantID)
	vec := s.builder.Build(txn, vel, userStats, merchantStats, pairCount)

	supScore, anomScore, err := s.runScorers(ctx, vec)
	if err != nil {
		unlock()
		metrics.RecordErrorByComponent("app", "scorer")
		return model.ScoringResult{}, fmt.Errorf("scoring %s: %w", txn.ID, err)
	}

	verdict := s.engine.Load().Decide(vec, supScore, anomScore)

	amount := txn.Amount.InexactFloat64()
	s.store.Record(ctx, txn.UserID, repository.Summary{
		Timestamp:   txn.Timestamp,
		Amount:      amount,
		Counterpart: txn.MerchantID,
	})
	s.store.Record(ctx, txn.MerchantID, repository.Summary{
		Timestamp:   txn.Timestamp,
		Amount:      amount,
		Counterpart: txn.UserID,
	})
	unlock()

	elapsed := time.Since(start)
	s.recordOutcome(verdict, elapsed)

	return model.ScoringResult{
		TransactionID:   txn.ID,
		FraudScore:      verdict.FraudScore,
		SupervisedScore: supScore,
		AnomalyScore:    anomScore,
		IsFraud:         verdict.IsFraud,
		RiskLevel:       verdict.RiskLevel,
		RiskFactors:     verdict.RiskFactors,
		ProcessingTime:  elapsed,
	}, nil
}

// runScorers evaluates both models concurrently. The vector is read-only
// from here on, so no copies are needed.
func (s *Service) runScorers(ctx context.Context, vec []float64) (float64, float64, error) {
	var supScore, anomScore float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		supScore, err = s.supervised.Score(gctx, vec)
		metrics.RecordModelLatency(s.supervised.Name(), float64(time.Since(start).Milliseconds()))
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		anomScore, err = s.anomaly.Score(gctx, vec)
		metrics.RecordModelLatency(s.anomaly.Name(), float64(time.Since(start).Milliseconds()))
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return supScore, anomScore, nil
}

func (s *Service) recordOutcome(v ensemble.Verdict, elapsed time.Duration) {
	s.totalScored.Add(1)
	s.latencyNanos.Add(int64(elapsed))
	if v.IsFraud {
		s.fraudCount.Add(1)
		metrics.RecordFraudDetected()
	} else {
		s.legitCount.Add(1)
	}
	metrics.RecordTransactionScored()
	metrics.RecordFraudScore(v.FraudScore)
	metrics.RecordRiskLevel(string(v.RiskLevel))
	metrics.RecordScoringLatency(float64(elapsed.Nanoseconds()) / 1e6)
}

// ScoreBatch scores transactions in order and reports per-item outcomes.
// One bad transaction never fails its neighbors.
func (s *Service) ScoreBatch(ctx context.Context, txns []model.Transaction) ([]BatchItem, error) {
	if !s.ready() {
		return nil, ErrNotReady
	}
	if len(txns) > s.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d items, max %d", ErrBatchTooLarge, len(txns), s.cfg.MaxBatchSize)
	}

	items := make([]BatchItem, len(txns))
	for i, txn := range txns {
		res, err := s.Score(ctx, txn)
		if err != nil {
			items[i] = BatchItem{Err: err}
			continue
		}
		items[i] = BatchItem{Result: &res}
	}
	return items, nil
}

// Enqueue accepts a transaction for asynchronous scoring. Duplicates by
// transaction id are dropped; a full queue rejects with backpressure and
// forgets the id so the submitter can retry.
func (s *Service) Enqueue(txn model.Transaction) error {
	if !s.ready() {
		return ErrNotReady
	}
	if err := txn.Validate(); err != nil {
		metrics.RecordTransactionRejected()
		return err
	}
	if s.tracker.SeenAndRecord(txn.ID) {
		metrics.RecordDuplicateTransaction()
		return fmt.Errorf("%w: %s", ErrDuplicate, txn.ID)
	}
	if err := s.queue.Enqueue(txn); err != nil {
		s.tracker.Unrecord(txn.ID)
		return err
	}
	return nil
}

// Stats returns a consistent-enough snapshot of the service counters.
func (s *Service) Stats(ctx context.Context) model.Stats {
	total := s.totalScored.Load()
	avgMs := 0.0
	if total > 0 {
		avgMs = float64(s.latencyNanos.Load()) / float64(total) / 1e6
	}
	return model.Stats{
		TotalScored:      total,
		FraudCount:       s.fraudCount.Load(),
		LegitimateCount:  s.legitCount.Load(),
		AvgLatencyMillis: avgMs,
		EntitiesTracked:  s.store.Count(ctx),
	}
}

// Reconfigure swaps the decision configuration without touching history or
// in-flight transactions. Invalid configurations are rejected and the old
// engine stays active.
func (s *Service) Reconfigure(cfg ensemble.Config) error {
	eng, err := ensemble.NewEngine(cfg)
	if err != nil {
		return err
	}
	s.engine.Store(eng)
	s.log.Info(context.Background(), "decision engine reconfigured",
		logger.Float64("supervised_weight", cfg.SupervisedWeight),
		logger.Float64("anomaly_weight", cfg.AnomalyWeight),
		logger.Float64("fraud_threshold", cfg.FraudThreshold),
		logger.Float64("high_risk_threshold", cfg.HighRiskThreshold))
	return nil
}

// EnsembleConfig returns the currently active decision configuration.
func (s *Service) EnsembleConfig() ensemble.Config {
	return s.engine.Load().Config()
}

func (s *Service) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
