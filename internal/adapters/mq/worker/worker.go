// Package worker drains the transaction queue through the detector.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/okian/vigil/internal/adapters/mq/queue"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Detector scores a single transaction. The app service satisfies this.
type Detector interface {
	Score(ctx context.Context, txn model.Transaction) (model.ScoringResult, error)
}

// Pool runs a fixed set of workers that pull transactions off the queue
// and score them. Results are observable through logs and metrics; the
// async path intentionally returns nothing to the submitter.
type Pool struct {
	queue    *queue.Queue
	detector Detector
	count    int
	log      logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkerCount sets the number of workers. Non-positive values are
// ignored.
func WithWorkerCount(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.count = n
		}
	}
}

// NewPool builds a pool over the queue and detector.
func NewPool(q *queue.Queue, d Detector, opts ...Option) *Pool {
	p := &Pool{
		queue:    q,
		detector: d,
		count:    runtime.NumCPU() * 2,
		log:      logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They run until Stop is called or the parent
// context ends.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	metrics.UpdateWorkerCount(p.count)
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.log.Info(ctx, "worker pool started", logger.Int("workers", p.count))
}

// Stop signals the workers and waits for them to exit. In-flight
// transactions finish scoring; queued ones stay queued.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		txn, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrClosed) {
				return
			}
			p.log.Error(ctx, "dequeue failed", logger.Int("worker", id), logger.Error(err))
			return
		}
		p.process(ctx, txn)
	}
}

func (p *Pool) process(ctx context.Context, txn model.Transaction) {
	start := time.Now()
	res, err := p.detector.Score(ctx, txn)
	metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordWorkerError()
		p.log.Warn(ctx, "scoring failed",
			logger.String("transaction_id", txn.ID),
			logger.Error(err))
		return
	}

	if res.IsFraud {
		p.log.Warn(ctx, "fraudulent transaction detected",
			logger.String("transaction_id", res.TransactionID),
			logger.Float64("fraud_score", res.FraudScore),
			logger.String("risk_level", string(res.RiskLevel)),
			logger.Any("risk_factors", res.RiskFactors))
		return
	}
	p.log.Debug(ctx, "transaction scored",
		logger.String("transaction_id", res.TransactionID),
		logger.Float64("fraud_score", res.FraudScore),
		logger.String("risk_level", string(res.RiskLevel)))
}
