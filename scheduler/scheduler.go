// Package scheduler runs the polling loop: quote both pools, evaluate
// the two directions and hand at most one opportunity per cycle to the
// pipeline.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crossfi-labs/stablearb/config"
	"github.com/crossfi-labs/stablearb/types"
	"github.com/crossfi-labs/stablearb/utils/metrics"
)

// QuoteSource produces a fresh pool snapshot.
type QuoteSource interface {
	Quote(ctx context.Context) (types.PoolQuote, error)
}

// OpportunityEvaluator selects a direction from two fresh quotes.
type OpportunityEvaluator interface {
	Evaluate(quoteA, quoteB types.PoolQuote) (types.DirectionResult, bool, error)
}

// TradeExecutor runs a selected direction through the pipeline.
type TradeExecutor interface {
	Execute(ctx context.Context, dir types.DirectionResult, quoteA, quoteB types.PoolQuote) (*types.ExecutionReport, error)
}

// Scheduler drives cycles at a fixed interval. A failing or panicking
// cycle is logged and the next tick proceeds; cancellation is observed
// only at cycle boundaries, a cycle in flight runs to completion.
type Scheduler struct {
	cfg       *config.Config
	sourceA   QuoteSource
	sourceB   QuoteSource
	evaluator OpportunityEvaluator
	executor  TradeExecutor
	metrics   *metrics.EngineMetrics
	logger    *zap.Logger
}

// New wires a scheduler. em may be nil.
func New(cfg *config.Config, sourceA, sourceB QuoteSource, evaluator OpportunityEvaluator, executor TradeExecutor, em *metrics.EngineMetrics, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		sourceA:   sourceA,
		sourceB:   sourceB,
		evaluator: evaluator,
		executor:  executor,
		metrics:   em,
		logger:    logger,
	}
}

// Run blocks until ctx is cancelled. The first cycle fires immediately,
// later ones on the configured interval.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.cfg.PollEvery()
	s.logger.Info("Scheduler started",
		zap.Duration("interval", interval),
		zap.String("mode", string(s.cfg.Mode)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	started := time.Now()
	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
	}

	defer func() {
		if s.metrics != nil {
			s.metrics.CycleDuration.Set(time.Since(started).Seconds())
		}
		if r := recover(); r != nil {
			if s.metrics != nil {
				s.metrics.CycleFailures.Inc()
			}
			s.logger.Error("Cycle panicked", zap.Any("panic", r))
		}
	}()

	if err := s.runCycle(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.CycleFailures.Inc()
		}
		s.logger.Error("Cycle failed", zap.Error(err))
	}
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	quoteA, quoteB, err := s.fetchQuotes(ctx)
	if err != nil {
		if s.metrics != nil {
			s.metrics.QuoteFetchErrors.Inc()
		}
		return err
	}

	dir, ok, err := s.evaluator.Evaluate(quoteA, quoteB)
	if err != nil {
		return fmt.Errorf("direction evaluation failed: %w", err)
	}
	if !ok {
		s.logger.Debug("No direction cleared the threshold")
		return nil
	}

	if s.metrics != nil {
		s.metrics.OpportunitiesFound.Inc()
	}
	s.logger.Info("Opportunity selected",
		zap.String("direction", dir.Label),
		zap.String("expected_profit", dir.Profit.String()))

	if _, err := s.executor.Execute(ctx, dir, quoteA, quoteB); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	return nil
}

// fetchQuotes snapshots both pools concurrently. Either failure aborts
// the cycle; stale quotes are never mixed with fresh ones.
func (s *Scheduler) fetchQuotes(ctx context.Context) (types.PoolQuote, types.PoolQuote, error) {
	var quoteA, quoteB types.PoolQuote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		quoteA, err = s.sourceA.Quote(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		quoteB, err = s.sourceB.Quote(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return types.PoolQuote{}, types.PoolQuote{}, err
	}
	return quoteA, quoteB, nil
}
