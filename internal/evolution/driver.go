// Package evolution implements the top-level fuzzing loop: seed the
// population, then repeat selection, crossover-or-generation, dispatch,
// analysis, persistence, and pruning indefinitely.
package evolution

import (
	"context"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/odfuzz/odfuzz/internal/analyzer"
	"github.com/odfuzz/odfuzz/internal/config"
	"github.com/odfuzz/odfuzz/internal/constants"
	"github.com/odfuzz/odfuzz/internal/corpus"
	"github.com/odfuzz/odfuzz/internal/dispatch"
	"github.com/odfuzz/odfuzz/internal/entities"
	"github.com/odfuzz/odfuzz/internal/generator"
	"github.com/odfuzz/odfuzz/internal/query"
	"github.com/odfuzz/odfuzz/internal/selector"
)

// Store is what the Driver itself needs from the corpus beyond what the
// Analyzer and Selector already require: saving and pruning.
type Store interface {
	analyzer.Store
	selector.Store
	Save(q *query.Query) error
	RemoveWeak(scoreThreshold float64, maxN int) int
}

// Driver runs the seed phase followed by the indefinite steady-state loop.
type Driver struct {
	dispatcher *dispatch.Dispatcher
	entities   entities.Entities
	store      Store
	cfg        *config.Config
	logger     *zap.Logger

	analyzer  *analyzer.Analyzer
	selector  *selector.Selector
	generator *generator.Generator

	testsNum int
	failsNum int
}

// New wires up a Driver from its collaborators. The random seed is derived
// from the current time, matching the original fuzzer's run-to-run
// variation.
func New(dispatcher *dispatch.Dispatcher, ents entities.Entities, store *corpus.Store, cfg *config.Config, logger *zap.Logger) *Driver {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &Driver{
		dispatcher: dispatcher,
		entities:   ents,
		store:      store,
		cfg:        cfg,
		logger:     logger,
		analyzer:   analyzer.New(store, cfg.DeathChance, rng),
		selector:   selector.New(store, ents, rng, cfg.IterationsThreshold, cfg.ScoreEps, cfg.SelectionThreshold),
		generator:  generator.New(rng),
	}
}

// Run seeds the population, then evolves it until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.seedPopulation(ctx); err != nil {
		return err
	}

	if total := d.store.TotalQueries(); total > 0 {
		d.selector.SeedScoreAverage(float64(d.store.OverallScore()) / float64(total))
	}

	return d.evolvePopulation(ctx)
}

// seedPopulation generates seed_range = properties * SeedPopulation queries
// per queryable (divided across the pool in concurrent mode), dispatches,
// scores, and persists each.
func (d *Driver) seedPopulation(ctx context.Context) error {
	batchSize := 1
	if d.cfg.Async {
		batchSize = d.cfg.PoolSize
	}

	for _, queryable := range d.entities.All() {
		seedRange := len(queryable.EntitySet().Properties()) * d.cfg.SeedPopulation
		if d.cfg.Async {
			seedRange /= d.cfg.PoolSize
		}

		for i := 0; i < seedRange; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			batch, err := d.generator.GenerateBatch(queryable, batchSize)
			if err != nil {
				return err
			}
			d.runBatch(ctx, batch, float64(0))
		}
	}
	return nil
}

// evolvePopulation is the steady-state loop: select, crossover or generate,
// dispatch, analyze, persist, prune — repeating until ctx is cancelled.
func (d *Driver) evolvePopulation(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		selection := d.selector.Select()

		batchSize := 1
		if d.cfg.Async {
			batchSize = d.cfg.PoolSize
		}

		var batch []*query.Query
		var err error
		if len(selection.Crossable) == 2 {
			entityName := selection.Queryable.EntitySet().Name()
			batch, err = d.generator.MateBatch(selection.Crossable[0], selection.Crossable[1], entityName, batchSize)
		} else {
			batch, err = d.generator.GenerateBatch(selection.Queryable, batchSize)
		}
		if err != nil {
			d.logger.Warn("skipping iteration after generation error", zap.Error(err))
			continue
		}

		d.runBatch(ctx, batch, selection.ScoreAverage)
	}
}

// runBatch dispatches batch, scores and persists the surviving queries, and
// prunes up to len(batch) queries below scoreAverage.
func (d *Driver) runBatch(ctx context.Context, batch []*query.Query, scoreAverage float64) {
	d.testsNum += len(batch)

	survivors := d.dispatchBatch(ctx, batch)
	for _, q := range survivors {
		info := d.analyzer.Analyze(q)
		if info.Killable {
			continue
		}
		if err := d.store.Save(q); err != nil {
			d.logger.Warn("discarding query that failed to persist", zap.Error(err))
		}
	}

	removed := d.store.RemoveWeak(scoreAverage, len(batch))

	d.logger.Info("iteration complete",
		zap.Int("tests_generated", d.testsNum),
		zap.Int("tests_failed", d.failsNum),
		zap.Int("batch_size", len(batch)),
		zap.Int("dispatched_ok", len(survivors)),
		zap.Int("pruned", removed),
	)
}

// dispatchBatch dispatches every query in batch — serially, or across a
// bounded worker pool in async mode — and returns those that got a
// classified response (transport failures are discarded, never persisted
// or scored).
func (d *Driver) dispatchBatch(ctx context.Context, batch []*query.Query) []*query.Query {
	if len(batch) == 0 {
		return nil
	}

	if !d.cfg.Async {
		survivors := make([]*query.Query, 0, len(batch))
		for _, q := range batch {
			if d.dispatchOne(ctx, q) {
				survivors = append(survivors, q)
			}
		}
		return survivors
	}

	ok := make([]bool, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.PoolSize)
	for i, q := range batch {
		i, q := i, q
		g.Go(func() error {
			ok[i] = d.dispatchOne(gctx, q)
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([]*query.Query, 0, len(batch))
	for i, q := range batch {
		if ok[i] {
			survivors = append(survivors, q)
		}
	}
	return survivors
}

// dispatchOne issues one query with retry discipline: it keeps retrying
// (exponential backoff) for up to RetryTimeout before giving up. A single
// attempt is bounded by RequestTimeout unless InfinityTimeout disables it.
func (d *Driver) dispatchOne(ctx context.Context, q *query.Query) bool {
	attempt := func() error {
		reqCtx := ctx
		if d.cfg.RequestTimeout != constants.InfinityTimeout {
			var cancel context.CancelFunc
			reqCtx, cancel = context.WithTimeout(ctx, d.cfg.RequestTimeout)
			defer cancel()
		}

		resp, err := d.dispatcher.Get(reqCtx, q.QueryString)
		if err != nil {
			return err
		}
		q.Response = resp
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = d.cfg.RetryTimeout

	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		d.logger.Warn("dispatch failed after retries, discarding query",
			zap.String("query_string", q.QueryString), zap.Error(err))
		return false
	}

	if q.Response.StatusCode != 200 {
		d.failsNum++
	}
	return true
}
