// Package selector picks the next queryable (and optional crossover pair)
// for the Evolution Driver, and detects when the population has
// stagnated.
package selector

import (
	"math"
	"math/rand"

	"github.com/odfuzz/odfuzz/internal/entities"
	"github.com/odfuzz/odfuzz/internal/query"
)

// Store is the subset of the corpus store the Selector needs.
type Store interface {
	OverallScore() int
	TotalQueries() int
	FindSimilar(httpCode, entitySetName string) []*query.Query
}

// Selection is the result of one Select call.
type Selection struct {
	// Crossable holds exactly two queries usable as crossover parents, or
	// nil to force fresh generation instead.
	Crossable    []*query.Query
	Queryable    entities.Queryable
	ScoreAverage float64
}

// Selector implements spec.md §4.4: selection pressure toward crossover,
// falling back to fresh generation under stagnation or when no crossable
// pair can be found.
type Selector struct {
	store    Store
	entities entities.Entities
	rng      *rand.Rand

	iterationsThreshold int
	scoreEps            float64
	selectionThreshold  int

	scoreAverage     float64
	passedIterations int
}

// New creates a Selector. iterationsThreshold, scoreEps, and
// selectionThreshold correspond to constants.IterationsThreshold,
// constants.ScoreEps, and constants.SelectionThreshold in production.
func New(store Store, ents entities.Entities, rng *rand.Rand, iterationsThreshold int, scoreEps float64, selectionThreshold int) *Selector {
	return &Selector{
		store:               store,
		entities:            ents,
		rng:                 rng,
		iterationsThreshold: iterationsThreshold,
		scoreEps:            scoreEps,
		selectionThreshold:  selectionThreshold,
	}
}

// SeedScoreAverage primes the running average directly from the corpus,
// called once after the seed phase completes and before the steady-state
// loop starts.
func (s *Selector) SeedScoreAverage(average float64) {
	s.scoreAverage = average
}

// Select returns the next selection, then advances the stagnation counter.
// The stagnation check reads passedIterations as it stood going into this
// call, so the first recompute fires on the call where the threshold was
// already exceeded coming in, not the one that reaches it.
func (s *Selector) Select() Selection {
	stagnating := s.isStagnating()
	s.passedIterations++

	if stagnating {
		return Selection{
			Crossable:    nil,
			Queryable:    s.randomQueryable(),
			ScoreAverage: s.scoreAverage,
		}
	}

	queryable := s.randomQueryable()
	pair := s.findCrossable(queryable)
	for attempt := 1; pair == nil && attempt < s.selectionThreshold; attempt++ {
		queryable = s.randomQueryable()
		pair = s.findCrossable(queryable)
	}

	return Selection{Crossable: pair, Queryable: queryable, ScoreAverage: s.scoreAverage}
}

// isStagnating recomputes the population average every
// iterationsThreshold iterations and reports whether it has moved by less
// than scoreEps since the last check.
func (s *Selector) isStagnating() bool {
	if s.passedIterations <= s.iterationsThreshold {
		return false
	}
	s.passedIterations = 0

	total := s.store.TotalQueries()
	var current float64
	if total > 0 {
		current = float64(s.store.OverallScore()) / float64(total)
	}

	previous := s.scoreAverage
	s.scoreAverage = current
	return math.Abs(previous-current) < s.scoreEps
}

func (s *Selector) findCrossable(q entities.Queryable) []*query.Query {
	pair := s.store.FindSimilar("500", q.EntitySet().Name())
	if len(pair) != 2 {
		pair = s.store.FindSimilar("200", q.EntitySet().Name())
	}
	if len(pair) == 2 {
		return pair
	}
	return nil
}

func (s *Selector) randomQueryable() entities.Queryable {
	all := s.entities.All()
	return all[s.rng.Intn(len(all))]
}
