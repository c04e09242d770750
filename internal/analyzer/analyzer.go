// Package analyzer applies the fitness function to a dispatched query and
// decides whether it is a candidate for pruning.
package analyzer

import (
	"math/rand"

	"github.com/odfuzz/odfuzz/internal/fitness"
	"github.com/odfuzz/odfuzz/internal/query"
)

// Store is the subset of the corpus store the Analyzer needs: the current
// overall population score, and lookup of a query by ID (to compare a
// child's score against its parents').
type Store interface {
	OverallScore() int
	QueryByID(id string) (*query.Query, bool)
}

// Info is the result of one Analyze call.
type Info struct {
	Score           int
	Killable        bool
	PopulationScore int
}

// Analyzer scores queries and tracks the running population score.
type Analyzer struct {
	store           Store
	deathChance     float64
	rng             *rand.Rand
	populationScore int
	primed          bool
}

// New creates an Analyzer backed by store. deathChance is the probability
// that a child scoring strictly below every one of its parents gets marked
// killable (constants.DeathChance in production).
func New(store Store, deathChance float64, rng *rand.Rand) *Analyzer {
	return &Analyzer{store: store, deathChance: deathChance, rng: rng}
}

// Analyze scores q, updates the cached population score, and, with
// probability deathChance, flags q as killable when it scores strictly below
// every one of its parents.
//
// Analyze is called only from the single driver goroutine, after a whole
// dispatch batch has completed, so the cached population score needs no
// internal synchronization.
func (a *Analyzer) Analyze(q *query.Query) Info {
	newScore := fitness.Evaluate(q)
	q.Score = newScore

	if !a.primed {
		a.populationScore = a.store.OverallScore()
		a.primed = true
	} else {
		a.populationScore += newScore
	}

	killable := false
	if len(q.Predecessors) > 0 && !a.hasFitterPredecessor(q.Predecessors, newScore) {
		if a.rng.Float64() < a.deathChance {
			killable = true
		}
	}

	return Info{Score: newScore, Killable: killable, PopulationScore: a.populationScore}
}

// hasFitterPredecessor reports whether any predecessor of q scored no
// higher than newScore — i.e. the child is at least as good as one parent.
func (a *Analyzer) hasFitterPredecessor(predecessorIDs []string, newScore int) bool {
	for _, id := range predecessorIDs {
		predecessor, ok := a.store.QueryByID(id)
		if ok && predecessor.Score <= newScore {
			return true
		}
	}
	return false
}
