package analyzer

import (
	"math/rand"
	"testing"
	"time"

	"github.com/odfuzz/odfuzz/internal/dispatch"
	"github.com/odfuzz/odfuzz/internal/query"
)

type fakeStore struct {
	overallScore int
	byID         map[string]*query.Query
}

func newFakeStore(overallScore int) *fakeStore {
	return &fakeStore{overallScore: overallScore, byID: make(map[string]*query.Query)}
}

func (s *fakeStore) OverallScore() int { return s.overallScore }

func (s *fakeStore) QueryByID(id string) (*query.Query, bool) {
	q, ok := s.byID[id]
	return q, ok
}

func scoredQuery(entityName string, score int) *query.Query {
	q := query.New(entityName)
	q.QueryString = entityName + "?$top=1"
	q.Response = &dispatch.Response{StatusCode: 200, Elapsed: time.Second}
	q.Score = score
	return q
}

func TestAnalyzePrimesPopulationScoreOnce(t *testing.T) {
	store := newFakeStore(1000)
	a := New(store, 0, rand.New(rand.NewSource(1)))

	q1 := scoredQuery("Products", 0)
	info1 := a.Analyze(q1)
	if info1.PopulationScore != 1000 {
		t.Fatalf("first Analyze() population score = %d, want the primed 1000", info1.PopulationScore)
	}

	store.overallScore = 9999 // store mutates after priming; Analyzer must not re-read it
	q2 := scoredQuery("Products", 0)
	info2 := a.Analyze(q2)
	if info2.PopulationScore != 1029 {
		t.Errorf("second Analyze() population score = %d, want 1029 (1000 primed + 29 added, not re-primed from a stale store read)", info2.PopulationScore)
	}
}

func TestAnalyzeNeverKillableWithoutPredecessors(t *testing.T) {
	store := newFakeStore(0)
	// deathChance 1.0 would always kill if eligible at all.
	a := New(store, 1.0, rand.New(rand.NewSource(1)))

	q := scoredQuery("Products", 5)
	info := a.Analyze(q)

	if info.Killable {
		t.Error("a seed query with no predecessors must never be killable")
	}
}

func TestAnalyzeKillableOnlyWhenNoFitterPredecessor(t *testing.T) {
	store := newFakeStore(0)
	parent := scoredQuery("Products", 100)
	store.byID[parent.ID] = parent

	a := New(store, 1.0, rand.New(rand.NewSource(1)))

	child := scoredQuery("Products", 5)
	child.Predecessors = []string{parent.ID}

	info := a.Analyze(child)
	if !info.Killable {
		t.Error("a child scoring strictly below its only parent should be killable at deathChance=1.0")
	}
}

func TestAnalyzeNotKillableWhenAsFitAsAPredecessor(t *testing.T) {
	store := newFakeStore(0)
	// Analyze rescores the child from its query string: "Products?$top=1"
	// with a 200 in 1s scores 29, so a parent at 29 is exactly as fit.
	parent := scoredQuery("Products", 29)
	store.byID[parent.ID] = parent

	a := New(store, 1.0, rand.New(rand.NewSource(1)))

	child := scoredQuery("Products", 29)
	child.Predecessors = []string{parent.ID}

	info := a.Analyze(child)
	if info.Killable {
		t.Error("a child at least as fit as one of its parents should never be killable")
	}
}
