// Package corpus implements the persistent, queryable population: the
// store of every dispatched-and-scored query, keyed conceptually by
// (entity set, error code).
package corpus

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/odfuzz/odfuzz/internal/constants"
	"github.com/odfuzz/odfuzz/internal/query"
)

// ErrNoResponse is returned by Save when a query has not yet had a
// response attached — the store only ever holds dispatched, classified
// queries (spec.md §3 invariant: "a query reaches the Corpus Store only
// after a response has been attached").
var ErrNoResponse = errors.New("corpus: cannot save a query with no attached response")

type bucketKey struct {
	entitySet string
	errorCode string
}

// Store is an in-memory, concurrency-safe implementation of the corpus
// contract in spec.md §4.7. Any backend satisfying the same operations
// (document store, relational store) is an acceptable substitute; this one
// is the reference implementation the Evolution Driver exercises directly.
type Store struct {
	mu           sync.RWMutex
	buckets      map[bucketKey][]*query.Query
	byID         map[string]*query.Query
	overallScore int
	totalQueries int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		buckets: make(map[bucketKey][]*query.Query),
		byID:    make(map[string]*query.Query),
	}
}

// Save inserts q into a new bucket, or appends it to the existing bucket
// for (q.EntityName, q.ErrorCode()) — skipping the append if a query with
// the same QueryString is already present in that bucket (dedup,
// spec.md §3 invariant I4).
func (s *Store) Save(q *query.Query) error {
	if q.Response == nil {
		return ErrNoResponse
	}

	key := bucketKey{entitySet: q.EntityName, errorCode: q.ErrorCode()}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, exists := s.buckets[key]
	if exists {
		for _, existing := range bucket {
			if existing.QueryString == q.QueryString {
				return nil // dedup within the bucket, no-op
			}
		}
	}

	s.buckets[key] = append(bucket, q)
	s.byID[q.ID] = q
	s.overallScore += q.Score
	s.totalQueries++
	return nil
}

// QueryByID projects the flattened queries across all buckets and returns
// the one matching id, if any. IDs are unique across the whole corpus.
func (s *Store) QueryByID(id string) (*query.Query, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byID[id]
	return q, ok
}

// OverallScore returns the sum of every query's score across the corpus.
func (s *Store) OverallScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overallScore
}

// TotalQueries returns the total number of queries stored.
func (s *Store) TotalQueries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalQueries
}

// Sample returns a uniform random sample of up to n queries matching both
// httpCode and entitySetName.
func (s *Store) Sample(httpCode, entitySetName string, n int) []*query.Query {
	matches := s.matching(httpCode, entitySetName, 0)
	shuffle(matches)
	if n > len(matches) {
		n = len(matches)
	}
	return append([]*query.Query(nil), matches[:n]...)
}

// FindSimilar returns exactly two queries sharing entitySetName and
// httpCode, each with at least constants.FilterPartsNum filter parts — or
// nil if fewer than two such queries exist.
func (s *Store) FindSimilar(httpCode, entitySetName string) []*query.Query {
	matches := s.matching(httpCode, entitySetName, constants.FilterPartsNum)
	if len(matches) < 2 {
		return nil
	}
	shuffle(matches)
	return matches[:2]
}

// matching returns every query sharing httpCode and entitySetName whose
// filter has at least minFilterParts parts (0 to disable that check).
func (s *Store) matching(httpCode, entitySetName string, minFilterParts int) []*query.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*query.Query
	for key, bucket := range s.buckets {
		if key.entitySet != entitySetName {
			continue
		}
		for _, q := range bucket {
			if strconv.Itoa(q.HTTPStatus()) != httpCode {
				continue
			}
			if minFilterParts > 0 {
				filter, ok := q.Filter()
				if !ok || len(filter.Parts) < minFilterParts {
					continue
				}
			}
			out = append(out, q)
		}
	}
	return out
}

// RemoveWeak deletes up to maxN queries with score < scoreThreshold,
// returning the number actually removed. No removed query ever has
// score >= scoreThreshold (spec.md §8 invariant I5).
func (s *Store) RemoveWeak(scoreThreshold float64, maxN int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, bucket := range s.buckets {
		if removed >= maxN {
			break
		}
		kept := bucket[:0:0]
		for _, q := range bucket {
			if removed < maxN && float64(q.Score) < scoreThreshold {
				delete(s.byID, q.ID)
				s.overallScore -= q.Score
				s.totalQueries--
				removed++
				continue
			}
			kept = append(kept, q)
		}
		if len(kept) == 0 {
			delete(s.buckets, key)
		} else {
			s.buckets[key] = kept
		}
	}
	return removed
}

func shuffle(qs []*query.Query) {
	rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}

// All returns every stored query, for export/reporting purposes.
func (s *Store) All() []*query.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*query.Query, 0, s.totalQueries)
	for _, bucket := range s.buckets {
		out = append(out, bucket...)
	}
	return out
}

// String renders summary stats, useful for log lines.
func (s *Store) String() string {
	return fmt.Sprintf("corpus{queries=%d, overall_score=%d}", s.TotalQueries(), s.OverallScore())
}
