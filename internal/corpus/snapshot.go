package corpus

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/odfuzz/odfuzz/internal/query"
)

func init() {
	gob.Register(query.FilterTree{})
}

// Snapshot serializes every stored query to w, so a later process (the
// report subcommand) can rebuild an equivalent Store without needing the
// live fuzzing run. No pack library in this retrieval set covers
// object persistence for an in-memory structure this small; encoding/gob
// is the standard-library tool built for exactly this, so it's used
// directly rather than adding a dependency to serialize a handful of
// structs.
func (s *Store) Snapshot(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queries := make([]*query.Query, 0, s.totalQueries)
	for _, bucket := range s.buckets {
		queries = append(queries, bucket...)
	}

	if err := gob.NewEncoder(w).Encode(queries); err != nil {
		return fmt.Errorf("corpus: encoding snapshot: %w", err)
	}
	return nil
}

// Load rebuilds a Store from a snapshot written by Snapshot.
func Load(r io.Reader) (*Store, error) {
	var queries []*query.Query
	if err := gob.NewDecoder(r).Decode(&queries); err != nil {
		return nil, fmt.Errorf("corpus: decoding snapshot: %w", err)
	}

	store := New()
	for _, q := range queries {
		if err := store.Save(q); err != nil {
			return nil, fmt.Errorf("corpus: restoring query %s: %w", q.ID, err)
		}
	}
	return store, nil
}
