// Package generator produces batches of candidate queries, either by fresh
// synthesis against a queryable's $filter generator, or by crossing over
// two existing parents.
package generator

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/odfuzz/odfuzz/internal/entities"
	"github.com/odfuzz/odfuzz/internal/query"
)

// ErrParentsLackFilterParts is returned when a crossover parent has no
// $filter tree, or an empty one, and therefore cannot donate/receive a part.
var ErrParentsLackFilterParts = errors.New("generator: crossover parents must each have at least one filter part")

// Generator synthesizes fresh queries from a queryable's option factories.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator.
func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// GenerateOne asks q for its $filter option generator and builds one query
// from it. It returns (nil, nil) when the queryable has no $filter option
// — spec.md's generation-error case, silently skipped by the caller.
func (g *Generator) GenerateOne(q entities.Queryable) (*query.Query, error) {
	option, err := q.QueryOption(entities.OptionFilter)
	if errors.Is(err, entities.ErrNoSuchOption) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	generated, err := option.Generate()
	if err != nil {
		return nil, fmt.Errorf("generator: synthesizing $filter value: %w", err)
	}

	entityName := q.EntitySet().Name()
	newQuery := query.New(entityName)
	newQuery.AddOption(entities.OptionFilter, generated.Data)
	newQuery.QueryString = entityName + "?" + entities.OptionFilter + "=" + generated.String
	return newQuery, nil
}

// GenerateBatch calls GenerateOne n times, dropping the (nil, nil) case.
// Batch size is n = PoolSize in concurrent mode, 1 in serial mode.
func (g *Generator) GenerateBatch(q entities.Queryable, n int) ([]*query.Query, error) {
	batch := make([]*query.Query, 0, n)
	for i := 0; i < n; i++ {
		one, err := g.GenerateOne(q)
		if err != nil {
			return nil, err
		}
		if one != nil {
			batch = append(batch, one)
		}
	}
	return batch, nil
}

// Mate crosses two parents of the same entity set into one child: a
// uniformly random part of p1's filter tree is overwritten with a
// uniformly random part of p2's. logicals and groups are inherited from p1
// unchanged. Both parent IDs become the child's predecessors.
func (g *Generator) Mate(p1, p2 *query.Query, entityName string) (*query.Query, error) {
	filter1, ok1 := p1.Filter()
	filter2, ok2 := p2.Filter()
	if !ok1 || !ok2 || len(filter1.Parts) == 0 || len(filter2.Parts) == 0 {
		return nil, ErrParentsLackFilterParts
	}

	child := filter1.Clone()
	replacingPart := filter2.Parts[g.rng.Intn(len(filter2.Parts))]
	child.Parts[g.rng.Intn(len(child.Parts))] = replacingPart

	newQuery := query.New(entityName)
	newQuery.AddOption(entities.OptionFilter, child)
	newQuery.QueryString = entityName + "?$filter=" + child.Serialize()
	newQuery.Predecessors = []string{p1.ID, p2.ID}
	return newQuery, nil
}

// MateBatch mates the same parent pair n times, producing siblings that
// vary only by which part was replaced and by what — mirroring the
// original fuzzer's behavior of mating one pair per whole batch rather than
// resampling parents per child.
func (g *Generator) MateBatch(p1, p2 *query.Query, entityName string, n int) ([]*query.Query, error) {
	children := make([]*query.Query, 0, n)
	for i := 0; i < n; i++ {
		child, err := g.Mate(p1, p2, entityName)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}
