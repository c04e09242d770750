package generator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/odfuzz/odfuzz/internal/entities"
	"github.com/odfuzz/odfuzz/internal/query"
)

type fakeOptionGenerator struct {
	data   any
	string string
	err    error
}

func (g fakeOptionGenerator) Generate() (entities.GeneratedOption, error) {
	if g.err != nil {
		return entities.GeneratedOption{}, g.err
	}
	return entities.GeneratedOption{Data: g.data, String: g.string}, nil
}

type fakeQueryable struct {
	entityName string
	generators map[string]entities.OptionGenerator
}

func (q fakeQueryable) EntitySet() entities.EntitySet { return fakeEntitySet{name: q.entityName} }

func (q fakeQueryable) QueryOption(name string) (entities.OptionGenerator, error) {
	g, ok := q.generators[name]
	if !ok {
		return nil, entities.ErrNoSuchOption
	}
	return g, nil
}

type fakeEntitySet struct{ name string }

func (s fakeEntitySet) Name() string                    { return s.name }
func (s fakeEntitySet) Properties() []entities.Property { return nil }

func TestGenerateOneReturnsNilWithoutError(t *testing.T) {
	q := fakeQueryable{entityName: "Products", generators: map[string]entities.OptionGenerator{}}
	g := New(rand.New(rand.NewSource(1)))

	got, err := g.GenerateOne(q)
	if err != nil {
		t.Fatalf("GenerateOne() error = %v, want nil", err)
	}
	if got != nil {
		t.Errorf("GenerateOne() = %v, want nil when the queryable has no $filter generator", got)
	}
}

func TestGenerateOneBuildsQueryString(t *testing.T) {
	tree := query.FilterTree{Parts: []query.Part{{Name: "Price", Operator: "gt", Operand: "10"}}}
	q := fakeQueryable{
		entityName: "Products",
		generators: map[string]entities.OptionGenerator{
			entities.OptionFilter: fakeOptionGenerator{data: tree, string: "Price gt 10"},
		},
	}
	g := New(rand.New(rand.NewSource(1)))

	got, err := g.GenerateOne(q)
	if err != nil {
		t.Fatalf("GenerateOne() error = %v", err)
	}
	if got == nil {
		t.Fatal("GenerateOne() = nil, want a query")
	}
	if got.QueryString != "Products?$filter=Price gt 10" {
		t.Errorf("QueryString = %q, want Products?$filter=Price gt 10", got.QueryString)
	}
}

func TestGenerateOnePropagatesGenerationError(t *testing.T) {
	q := fakeQueryable{
		entityName: "Products",
		generators: map[string]entities.OptionGenerator{
			entities.OptionFilter: fakeOptionGenerator{err: errors.New("boom")},
		},
	}
	g := New(rand.New(rand.NewSource(1)))

	if _, err := g.GenerateOne(q); err == nil {
		t.Error("expected GenerateOne() to propagate the generator's error")
	}
}

func TestMateRequiresBothParentsToHaveFilterParts(t *testing.T) {
	g := New(rand.New(rand.NewSource(1)))

	withFilter := query.New("Products")
	withFilter.AddOption("$filter", query.FilterTree{Parts: []query.Part{{Name: "Price", Operator: "gt", Operand: "10"}}})

	withoutFilter := query.New("Products")

	if _, err := g.Mate(withFilter, withoutFilter, "Products"); !errors.Is(err, ErrParentsLackFilterParts) {
		t.Errorf("Mate() error = %v, want ErrParentsLackFilterParts", err)
	}
}

func TestMateReplacesSinglePartWithP2Part(t *testing.T) {
	g := New(rand.New(rand.NewSource(42)))

	p1 := query.New("Products")
	p1.AddOption("$filter", query.FilterTree{Parts: []query.Part{
		{Name: "Price", Operator: "gt", Operand: "10"},
	}})

	p2 := query.New("Products")
	p2.AddOption("$filter", query.FilterTree{Parts: []query.Part{
		{Name: "Name", Operator: "eq", Operand: "'widget'"},
	}})

	child, err := g.Mate(p1, p2, "Products")
	if err != nil {
		t.Fatalf("Mate() error = %v", err)
	}

	childFilter, ok := child.Filter()
	if !ok {
		t.Fatal("child has no $filter option")
	}
	p2Filter, _ := p2.Filter()

	// Single-part parents: the only slot available gets overwritten, so the
	// child's one part must come from p2.
	if len(childFilter.Parts) != 1 || childFilter.Parts[0] != p2Filter.Parts[0] {
		t.Errorf("child part = %+v, want p2's sole part %+v", childFilter.Parts, p2Filter.Parts)
	}
}

func TestMateRecordsBothParentsAsPredecessors(t *testing.T) {
	g := New(rand.New(rand.NewSource(1)))

	p1 := query.New("Products")
	p1.AddOption("$filter", query.FilterTree{Parts: []query.Part{{Name: "Price", Operator: "gt", Operand: "10"}}})
	p2 := query.New("Products")
	p2.AddOption("$filter", query.FilterTree{Parts: []query.Part{{Name: "Name", Operator: "eq", Operand: "'x'"}}})

	child, err := g.Mate(p1, p2, "Products")
	if err != nil {
		t.Fatalf("Mate() error = %v", err)
	}

	if len(child.Predecessors) != 2 || child.Predecessors[0] != p1.ID || child.Predecessors[1] != p2.ID {
		t.Errorf("Predecessors = %v, want [%s %s]", child.Predecessors, p1.ID, p2.ID)
	}
}

func TestMateBatchMatesTheSameParentPairRepeatedly(t *testing.T) {
	g := New(rand.New(rand.NewSource(7)))

	p1 := query.New("Products")
	p1.AddOption("$filter", query.FilterTree{Parts: []query.Part{
		{Name: "Price", Operator: "gt", Operand: "10"},
		{Name: "Stock", Operator: "gt", Operand: "0"},
	}})
	p2 := query.New("Products")
	p2.AddOption("$filter", query.FilterTree{Parts: []query.Part{
		{Name: "Name", Operator: "eq", Operand: "'x'"},
	}})

	children, err := g.MateBatch(p1, p2, "Products", 5)
	if err != nil {
		t.Fatalf("MateBatch() error = %v", err)
	}
	if len(children) != 5 {
		t.Fatalf("MateBatch() returned %d children, want 5", len(children))
	}
	for _, child := range children {
		if len(child.Predecessors) != 2 || child.Predecessors[0] != p1.ID || child.Predecessors[1] != p2.ID {
			t.Errorf("sibling has predecessors %v, want the same parent pair [%s %s]", child.Predecessors, p1.ID, p2.ID)
		}
	}
}
