// Package query defines the population individual: a synthesized OData
// query, its structured options, and the response it was scored against.
package query

import (
	"github.com/google/uuid"

	"github.com/odfuzz/odfuzz/internal/dispatch"
)

// Query is one individual in the evolving population.
type Query struct {
	// ID is a unique 128-bit identifier assigned at construction.
	ID string

	// EntityName is the target entity set.
	EntityName string

	// Options maps option name ($filter, $orderby, $top, $skip, $expand,
	// search) to its structured value. The $filter entry, when present, is
	// always a FilterTree.
	Options map[string]any

	// QueryString is the serialized URL path+query actually dispatched. It
	// must stay consistent with Options: rebuild it whenever Options change.
	QueryString string

	// Response is attached after dispatch; nil until then.
	Response *dispatch.Response

	// Score is the fitness assigned by the Analyzer, set exactly once.
	Score int

	// Predecessors are the parent query IDs; empty for seed individuals.
	Predecessors []string
}

// New constructs a fresh query targeting the given entity set, with a new
// random 128-bit ID.
func New(entityName string) *Query {
	return &Query{
		ID:         uuid.NewString(),
		EntityName: entityName,
		Options:    make(map[string]any),
	}
}

// AddOption sets the structured value for a query option.
func (q *Query) AddOption(name string, value any) {
	q.Options[name] = value
}

// Filter returns the query's $filter tree and whether one is set.
func (q *Query) Filter() (FilterTree, bool) {
	v, ok := q.Options["$filter"]
	if !ok {
		return FilterTree{}, false
	}
	tree, ok := v.(FilterTree)
	return tree, ok
}

// HTTPStatus returns the dispatched response's status code, or 0 if no
// response has been attached yet.
func (q *Query) HTTPStatus() int {
	if q.Response == nil {
		return 0
	}
	return q.Response.StatusCode
}

// ErrorCode returns the dispatched response's OData error code, used as the
// second half of the corpus bucket key. Empty for a plain 200.
func (q *Query) ErrorCode() string {
	if q.Response == nil {
		return ""
	}
	return q.Response.ErrorCode
}
