// Package entities declares the contracts the fuzzer's core consumes from
// the OData metadata collaborator (the Builder). The Builder itself —
// parsing $metadata documents into queryable entity-set descriptors — is
// out of scope for this module; only the interfaces it must satisfy live
// here.
package entities

import (
	"context"
	"errors"
)

// Option names the fuzzer is allowed to synthesize values for.
const (
	OptionFilter  = "$filter"
	OptionOrderBy = "$orderby"
	OptionTop     = "$top"
	OptionSkip    = "$skip"
	OptionExpand  = "$expand"
	OptionSearch  = "search"
)

// ErrNoSuchOption is returned by Queryable.QueryOption when the entity set
// has no generator for the requested option name (see spec's generation
// errors, e.g. an entity set with no usable $filter option).
var ErrNoSuchOption = errors.New("entities: queryable has no generator for that option")

// Property describes one property of an entity type, as yielded by the
// Builder's metadata parser.
type Property struct {
	Name string
	Type string // semantic type, e.g. "Edm.String", "Edm.DateTime"
}

// GeneratedOption is the result of asking an OptionGenerator to synthesize
// one value: a structured form consumed by the query machinery, and the
// serialized URL fragment.
type GeneratedOption struct {
	Data   any
	String string
}

// OptionGenerator synthesizes one value for a single query option. Concrete
// generators (random string/date/numeric operand synthesis) are an
// out-of-scope collaborator; this module only calls Generate.
type OptionGenerator interface {
	Generate() (GeneratedOption, error)
}

// EntitySet is the descriptor of a single OData entity set.
type EntitySet interface {
	Name() string
	Properties() []Property
}

// Queryable pairs an entity set with factories that synthesize valid option
// values for it.
type Queryable interface {
	EntitySet() EntitySet
	QueryOption(name string) (OptionGenerator, error)
}

// Entities is the finite collection of queryables the Builder discovered on
// the target service.
type Entities interface {
	All() []Queryable
}

// Builder yields the queryable entity descriptors for a service. Its
// implementation (OData $metadata parsing, restriction-file application) is
// out of scope for this module.
type Builder interface {
	Build(ctx context.Context) (Entities, error)
}
