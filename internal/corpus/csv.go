package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/odfuzz/odfuzz/internal/query"
)

// ExportCSV writes one row per stored query in the full report shape
// spec.md §6 requires: StatusCode;ErrorCode;ErrorMessage;EntitySet;
// AccessibleSet;AccessibleKeys;Property;orderby;top;skip;filter;expand;search.
func (s *Store) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	defer writer.Flush()

	header := []string{
		"StatusCode", "ErrorCode", "ErrorMessage", "EntitySet",
		"AccessibleSet", "AccessibleKeys", "Property",
		"orderby", "top", "skip", "filter", "expand", "search",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, q := range s.All() {
		filterStr := ""
		if tree, ok := q.Filter(); ok {
			filterStr = tree.Serialize()
		}
		row := []string{
			strconv.Itoa(q.HTTPStatus()),
			q.ErrorCode(),
			errorMessage(q),
			q.EntityName,
			q.EntityName, // AccessibleSet: same entity set, no navigation in this module
			"",           // AccessibleKeys: not synthesized by this module's Query model
			"",           // Property: single-property column, unused by multi-part filters
			stringOption(q, "$orderby"),
			stringOption(q, "$top"),
			stringOption(q, "$skip"),
			filterStr,
			stringOption(q, "$expand"),
			stringOption(q, "search"),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return writer.Error()
}

// ExportFilterCSV writes the filter-only report variant: one row per filter
// part, across every stored query: StatusCode;ErrorCode;ErrorMessage;
// EntitySet;Property;logical;operator;function;operand.
func (s *Store) ExportFilterCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	defer writer.Flush()

	header := []string{
		"StatusCode", "ErrorCode", "ErrorMessage", "EntitySet",
		"Property", "logical", "operator", "function", "operand",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, q := range s.All() {
		tree, ok := q.Filter()
		if !ok {
			continue
		}
		for i, part := range tree.Parts {
			logical := ""
			if i > 0 && i-1 < len(tree.Logicals) {
				logical = tree.Logicals[i-1]
			}
			row := []string{
				strconv.Itoa(q.HTTPStatus()),
				q.ErrorCode(),
				errorMessage(q),
				q.EntityName,
				part.Name,
				logical,
				part.Operator,
				"", // function: set only for function-wrapped operands, none here
				part.Operand,
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	return writer.Error()
}

func errorMessage(q *query.Query) string {
	if q.Response == nil {
		return ""
	}
	return q.Response.ErrorMessage
}

func stringOption(q *query.Query, name string) string {
	v, ok := q.Options[name]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
