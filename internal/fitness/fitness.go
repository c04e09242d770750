// Package fitness implements the pure scoring function applied to a
// dispatched query.
package fitness

import (
	"math"

	"github.com/odfuzz/odfuzz/internal/constants"
	"github.com/odfuzz/odfuzz/internal/query"
)

// Evaluate computes a query's fitness score: higher is better. It requires
// q.Response to be populated (the Analyzer never calls it otherwise).
func Evaluate(q *query.Query) int {
	keysLen := 0
	for name := range q.Options {
		keysLen += len(name)
	}
	length := len(q.QueryString) - len(q.EntityName) - keysLen

	return evalStatusCode(q.Response.StatusCode) +
		evalResponseTime(q.Response.Elapsed.Seconds()) +
		evalStringLength(length)
}

func evalStatusCode(statusCode int) int {
	if statusCode == 500 {
		return 100
	}
	return 0
}

func evalResponseTime(totalSeconds float64) int {
	switch {
	case totalSeconds < 2:
		return 0
	case totalSeconds < 10:
		return 1
	case totalSeconds < 20:
		return 2
	default:
		return 5
	}
}

func evalStringLength(length int) int {
	if length <= 0 {
		// Guarded by the query-string invariant (it always carries at
		// least one non-empty option), but never divide by a
		// non-positive length.
		length = 1
	}
	return int(math.Round(float64(constants.StringThreshold) / float64(length)))
}
