package fitness

import (
	"testing"
	"time"

	"github.com/odfuzz/odfuzz/internal/dispatch"
	"github.com/odfuzz/odfuzz/internal/query"
)

func TestEvaluateResponseTimeBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just under 2s", 1990 * time.Millisecond, 0},
		{"just under 10s", 9990 * time.Millisecond, 1},
		{"just under 20s", 19990 * time.Millisecond, 2},
		{"at 20s", 20 * time.Second, 5},
		{"well over 20s", 45 * time.Second, 5},
	}

	// Every case below shares the same QueryString, so the string-length
	// component of Evaluate is an identical constant bias in each one;
	// isolate it here so the table only has to encode the response-time
	// contribution it actually exercises.
	baseline := query.New("Products")
	baseline.QueryString = "Products?$top=1"
	baseline.Response = &dispatch.Response{StatusCode: 200, Elapsed: 0}
	bias := Evaluate(baseline)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := query.New("Products")
			q.QueryString = "Products?$top=1"
			q.Response = &dispatch.Response{StatusCode: 200, Elapsed: tt.elapsed}

			got := Evaluate(q) - bias
			if got != tt.want {
				t.Errorf("Evaluate() - bias = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvaluateStatusCodeBoost(t *testing.T) {
	q500 := query.New("Products")
	q500.QueryString = "Products?$top=1"
	q500.Response = &dispatch.Response{StatusCode: 500, Elapsed: time.Second}

	q200 := query.New("Products")
	q200.QueryString = "Products?$top=1"
	q200.Response = &dispatch.Response{StatusCode: 200, Elapsed: time.Second}

	if got := Evaluate(q500); got <= Evaluate(q200) {
		t.Errorf("expected a 500 response to score strictly higher than a 200, got %d vs %d", got, Evaluate(q200))
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	q := query.New("Products")
	q.QueryString = "Products?$filter=Price gt 10"
	q.Response = &dispatch.Response{StatusCode: 500, Elapsed: 3 * time.Second}

	first := Evaluate(q)
	second := Evaluate(q)
	if first != second {
		t.Errorf("Evaluate() is not deterministic: %d != %d", first, second)
	}
}
