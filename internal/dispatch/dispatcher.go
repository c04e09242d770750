// Package dispatch holds the authenticated HTTP client that issues OData
// requests against the target service, plus the TLS trust material it
// needs. Retry and per-request timeout discipline above a single attempt
// are the Evolution Driver's responsibility (see internal/evolution); a
// Dispatcher call either succeeds once or fails once.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Response is the classified result of one dispatched request: just enough
// of the HTTP response for the fitness evaluator and corpus store to work
// with.
type Response struct {
	StatusCode   int
	ErrorCode    string
	ErrorMessage string
	Elapsed      time.Duration
}

// DispatchError wraps a transport-layer failure (DNS, TCP, TLS, timeout)
// with the method and URL that failed.
type DispatchError struct {
	Method string
	URL    string
	Cause  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: %s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *DispatchError) Unwrap() error { return e.Cause }

// Dispatcher holds a reusable, concurrency-safe HTTP client authenticated
// against one OData service root.
type Dispatcher struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	limiter  *rate.Limiter // optional politeness throttle, nil disables it
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithRateLimit caps outbound request rate (requests per second, with the
// given burst). It is an optional politeness throttle, off by default.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(d *Dispatcher) {
		d.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithHTTPClient overrides the underlying *http.Client, e.g. to install a
// custom TLS trust anchor via NewTLSClient.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) { d.client = client }
}

// New builds a Dispatcher against serviceRoot, normalizing it to end with a
// single trailing slash per the Builder contract's path joining.
func New(serviceRoot, username, password string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL:  strings.TrimRight(serviceRoot, "/") + "/",
		username: username,
		password: password,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Get issues an authenticated GET for path (entity-set name plus query
// string) against the service root.
func (d *Dispatcher) Get(ctx context.Context, path string) (*Response, error) {
	return d.Do(ctx, http.MethodGet, path)
}

// Do issues an authenticated request of the given method. GET is the only
// method the fuzzer's own code calls today; the method stays generic
// because a POST-probing Builder is a plausible future collaborator.
func (d *Dispatcher) Do(ctx context.Context, method, path string) (*Response, error) {
	url := d.baseURL + strings.TrimPrefix(path, "/")

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, &DispatchError{Method: method, URL: url, Cause: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, &DispatchError{Method: method, URL: url, Cause: err}
	}
	req.SetBasicAuth(d.username, d.password)

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &DispatchError{Method: method, URL: url, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DispatchError{Method: method, URL: url, Cause: err}
	}

	errCode, errMsg := parseODataError(body)
	return &Response{
		StatusCode:   resp.StatusCode,
		ErrorCode:    errCode,
		ErrorMessage: errMsg,
		Elapsed:      elapsed,
	}, nil
}

// odataErrorBody is the typical SAP/OData v2 error envelope:
// {"error": {"code": "...", "message": {"lang": "en", "value": "..."}}}
type odataErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// parseODataError best-effort extracts ErrorCode/ErrorMessage from a
// response body. A body that isn't the expected envelope (e.g. a 200 with
// an entity feed) yields empty strings, which is fine — only error
// responses are expected to carry this shape.
func parseODataError(body []byte) (code, message string) {
	var parsed odataErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ""
	}
	return parsed.Error.Code, parsed.Error.Message.Value
}
