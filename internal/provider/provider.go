package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// Searcher is the interface the run orchestrator consumes.
// Implementations return a finite, unordered result list per call.
type Searcher interface {
	// Search returns all raw results the provider currently reports for
	// the query, or one of the package's sentinel errors.
	Search(ctx context.Context, query model.Query) ([]model.RawResult, error)
}

// Default client settings, matching the provider's documented limits.
const (
	// DefaultLimit is the page size requested from the provider.
	// The provider caps this at 1000.
	DefaultLimit = 200

	// DefaultMaxRPS is the client-side request rate cap. The provider
	// enforces its own limit; staying below it avoids burning the 429
	// retry budget on routine runs.
	DefaultMaxRPS = 3

	// DefaultMaxRetries bounds consecutive 429 retries per query.
	DefaultMaxRetries = 8

	// DefaultBackoffBase is the first 429 backoff interval.
	DefaultBackoffBase = 2 * time.Second

	// DefaultBackoffCap is the maximum 429 backoff interval.
	DefaultBackoffCap = 60 * time.Second

	// DefaultQueryBudget is the wall-clock budget for one query,
	// including all pages and backoff sleeps.
	DefaultQueryBudget = 5 * time.Minute

	// DefaultRequestTimeout is the timeout for a single HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// maxOffset is the pagination cap enforced by the provider. Results
	// beyond it are unreachable; the fetched set is truncated there.
	maxOffset = 2500

	// maxLimit is the page size cap enforced by the provider.
	maxLimit = 1000
)

// Config holds the provider connection settings.
type Config struct {
	// BaseURL is the API endpoint, e.g. "https://leakcheck.io/api/v2/query".
	BaseURL string

	// APIKey authenticates requests via the X-API-Key header.
	APIKey string

	// Limit is the page size. Clamped to [1, 1000]; zero uses the default.
	Limit int

	// MaxRPS caps client-side request rate. Zero uses the default.
	MaxRPS int

	// MaxRetries bounds consecutive 429 retries. Zero uses the default.
	MaxRetries int

	// BackoffBase and BackoffCap shape the exponential 429 backoff.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// QueryBudget is the total wall-clock budget per query.
	QueryBudget time.Duration

	// RequestTimeout is the timeout for a single HTTP request.
	RequestTimeout time.Duration
}

// Client talks to a LeakCheck-style search API: GET {base}/{query} with
// limit/offset pagination and an X-API-Key header.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	limit       int
	maxRetries  int
	backoffBase time.Duration
	backoffCap  time.Duration
	queryBudget time.Duration

	// minInterval enforces the MaxRPS cap across all goroutines sharing
	// the client; lastCall is guarded by throttleMu.
	minInterval time.Duration
	throttleMu  sync.Mutex
	lastCall    time.Time

	logger *slog.Logger

	// onRateLimited is invoked once per 429 answer, before the backoff
	// sleep. Used by the orchestrator to count throttling events.
	onRateLimited func()
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimitedHook registers a callback invoked on every 429 answer.
func WithRateLimitedHook(fn func()) ClientOption {
	return func(c *Client) {
		c.onRateLimited = fn
	}
}

// WithHTTPClient replaces the underlying HTTP client. Intended for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a provider client from the given configuration.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("provider API key is required")
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	maxRPS := cfg.MaxRPS
	if maxRPS <= 0 {
		maxRPS = DefaultMaxRPS
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	backoffCap := cfg.BackoffCap
	if backoffCap <= 0 {
		backoffCap = DefaultBackoffCap
	}
	queryBudget := cfg.QueryBudget
	if queryBudget <= 0 {
		queryBudget = DefaultQueryBudget
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		limit:       limit,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		backoffCap:  backoffCap,
		queryBudget: queryBudget,
		minInterval: time.Second / time.Duration(maxRPS),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// apiResponse is the provider's wire format for one result page.
type apiResponse struct {
	Success bool        `json:"success"`
	Quota   json.Number `json:"quota,omitempty"`
	Found   int         `json:"found,omitempty"`
	Result  []resultRow `json:"result"`
}

// resultRow is one record on the wire. Credential fields are optional and
// end up in RawResult.Extra, where the masking layer handles them.
type resultRow struct {
	Link     string     `json:"link"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	Source   sourceInfo `json:"source"`
	Email    string     `json:"email,omitempty"`
	Username string     `json:"username,omitempty"`
	Phone    string     `json:"phone,omitempty"`
	Password string     `json:"password,omitempty"`
	Fields   []string   `json:"fields,omitempty"`
}

// sourceInfo is the result origin. Some provider endpoints return it as an
// object with a breach date, others as a bare string.
type sourceInfo struct {
	Name       string `json:"name"`
	BreachDate string `json:"breach_date"`
}

// UnmarshalJSON accepts both the object and the bare-string encoding.
func (s *sourceInfo) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Name)
	}
	type alias sourceInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = sourceInfo(a)
	return nil
}

// toRawResult maps a wire row onto the shared data model. Rows without a
// link have no derivable identity and are dropped by the caller.
func (row resultRow) toRawResult() model.RawResult {
	extra := make(map[string]string)
	if row.Source.BreachDate != "" {
		extra[model.DetailBreach] = row.Source.BreachDate
	}
	if row.Email != "" {
		extra["email"] = row.Email
	}
	if row.Username != "" {
		extra["username"] = row.Username
	}
	if row.Phone != "" {
		extra["phone"] = row.Phone
	}
	if row.Password != "" {
		extra["password"] = row.Password
	}
	if len(row.Fields) > 0 {
		extra["fields"] = strings.Join(row.Fields, ",")
	}
	if len(extra) == 0 {
		extra = nil
	}
	return model.RawResult{
		Link:    row.Link,
		Title:   row.Title,
		Snippet: row.Snippet,
		Source:  row.Source.Name,
		Extra:   extra,
	}
}

// Search fetches all result pages for the query. It honors the per-query
// wall-clock budget, throttles to the configured request rate, and backs
// off with jitter on 429 up to the bounded retry budget.
func (c *Client) Search(ctx context.Context, query model.Query) ([]model.RawResult, error) {
	sanitized := SanitizeQuery(query.Value, query.NormalizedType())
	if sanitized == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyQuery, query.Value)
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryBudget)
	defer cancel()

	var results []model.RawResult
	offset := 0
	retries := 0

	for {
		if offset > maxOffset {
			c.logger.Warn("pagination offset cap reached, truncating",
				"query", query.Key(),
				"fetched", len(results),
			)
			break
		}

		if err := c.throttle(ctx); err != nil {
			return nil, classifyContextErr(ctx, err)
		}

		page, status, err := c.fetchPage(ctx, sanitized, query.NormalizedType(), offset)
		if err != nil {
			return nil, err
		}

		if status == http.StatusTooManyRequests {
			if c.onRateLimited != nil {
				c.onRateLimited()
			}
			retries++
			if retries > c.maxRetries {
				return nil, fmt.Errorf("%w: gave up after %d retries", ErrRateLimited, c.maxRetries)
			}
			backoff := c.backoffFor(retries)
			c.logger.Warn("provider rate limited, backing off",
				"query", query.Key(),
				"retry", retries,
				"max_retries", c.maxRetries,
				"backoff", backoff,
			)
			if err := sleepContext(ctx, backoff); err != nil {
				return nil, classifyContextErr(ctx, err)
			}
			continue
		}

		for _, row := range page.Result {
			if strings.TrimSpace(row.Link) == "" {
				continue
			}
			results = append(results, row.toRawResult())
		}

		if len(page.Result) < c.limit {
			break
		}
		offset += c.limit
	}

	return results, nil
}

// fetchPage performs one paginated request. A 429 status is returned to
// the caller rather than treated as an error so the retry loop stays in
// one place; any other non-2xx status maps to a sentinel error here.
func (c *Client) fetchPage(ctx context.Context, sanitized string, queryType model.QueryType, offset int) (*apiResponse, int, error) {
	reqURL := c.baseURL + "/" + url.PathEscape(sanitized)
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.limit))
	params.Set("offset", strconv.Itoa(offset))
	if queryType != "" && queryType != model.QueryTypeAuto {
		params.Set("type", string(queryType))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, classifyContextErr(ctx, ctx.Err())
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, resp.StatusCode, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("%w: unexpected status %s", ErrUnavailable, resp.Status)
	}

	var page apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &page, resp.StatusCode, nil
}

// throttle enforces the client-side request rate across goroutines.
func (c *Client) throttle(ctx context.Context) error {
	c.throttleMu.Lock()
	now := time.Now()
	wait := c.minInterval - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.throttleMu.Unlock()

	if wait == 0 {
		return nil
	}
	return sleepContext(ctx, wait)
}

// backoffFor returns the exponential backoff for the nth retry, capped
// and with up to 25% jitter so multiple queries don't retry in lockstep.
func (c *Client) backoffFor(retry int) time.Duration {
	backoff := c.backoffBase << (retry - 1)
	if backoff > c.backoffCap || backoff <= 0 {
		backoff = c.backoffCap
	}
	jitter := time.Duration(rand.Int64N(int64(backoff)/4 + 1))
	return backoff + jitter
}

// sleepContext sleeps for d or until the context ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classifyContextErr distinguishes a caller cancellation from the query
// budget expiring. Budget expiry means the provider was too slow, which
// is an availability problem, not a caller decision.
func classifyContextErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: query budget exhausted", ErrUnavailable)
	}
	return err
}
