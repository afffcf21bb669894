// Package reverb is a thin client for the Reverb marketplace REST API.
//
// All calls carry the session bearer token and the fixed content
// negotiation headers the API requires. Read calls may be served from a
// short-TTL cache; mutations invalidate the affected cache entries. The
// retry policy distinguishes rate limiting (retried with backoff) from
// other API errors (never retried) and transport failures (retried once,
// and only for idempotent GETs).
package reverb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/revdeskhq/revdesk/internal/logging"
)

const (
	acceptHeader     = "application/hal+json"
	apiVersionHeader = "3.0"
	userAgent        = "revdesk/1.0"

	transportRetryDelay = 1 * time.Second
	maxErrorBodyBytes   = 4096
)

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the API root, including any path prefix.
	BaseURL string

	// Token is the session bearer token. Held in memory only.
	Token string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxAttempts caps rate-limit retries per call (initial try included).
	MaxAttempts int

	// RetryBackoff is the base backoff after a rate-limited response,
	// doubled on each subsequent attempt.
	RetryBackoff time.Duration

	// CacheTTL is how long read responses may be served from cache.
	// Zero disables the cache.
	CacheTTL time.Duration

	// DisplayCurrency, when set, asks the API to render money fields in
	// that currency.
	DisplayCurrency string
}

// Client issues authenticated calls against the remote API. One client is
// constructed per user session and discarded at logout; it never outlives
// the token it carries.
type Client struct {
	base        string
	token       string
	httpClient  *http.Client
	maxAttempts int
	backoff     time.Duration
	currency    string
	cache       *responseCache
	log         zerolog.Logger

	// sleep is swept out in tests to keep retries instant.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client for one session.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Client{
		base:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:       strings.TrimSpace(cfg.Token),
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: attempts,
		backoff:     backoff,
		currency:    strings.TrimSpace(cfg.DisplayCurrency),
		cache:       newResponseCache(cfg.CacheTTL),
		log:         logging.Component("reverb"),
		sleep:       sleepCtx,
	}
}

// ClearToken drops the bearer token, ending the session's ability to call
// the API. Used on logout.
func (c *Client) ClearToken() {
	c.token = ""
}

// HasToken reports whether the client holds a credential.
func (c *Client) HasToken() bool {
	return c.token != ""
}

// callOptions tune a single call.
type callOptions struct {
	// noRetry disables every automatic retry, including the 429 path.
	// The reply send uses it: resending a message is not idempotent.
	noRetry bool

	// noCache bypasses the read cache for this call.
	noCache bool
}

// Call issues a request and decodes the JSON response. A nil result with a
// nil error means the API returned an empty 2xx body.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	return c.call(ctx, method, path, query, body, callOptions{})
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, opts callOptions) (any, error) {
	op := method + " " + path
	isGet := method == http.MethodGet

	cacheKey := ""
	if isGet && !opts.noCache {
		cacheKey = cacheKeyFor(path, query)
		if cached, ok := c.cache.get(cacheKey); ok {
			c.log.Debug().Str("op", op).Msg("served from cache")
			return cached, nil
		}
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		payload = encoded
	}

	transportRetried := false
	for attempt := 1; ; attempt++ {
		req, err := c.newRequest(ctx, method, path, query, payload)
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &TransportError{Op: op, Err: ctx.Err()}
			}
			// One fixed-delay retry, and only for idempotent reads.
			if isGet && !opts.noRetry && !transportRetried {
				transportRetried = true
				c.log.Warn().Str("op", op).Err(err).Msg("transport failure, retrying once")
				if serr := c.sleep(ctx, transportRetryDelay); serr != nil {
					return nil, &TransportError{Op: op, Err: serr}
				}
				continue
			}
			return nil, &TransportError{Op: op, Err: err}
		}

		result, handled, err := c.handleResponse(op, resp)
		if err == nil {
			if handled && cacheKey != "" {
				c.cache.put(cacheKey, result)
			}
			return result, nil
		}

		var rl *RateLimitedError
		if isRateLimitResponse(err) {
			rl = &RateLimitedError{Op: op, Attempts: attempt}
			if !opts.noRetry && attempt < c.maxAttempts {
				delay := c.backoff << (attempt - 1)
				c.log.Warn().Str("op", op).Int("attempt", attempt).Dur("backoff", delay).Msg("rate limited, backing off")
				if serr := c.sleep(ctx, delay); serr != nil {
					return nil, rl
				}
				continue
			}
			return nil, rl
		}
		return nil, err
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload []byte) (*http.Request, error) {
	uri := c.base + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Version", apiVersionHeader)
	if c.currency != "" {
		req.Header.Set("X-Display-Currency", c.currency)
	}
	if payload != nil {
		req.Header.Set("Content-Type", acceptHeader)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// handleResponse decodes a 2xx body and classifies everything else.
// handled is true only for a 2xx response.
func (c *Client) handleResponse(op string, resp *http.Response) (result any, handled bool, err error) {
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, &TransportError{Op: op, Err: err}
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil, true, nil
		}
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return nil, false, fmt.Errorf("decode %s response: %w", op, err)
		}
		return decoded, true, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, false, errRateLimitResponse
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	apiErr := &APIError{Op: op, Status: resp.StatusCode, Body: logging.Redact(string(raw))}
	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Msg("api error")
	return nil, false, apiErr
}

// errRateLimitResponse is an internal marker converted to RateLimitedError
// once the attempt count is known.
var errRateLimitResponse = fmt.Errorf("rate limited")

func isRateLimitResponse(err error) bool {
	return err == errRateLimitResponse
}

func cacheKeyFor(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
