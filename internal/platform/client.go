// Package platform is the HTTP client for the external consultation
// booking backend. Every response arrives in the platform envelope
// { code, message, isSuccess, data, errors? }; non-success envelopes are
// surfaced as *APIError.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"consultly/internal/metrics"
	"consultly/internal/models"
)

const (
	headerRequestID = "x-request-id"
)

// Client talks to the booking backend. Authenticated calls carry the
// user's bearer token on the context via WithToken.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with the base URL and request timeout.
func NewClient(baseURL string, timeout time.Duration, rps float64, burst int, logger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	c.addHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncBackend(req.URL.Path, "error")
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if err := decodeEnvelope(resp, out); err != nil {
		metrics.IncBackend(req.URL.Path, "error")
		return err
	}
	metrics.IncBackend(req.URL.Path, "ok")
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set(headerRequestID, uuid.NewString())
	if token, ok := TokenFromContext(req.Context()); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decodeEnvelope unwraps the platform envelope. HTTP errors and
// isSuccess=false both map to *APIError so callers have one failure shape.
func decodeEnvelope(resp *http.Response, out any) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env models.Envelope
	if len(body) > 0 {
		// Some error paths return plain text; keep the raw body for the
		// error message in that case.
		if err := json.Unmarshal(body, &env); err != nil {
			if resp.StatusCode >= 300 {
				return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
			}
			return fmt.Errorf("decode envelope: %w", err)
		}
	}

	if resp.StatusCode >= 300 || (len(body) > 0 && !env.IsSuccess) {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Message:    env.Message,
			Errors:     env.Errors,
		}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
