package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cricket-tracker/internal/config"
	"cricket-tracker/internal/constants"
	"cricket-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

var ErrUpstreamStatus = errors.New("upstream returned non-200 status")

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %d", e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

type CricbuzzClient struct {
	apiKey  string
	host    string
	baseURL string
	paths   map[domain.Feed]string
	client  *fasthttp.Client
	quotaMu sync.RWMutex
	quota   QuotaInfo
}

// QuotaInfo mirrors the RapidAPI plan headers of the last response.
type QuotaInfo struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCricbuzzClient(cfg *config.Config) *CricbuzzClient {
	paths := make(map[domain.Feed]string, len(cfg.Feeds))
	for feed, path := range cfg.Feeds {
		paths[feed] = path
	}

	return &CricbuzzClient{
		apiKey:  cfg.RapidAPIKey,
		host:    cfg.RapidAPIHost,
		baseURL: cfg.BaseURL,
		paths:   paths,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		quota: QuotaInfo{
			Limit:     -1,
			Remaining: -1,
		},
	}
}

func (c *CricbuzzClient) GetQuotaInfo() QuotaInfo {
	c.quotaMu.RLock()
	defer c.quotaMu.RUnlock()
	return c.quota
}

func (c *CricbuzzClient) updateQuota(resp *fasthttp.Response) {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Requests-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.quota.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Requests-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.quota.Remaining = val
		}
	}
	c.quota.UpdatedAt = time.Now()
}

// GetFeed returns the decompressed upstream body for feed. The body is not
// decoded here.
func (c *CricbuzzClient) GetFeed(ctx context.Context, feed domain.Feed) ([]byte, error) {
	path, ok := c.paths[feed]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFeed, feed)
	}
	return doRequest(ctx, c, c.baseURL+path)
}

func doRequest(ctx context.Context, client *CricbuzzClient, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-RapidAPI-Key", client.apiKey)
	req.Header.Set("X-RapidAPI-Host", client.host)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip, br")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateQuota(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode()}
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("failed to decompress body: %w", err)
	}
	// body may alias the pooled response buffer
	return append([]byte(nil), body...), nil
}
