// Package client consumes the match feed served by cmd/server and
// re-normalizes whatever envelope the body arrives in.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cricket-tracker/internal/domain"
	"cricket-tracker/internal/matches"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
)

const DefaultTimeout = 15 * time.Second

// APIError is a non-200 answer from the server. Error and Details come from
// the JSON error body when one is present.
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("server returned %d", e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", msg, e.Details)
	}
	return msg
}

// Result is one fetched feed. FetchedAt is the "last updated" stamp shown
// to users.
type Result struct {
	Feed      domain.Feed
	Matches   []domain.Record
	Shape     matches.Shape
	FetchedAt time.Time
}

type Client struct {
	baseURL string
	http    *fasthttp.Client
	now     func() time.Time
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fasthttp.Client{
			ReadTimeout:         DefaultTimeout,
			WriteTimeout:        DefaultTimeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		now: time.Now,
	}
}

// Fetch loads feed from the server. An empty Matches slice is a valid
// answer, not an error.
func (c *Client) Fetch(ctx context.Context, feed domain.Feed) (*Result, error) {
	body, err := c.get(ctx, "/api/"+string(feed))
	if err != nil {
		return nil, err
	}

	records, shape := matches.NormalizeShape(body)
	return &Result{
		Feed:      feed,
		Matches:   records,
		Shape:     shape,
		FetchedAt: c.now(),
	}, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, deadline)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("request %s: %w", path, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("request %s: %w", path, err)
	}

	body, err := resp.BodyUncompressed()
	if err != nil {
		return nil, fmt.Errorf("failed to decompress body: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		_ = jsoniter.Unmarshal(body, apiErr)
		return nil, apiErr
	}
	return append([]byte(nil), body...), nil
}
