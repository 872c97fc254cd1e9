// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides rate-limited, retrying HTTP calls shared by the
// literature and validation clients.
package httputil

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RetryBaseDelay controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 5

// RetryHook is called before each backoff wait with the attempt number
// (starting at 1) and the reason for the retry.
type RetryHook func(attempt int, reason string)

// Client wraps an http.Client with a token-bucket limiter and retry policy.
type Client struct {
	HTTP       *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	OnRetry    RetryHook
}

// NewClient returns a Client allowing rps requests per second with a burst of one.
// A non-positive rps disables rate limiting.
func NewClient(hc *http.Client, rps float64, maxRetries int) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{HTTP: hc, MaxRetries: maxRetries}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// Do sends req, waiting on the limiter before every attempt, and retries
// with DoWithRetry's policy.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return doWithRetry(ctx, c.HTTP, req, c.MaxRetries, c.Limiter, c.OnRetry)
}

// DoWithRetry executes an HTTP request and retries on HTTP 429, HTTP 5xx,
// and transient network errors with exponential backoff. The delay starts at
// RetryBaseDelay and doubles each attempt.
//
// When maxRetries is 0 the default (5) is used. On each retried response the
// body is drained and closed before sleeping. If the context is cancelled
// during a backoff wait the function returns ctx.Err(). After exhausting
// retries the last response is returned so the caller can inspect it, or the
// last network error if no response was received.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	return doWithRetry(ctx, client, req, maxRetries, nil, nil)
}

func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, limiter *rate.Limiter, hook RetryHook) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		reason := ""
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTransient(err) || attempt >= maxRetries {
				return nil, err
			}
			reason = err.Error()
		case Retryable(resp.StatusCode):
			if attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			reason = resp.Status
		default:
			return resp, nil
		}

		if hook != nil {
			hook(attempt+1, reason)
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// Retryable reports whether an HTTP status warrants another attempt.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func isTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
