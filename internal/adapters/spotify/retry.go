package spotify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

// doRequestWithRetry performs a GET with exponential backoff on transient
// failures. Rate-limit responses honor the Retry-After header.
func (c *Client) doRequestWithRetry(req *http.Request) (*http.Response, error) {
	maxRetries := c.maxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	baseBackoff := c.baseBackoff
	if baseBackoff <= 0 {
		baseBackoff = defaultBackoff
	}

	ctx := req.Context()
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("request canceled: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		retryAfter, retry := shouldRetry(resp, err)
		if !retry {
			return resp, err
		}

		if err != nil {
			log.Printf("WARN spotify adapter: retry %d/%d after error: %v", attempt+1, maxRetries, err)
		} else {
			log.Printf("WARN spotify adapter: retry %d/%d after status %d", attempt+1, maxRetries, resp.StatusCode)
			_ = resp.Body.Close()
		}

		if attempt == maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
			}
			return nil, fmt.Errorf("request failed after %d attempts: status %d", maxRetries, resp.StatusCode)
		}

		backoff := baseBackoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			backoff = retryAfter
		}
		if err := sleepWithContext(ctx, backoff); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts", maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
