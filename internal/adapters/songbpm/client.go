// Package songbpm implements the tempo/key estimator port against the
// GetSongBPM lookup API. The service is treated as unreliable and optional:
// a miss is a valid answer and repeated failures degrade to unknown.
package songbpm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.getsongbpm.com"
	defaultTimeout = 10 * time.Second

	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
)

// Client is an HTTP client for the GetSongBPM API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertion
var _ ports.TempoKeyEstimator = (*Client)(nil)

// NewClient constructs a Client. baseURL == "" selects the production API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBaseBackoff,
	}
}

type searchResponse struct {
	Search []searchHit `json:"search"`
}

type searchHit struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
	Tempo string `json:"tempo"`
	KeyOf string `json:"key_of"`
}

// Estimate looks up the track by cleaned title/artist and returns the BPM
// and key of the best hit. domain.ErrEstimateNotFound means the service has
// no confident entry; domain.ErrLookupUnavailable wraps transport failures
// after retries so callers can degrade instead of aborting a batch.
func (c *Client) Estimate(ctx context.Context, track domain.Track) (domain.TempoKeyEstimate, error) {
	title, artist := cleanLookupTerms(track.Title, track.Artist)
	if title == "" {
		return domain.TempoKeyEstimate{}, domain.ErrEstimateNotFound
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("type", "both")
	params.Set("lookup", fmt.Sprintf("song:%s artist:%s", title, artist))
	endpoint := fmt.Sprintf("%s/search/?%s", c.baseURL, params.Encode())

	var body searchResponse
	if err := c.getJSONWithRetry(ctx, endpoint, &body); err != nil {
		return domain.TempoKeyEstimate{}, fmt.Errorf("songbpm: %w: %w", domain.ErrLookupUnavailable, err)
	}

	hit, ok := bestHit(title, artist, body.Search)
	if !ok {
		return domain.TempoKeyEstimate{}, domain.ErrEstimateNotFound
	}

	bpm, err := strconv.ParseFloat(strings.TrimSpace(hit.Tempo), 64)
	if err != nil || bpm <= 0 {
		return domain.TempoKeyEstimate{}, domain.ErrEstimateNotFound
	}

	return domain.TempoKeyEstimate{
		BPM: bpm,
		Key: parseKeyName(hit.KeyOf),
	}, nil
}

// bestHit picks the first hit that passes the similarity gate, so a wrong
// song never poisons the library with a foreign tempo.
func bestHit(title, artist string, hits []searchHit) (searchHit, bool) {
	for _, hit := range hits {
		if confidentMatch(title, artist, hit.Title, hit.Artist.Name) {
			return hit, true
		}
	}
	return searchHit{}, false
}

var pitchClasses = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3,
	"E": 4, "F": 5, "F#": 6, "Gb": 6, "G": 7, "G#": 8,
	"Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

// parseKeyName parses key strings like "G minor", "C major" or bare "G"
// (major implied). Returns nil when the string is absent or unparseable, so
// the key stays explicitly unknown rather than defaulting to C.
func parseKeyName(keyOf string) *domain.Key {
	parts := strings.Fields(strings.TrimSpace(keyOf))
	if len(parts) == 0 {
		return nil
	}
	pc, ok := pitchClasses[parts[0]]
	if !ok {
		return nil
	}
	mode := domain.ModeMajor
	if len(parts) > 1 && strings.Contains(strings.ToLower(parts[1]), "min") {
		mode = domain.ModeMinor
	}
	return &domain.Key{PitchClass: pc, Mode: mode}
}

func (c *Client) getJSONWithRetry(ctx context.Context, endpoint string, v any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			log.Printf("WARN songbpm: retry %d/%d after: %v", attempt, c.maxRetries-1, lastErr)
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		lastErr = c.getJSON(ctx, endpoint, v)
		if lastErr == nil {
			return nil
		}
		if !transient(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", c.maxRetries, lastErr)
}

type statusError int

func (e statusError) Error() string { return fmt.Sprintf("status %d", int(e)) }

func transient(err error) bool {
	var se statusError
	if errors.As(err, &se) {
		return int(se) == http.StatusTooManyRequests || int(se) >= http.StatusInternalServerError
	}
	return true // transport errors are retryable
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
