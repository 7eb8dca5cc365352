// Package spotify implements the streaming-provider port against the
// Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	tokenURL       = "https://accounts.spotify.com/api/token"

	// Spotify caps these endpoints at 50 items per page.
	pageLimit = 50
	// and audio-features at 100 ids per request.
	featuresBatchLimit = 100
)

// Client is an HTTP client for the Spotify adapter.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
}

// compile-time interface assertion
var _ ports.StreamingProvider = (*Client)(nil)

// NewClient constructs a client authenticating with the client-credentials
// flow.
func NewClient(clientID, clientSecret string) *Client {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return NewClientWithHTTP(cfg.Client(context.Background()), defaultBaseURL)
}

// NewClientWithHTTP constructs a client over an existing HTTP client and
// base URL. Used directly by tests.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxRetries:  defaultMaxRetries,
		baseBackoff: defaultBackoff,
	}
}

// RecentlyPlayed fetches the listening history, newest first, mapped to
// tracks plus play events.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]domain.Track, []domain.PlayEvent, error) {
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}
	endpoint := fmt.Sprintf("%s/me/player/recently-played?limit=%d", c.baseURL, limit)

	var body recentlyPlayedResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, nil, fmt.Errorf("spotify adapter: recently played: %w", err)
	}

	tracks := make([]domain.Track, 0, len(body.Items))
	events := make([]domain.PlayEvent, 0, len(body.Items))
	for _, item := range body.Items {
		tracks = append(tracks, mapTrackToDomain(item.Track))
		events = append(events, mapPlayToDomain(item))
	}
	return tracks, events, nil
}

// SavedTracks pages through the user's saved library. limit <= 0 fetches
// everything.
func (c *Client) SavedTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	var tracks []domain.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("%s/me/tracks?limit=%d&offset=%d", c.baseURL, pageLimit, offset)
		var body savedTracksResponse
		if err := c.getJSON(ctx, endpoint, &body); err != nil {
			return nil, fmt.Errorf("spotify adapter: saved tracks: %w", err)
		}

		for _, item := range body.Items {
			tracks = append(tracks, mapTrackToDomain(item.Track))
			if limit > 0 && len(tracks) >= limit {
				return tracks[:limit], nil
			}
		}

		offset += pageLimit
		if body.Next == "" || len(body.Items) == 0 {
			return tracks, nil
		}
	}
}

// AudioFeatures fetches feature bundles for the given track ids, batched to
// the API limit. Tracks the API has no features for are absent from the map.
func (c *Client) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]domain.AudioFeatures, error) {
	out := make(map[string]domain.AudioFeatures, len(trackIDs))

	for start := 0; start < len(trackIDs); start += featuresBatchLimit {
		end := start + featuresBatchLimit
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		batch := trackIDs[start:end]
		endpoint := fmt.Sprintf("%s/audio-features?ids=%s", c.baseURL, url.QueryEscape(strings.Join(batch, ",")))

		var body audioFeaturesResponse
		if err := c.getJSON(ctx, endpoint, &body); err != nil {
			return nil, fmt.Errorf("spotify adapter: audio features: %w", err)
		}
		for _, wf := range body.AudioFeatures {
			if wf == nil || wf.ID == "" {
				continue
			}
			out[wf.ID] = mapFeaturesToDomain(*wf)
		}
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
