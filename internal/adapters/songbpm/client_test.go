package songbpm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mfleury/setcrate/internal/core/domain"
)

func testClient(server *httptest.Server) *Client {
	c := NewClient("test-key", server.URL)
	c.httpClient = server.Client()
	c.baseBackoff = time.Millisecond
	return c
}

func TestClient_Estimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Fatalf("api key not sent: %q", got)
		}
		fmt.Fprint(w, `{
			"search": [
				{"id": "x", "title": "Strobe", "artist": {"name": "deadmau5"}, "tempo": "128", "key_of": "B minor"}
			]
		}`)
	}))
	defer server.Close()

	track := domain.Track{ID: "t1", Title: "Strobe", Artist: "deadmau5"}
	est, err := testClient(server).Estimate(context.Background(), track)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.BPM != 128 {
		t.Fatalf("bpm: got %v, want 128", est.BPM)
	}
	if est.Key == nil || est.Key.PitchClass != 11 || est.Key.Mode != domain.ModeMinor {
		t.Fatalf("key: got %+v, want B minor", est.Key)
	}
}

func TestClient_Estimate_NoHit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"search": []}`)
	}))
	defer server.Close()

	track := domain.Track{ID: "t1", Title: "Obscurity", Artist: "Nobody"}
	if _, err := testClient(server).Estimate(context.Background(), track); !errors.Is(err, domain.ErrEstimateNotFound) {
		t.Fatalf("expected ErrEstimateNotFound, got %v", err)
	}
}

func TestClient_Estimate_SimilarityGate(t *testing.T) {
	// A completely different song must not pass as a match.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"search": [
				{"id": "x", "title": "Completely Unrelated Song", "artist": {"name": "Someone Else"}, "tempo": "90", "key_of": "C"}
			]
		}`)
	}))
	defer server.Close()

	track := domain.Track{ID: "t1", Title: "Strobe", Artist: "deadmau5"}
	if _, err := testClient(server).Estimate(context.Background(), track); !errors.Is(err, domain.ErrEstimateNotFound) {
		t.Fatalf("expected ErrEstimateNotFound for a bad match, got %v", err)
	}
}

func TestClient_Estimate_Unavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	track := domain.Track{ID: "t1", Title: "Strobe", Artist: "deadmau5"}
	_, err := testClient(server).Estimate(context.Background(), track)
	if !errors.Is(err, domain.ErrLookupUnavailable) {
		t.Fatalf("expected ErrLookupUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestClient_Estimate_BadTempo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"search": [
				{"id": "x", "title": "Strobe", "artist": {"name": "deadmau5"}, "tempo": "n/a", "key_of": ""}
			]
		}`)
	}))
	defer server.Close()

	track := domain.Track{ID: "t1", Title: "Strobe", Artist: "deadmau5"}
	if _, err := testClient(server).Estimate(context.Background(), track); !errors.Is(err, domain.ErrEstimateNotFound) {
		t.Fatalf("unparseable tempo must read as no estimate, got %v", err)
	}
}

func TestParseKeyName(t *testing.T) {
	tests := []struct {
		in       string
		wantNil  bool
		wantPC   int
		wantMode int
	}{
		{"G minor", false, 7, domain.ModeMinor},
		{"C major", false, 0, domain.ModeMajor},
		{"G", false, 7, domain.ModeMajor},
		{"F# min", false, 6, domain.ModeMinor},
		{"Bb minor", false, 10, domain.ModeMinor},
		{"", true, 0, 0},
		{"H major", true, 0, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got := parseKeyName(tt.in)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("expected a key, got nil")
			}
			if got.PitchClass != tt.wantPC || got.Mode != tt.wantMode {
				t.Fatalf("got %+v, want pc %d mode %d", got, tt.wantPC, tt.wantMode)
			}
		})
	}
}

func TestCleanLookupTerms(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		artist     string
		wantTitle  string
		wantArtist string
	}{
		{
			name:  "strips remaster noise",
			title: "One More Time (2001 Remaster)", artist: "Daft Punk",
			wantTitle: "one more time", wantArtist: "daft punk",
		},
		{
			name:  "first artist only",
			title: "Ghosts n Stuff", artist: "deadmau5, Rob Swire",
			wantTitle: "ghosts n stuff", wantArtist: "deadmau5",
		},
		{
			name:  "drops feat segment",
			title: "Latch (feat. Sam Smith)", artist: "Disclosure",
			wantTitle: "latch", wantArtist: "disclosure",
		},
		{
			name:  "collapses separators",
			title: "Café del Mar  -  Radio Edit", artist: "Energy 52",
			wantTitle: "café del mar", wantArtist: "energy 52",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			gotTitle, gotArtist := cleanLookupTerms(tt.title, tt.artist)
			if gotTitle != tt.wantTitle {
				t.Fatalf("title: got %q, want %q", gotTitle, tt.wantTitle)
			}
			if gotArtist != tt.wantArtist {
				t.Fatalf("artist: got %q, want %q", gotArtist, tt.wantArtist)
			}
		})
	}
}

func TestConfidentMatch(t *testing.T) {
	tests := []struct {
		name                  string
		wantTitle, wantArtist string
		gotTitle, gotArtist   string
		want                  bool
	}{
		{"exact", "strobe", "deadmau5", "Strobe", "deadmau5", true},
		{"minor variation", "one more time", "daft punk", "One More Time", "Daft Punk", true},
		{"wrong song", "strobe", "deadmau5", "Something Different", "deadmau5", false},
		{"wrong artist", "strobe", "deadmau5", "Strobe", "Totally Other Band", false},
		{"title only fallback", "strobe", "", "Strobe", "", true},
		{"empty title", "", "deadmau5", "Strobe", "deadmau5", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := confidentMatch(tt.wantTitle, tt.wantArtist, tt.gotTitle, tt.gotArtist); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}
