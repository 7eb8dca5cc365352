package spotify

// Wire representations of the Spotify API payloads this adapter consumes.

type wireArtist struct {
	Name string `json:"name"`
}

type wireAlbum struct {
	Name string `json:"name"`
}

type wireTrack struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	DurationMs int        `json:"duration_ms"`
	PreviewURL string     `json:"preview_url"`
	Artists    []wireArtist `json:"artists"`
	Album      wireAlbum  `json:"album"`
}

type playHistoryItem struct {
	Track    wireTrack `json:"track"`
	PlayedAt string    `json:"played_at"`
}

type recentlyPlayedResponse struct {
	Items []playHistoryItem `json:"items"`
}

type savedTrackItem struct {
	AddedAt string    `json:"added_at"`
	Track   wireTrack `json:"track"`
}

type savedTracksResponse struct {
	Items []savedTrackItem `json:"items"`
	Next  string           `json:"next"`
}

type wireAudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Valence          float64 `json:"valence"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Loudness         float64 `json:"loudness"`
	Tempo            float64 `json:"tempo"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
}

type audioFeaturesResponse struct {
	// Entries are null for ids the API has no analysis for.
	AudioFeatures []*wireAudioFeatures `json:"audio_features"`
}
