package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mfleury/setcrate/internal/adapters/export"
	"github.com/mfleury/setcrate/internal/adapters/songbpm"
	"github.com/mfleury/setcrate/internal/adapters/spotify"
	"github.com/mfleury/setcrate/internal/adapters/sqlite"
	"github.com/mfleury/setcrate/internal/core/domain"
	"github.com/mfleury/setcrate/internal/core/ports"
	"github.com/mfleury/setcrate/internal/core/services"
	"github.com/mfleury/setcrate/internal/worker"
)

var (
	dbPath       string
	taxonomyPath string
)

func main() {
	home, _ := os.UserHomeDir()
	defaultDB := filepath.Join(home, ".setcrate", "setcrate.db")

	rootCmd := &cobra.Command{
		Use:   "setcrate",
		Short: "Classify a streaming library into DJ folders and build sets",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "database path")
	rootCmd.PersistentFlags().StringVar(&taxonomyPath, "taxonomy", "", "taxonomy JSON path (built-in folders when empty)")

	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(foldersCmd())
	rootCmd.AddCommand(playlistCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(tagCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getStore() (*sqlite.Adapter, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return sqlite.NewAdapter(dbPath)
}

func getProvider() (ports.StreamingProvider, error) {
	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	return spotify.NewClient(clientID, clientSecret), nil
}

// getEstimator returns the tempo/key estimator, or nil when no API key is
// configured; classification then runs from provider data alone.
func getEstimator() ports.TempoKeyEstimator {
	apiKey := os.Getenv("GETSONGBPM_API_KEY")
	if apiKey == "" {
		return nil
	}
	return songbpm.NewCachingEstimator(songbpm.NewClient(apiKey, ""))
}

func loadTaxonomy() (domain.Taxonomy, error) {
	if taxonomyPath == "" {
		return domain.DefaultTaxonomy(), nil
	}
	return domain.LoadTaxonomyFile(taxonomyPath)
}

func syncCmd() *cobra.Command {
	var (
		limit   int
		analyze bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch saved tracks, features and listening history",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := getStore()
			if err != nil {
				return err
			}
			defer store.Close()

			provider, err := getProvider()
			if err != nil {
				return err
			}

			saved, err := provider.SavedTracks(ctx, limit)
			if err != nil {
				return err
			}
			recent, plays, err := provider.RecentlyPlayed(ctx, 0)
			if err != nil {
				return err
			}

			tracks := mergeTracks(saved, recent)
			ids := make([]string, len(tracks))
			for i, t := range tracks {
				ids[i] = t.ID
			}
			features, err := provider.AudioFeatures(ctx, ids)
			if err != nil {
				return err
			}
			for i := range tracks {
				if f, ok := features[tracks[i].ID]; ok {
					tracks[i].Features = f
				}
			}

			if err := store.UpsertTracks(ctx, tracks); err != nil {
				return err
			}
			if err := store.RecordPlays(ctx, plays); err != nil {
				return err
			}
			fmt.Printf("Synced %d tracks, %d plays\n", len(tracks), len(plays))

			if analyze {
				pool := worker.NewPool(store, len(tracks))
				pool.Start(workers)
				queued := 0
				for _, t := range tracks {
					if t.Features.Energy == 0 && t.PreviewURL != "" {
						pool.Submit(worker.Job{TrackID: t.ID, PreviewURL: t.PreviewURL})
						queued++
					}
				}
				pool.Stop()
				fmt.Printf("Analyzed %d previews\n", queued)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max saved tracks to fetch (0 = all)")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "backfill energy from preview clips")
	cmd.Flags().IntVar(&workers, "workers", 4, "preview analysis workers")
	return cmd
}

func classifyCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the whole library into folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := getStore()
			if err != nil {
				return err
			}
			defer store.Close()

			taxonomy, err := loadTaxonomy()
			if err != nil {
				return err
			}
			classifier, err := services.NewClassifier(taxonomy, domain.AxisPoint{})
			if err != nil {
				return err
			}

			aggregator := services.NewAggregator(services.DefaultAggregatorConfig(), services.NewReconciler(services.DefaultReconcilerConfig()))
			pipeline := services.NewPipeline(store, getEstimator(), aggregator, classifier, concurrency)

			summary, err := pipeline.Refresh(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Classified %d/%d tracks (%d skipped, %d degraded)\n",
				summary.Classified, summary.Total, summary.Skipped, summary.Degraded)
			for _, te := range summary.Errors {
				fmt.Printf("  failed %s: %v\n", te.TrackID, te.Err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel track classifications (0 = default)")
	return cmd
}

func foldersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "folders",
		Short: "Summarize the library by folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := getStore()
			if err != nil {
				return err
			}
			defer store.Close()

			classified, err := store.LatestClassifications(ctx)
			if err != nil {
				return err
			}
			if len(classified) == 0 {
				fmt.Println("No classified tracks yet. Run 'setcrate classify' first.")
				return nil
			}

			events, err := store.AllPlays(ctx)
			if err != nil {
				return err
			}
			stats := domain.ComputeSessionStats(events)

			taxonomy, err := loadTaxonomy()
			if err != nil {
				return err
			}

			type folderSummary struct {
				count      int
				plays      int
				confidence float64
			}
			byName := make(map[string]*folderSummary)
			for _, ct := range classified {
				s := byName[ct.Classification.CategoryName]
				if s == nil {
					s = &folderSummary{}
					byName[ct.Classification.CategoryName] = s
				}
				s.count++
				s.confidence += ct.Classification.Confidence
				if st := stats[ct.Track.ID]; st != nil {
					s.plays += st.PlayCount
				}
			}

			for _, cat := range taxonomy {
				s := byName[cat.Name]
				if s == nil {
					continue
				}
				fmt.Printf("%-16s %4d tracks  %4d plays  avg confidence %.2f\n",
					cat.Name, s.count, s.plays, s.confidence/float64(s.count))
			}
			return nil
		},
	}
}

func playlistCmd() *cobra.Command {
	var (
		name        string
		categories  []string
		durationMin int
		minBPM      float64
		maxBPM      float64
		harmonic    string
	)

	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Generate a playlist from one or more folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := getStore()
			if err != nil {
				return err
			}
			defer store.Close()

			classified, err := store.LatestClassifications(ctx)
			if err != nil {
				return err
			}

			cons := domain.Constraints{
				TargetDurationSec: durationMin * 60,
				MinBPM:            minBPM,
				MaxBPM:            maxBPM,
				Harmonic:          domain.HarmonicMode(harmonic),
			}

			generator := services.NewGenerator(services.DefaultGeneratorConfig())
			p, err := generator.Generate(name, classified, categories, cons)
			if err != nil {
				return err
			}
			if err := store.SavePlaylist(ctx, p); err != nil {
				return err
			}

			fmt.Printf("Playlist %s (%s): %d tracks\n", p.Name, p.ID, len(p.TrackIDs))
			if !p.DurationSatisfied {
				fmt.Println("  note: duration target not reached")
			}
			if !p.HarmonicSatisfied {
				fmt.Println("  note: harmonic flow not fully satisfied")
			}
			for _, w := range p.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "Untitled Set", "playlist name")
	cmd.Flags().StringSliceVar(&categories, "folders", nil, "source folders (required)")
	cmd.Flags().IntVar(&durationMin, "duration", 0, "target duration in minutes (0 = unbounded)")
	cmd.Flags().Float64Var(&minBPM, "min-bpm", 0, "minimum tempo")
	cmd.Flags().Float64Var(&maxBPM, "max-bpm", 0, "maximum tempo")
	cmd.Flags().StringVar(&harmonic, "harmonic", "off", "harmonic mode: off, loose or strict")
	_ = cmd.MarkFlagRequired("folders")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [playlist-id]",
		Short: "Write a playlist as an extended M3U file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := getStore()
			if err != nil {
				return err
			}
			defer store.Close()

			p, tracks, err := store.GetPlaylist(ctx, args[0])
			if err != nil {
				return err
			}

			if out == "" {
				out = sanitizeFilename(p.Name) + ".m3u"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := export.WriteM3U(f, p, tracks); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d tracks)\n", out, len(tracks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to the playlist name)")
	return cmd
}

func tagCmd() *cobra.Command {
	var musicDir string

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Write key/energy comments into local MP3 copies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			store, err := getStore()
			if err != nil {
				return err
			}
			defer store.Close()

			classified, err := store.LatestClassifications(ctx)
			if err != nil {
				return err
			}

			tagger := export.NewTagger()
			tagged := 0
			for _, ct := range classified {
				path := filepath.Join(musicDir, sanitizeFilename(ct.Track.Artist+" - "+ct.Track.Title)+".mp3")
				if _, err := os.Stat(path); err != nil {
					continue
				}
				if err := tagger.TagFile(path, ct); err != nil {
					fmt.Printf("  warning: %v\n", err)
					continue
				}
				tagged++
			}
			fmt.Printf("Tagged %d files\n", tagged)
			return nil
		},
	}

	cmd.Flags().StringVar(&musicDir, "dir", ".", "directory holding 'Artist - Title.mp3' files")
	return cmd
}

// mergeTracks combines the two fetch sources, deduplicated by id with saved
// tracks winning, in stable id order.
func mergeTracks(saved, recent []domain.Track) []domain.Track {
	byID := make(map[string]domain.Track, len(saved)+len(recent))
	for _, t := range recent {
		byID[t.ID] = t
	}
	for _, t := range saved {
		byID[t.ID] = t
	}
	out := make([]domain.Track, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
