package export

import (
	"fmt"
	"math"
	"os"

	"github.com/bogem/id3v2"

	"github.com/mfleury/setcrate/internal/core/domain"
)

// Tagger writes classification results into local MP3 copies of tracks so
// DJ software shows the key and energy in its browser. The comment follows
// the common "8A - Energy 7" convention; tempo goes into the standard TBPM
// frame.
type Tagger struct{}

// NewTagger creates a Tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// TagFile writes the comment and BPM frames to the MP3 at path. Existing
// frames for the same fields are replaced; everything else is untouched.
func (t *Tagger) TagFile(path string, ct domain.ClassifiedTrack) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("tagger: %s: %w", path, domain.ErrNotFound)
		}
		return fmt.Errorf("tagger: open %s: %w", path, err)
	}
	defer tag.Close()

	if comment := CommentText(ct); comment != "" {
		tag.DeleteFrames(tag.CommonID("Comments"))
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: "",
			Text:        comment,
		})
	}

	if tempo := ct.Classification.Tempo; !tempo.Unknown() {
		tag.AddTextFrame("TBPM", id3v2.EncodingUTF8, fmt.Sprintf("%d", int(math.Round(tempo.BPM))))
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("tagger: save %s: %w", path, err)
	}
	return nil
}

// CommentText renders the comment payload: Camelot code when the key is
// known, plus an energy bucket on a 1-10 scale. Returns "" when neither
// part is known.
func CommentText(ct domain.ClassifiedTrack) string {
	key := ct.Classification.Key.Camelot()
	energy := energyBucket(ct.Track.Features.Energy)

	switch {
	case key != "" && energy > 0:
		return fmt.Sprintf("%s - Energy %d", key, energy)
	case key != "":
		return key
	case energy > 0:
		return fmt.Sprintf("Energy %d", energy)
	default:
		return ""
	}
}

// energyBucket maps 0..1 energy onto 1..10, zero meaning not reported.
func energyBucket(energy float64) int {
	if energy <= 0 {
		return 0
	}
	bucket := int(math.Ceil(energy * 10))
	if bucket > 10 {
		bucket = 10
	}
	return bucket
}
