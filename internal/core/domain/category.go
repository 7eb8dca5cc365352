package domain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// AxisGroup names the semantic family a category belongs to. It is
// descriptive metadata only; classification treats all 18 categories as one
// flat set.
type AxisGroup string

const (
	GroupSetPosition AxisGroup = "set-position"
	GroupTexture     AxisGroup = "texture"
	GroupRhythm      AxisGroup = "rhythm"
	GroupEmotion     AxisGroup = "emotion"
	GroupFunctional  AxisGroup = "functional"
)

// Category is one entry of the fixed usage-oriented taxonomy: an ideal
// target point in the 4-axis space plus a tolerance radius. Read-only
// reference data, loaded once at startup and never mutated at runtime.
type Category struct {
	Index       int       `json:"index"`
	Name        string    `json:"name"`
	Group       AxisGroup `json:"group"`
	Description string    `json:"description,omitempty"`
	Ideal       AxisPoint `json:"ideal"`
	Radius      float64   `json:"radius"`
}

// Taxonomy is the full ordered category set. Index order is the stable
// tie-break order for classification.
type Taxonomy []Category

// Validate checks structural soundness: at least one category, contiguous
// indexes, unique names, positive radii, ideal points inside the unit cube.
func (t Taxonomy) Validate() error {
	if len(t) == 0 {
		return ErrTaxonomyEmpty
	}
	names := make(map[string]struct{}, len(t))
	for i, c := range t {
		if c.Index != i {
			return fmt.Errorf("domain: category %q has index %d, want %d", c.Name, c.Index, i)
		}
		if c.Name == "" {
			return fmt.Errorf("domain: category %d has no name", i)
		}
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("domain: duplicate category name %q", c.Name)
		}
		names[c.Name] = struct{}{}
		if c.Radius <= 0 {
			return fmt.Errorf("domain: category %q has non-positive radius", c.Name)
		}
		for _, v := range []float64{c.Ideal.Position, c.Ideal.Texture, c.Ideal.Rhythm, c.Ideal.Emotion} {
			if v < 0 || v > 1 {
				return fmt.Errorf("domain: category %q ideal point outside [0,1]", c.Name)
			}
		}
	}
	return nil
}

// ByName returns the category with the given name.
func (t Taxonomy) ByName(name string) (Category, bool) {
	for _, c := range t {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// LoadTaxonomy decodes a JSON taxonomy and validates it. The taxonomy is
// versioned configuration, the most likely target of future tuning.
func LoadTaxonomy(r io.Reader) (Taxonomy, error) {
	var t Taxonomy
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("domain: decode taxonomy: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTaxonomyFile loads a taxonomy from a JSON file on disk.
func LoadTaxonomyFile(path string) (Taxonomy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("domain: open taxonomy: %w", err)
	}
	defer f.Close()
	return LoadTaxonomy(f)
}

// DefaultTaxonomy returns the built-in 18-folder taxonomy. Ideal points and
// radii are static configuration, not a learned model.
func DefaultTaxonomy() Taxonomy {
	cat := func(i int, name string, g AxisGroup, desc string, pos, tex, rhy, emo, radius float64) Category {
		return Category{
			Index: i, Name: name, Group: g, Description: desc,
			Ideal:  AxisPoint{Position: pos, Texture: tex, Rhythm: rhy, Emotion: emo},
			Radius: radius,
		}
	}
	return Taxonomy{
		cat(0, "Openers", GroupSetPosition, "Warm-up tracks. Textural, patient, sets the mood.", 0.15, 0.40, 0.40, 0.50, 0.38),
		cat(1, "Builders", GroupSetPosition, "Momentum tracks. Locked grooves that build without peaking.", 0.45, 0.55, 0.65, 0.50, 0.32),
		cat(2, "Peak Time", GroupSetPosition, "Main room energy. The tracks people came for.", 0.75, 0.65, 0.80, 0.70, 0.30),
		cat(3, "Weapons", GroupSetPosition, "Maximum impact. Drop when the room is ready, use sparingly.", 0.95, 0.75, 0.85, 0.45, 0.25),
		cat(4, "Closers", GroupSetPosition, "Bring it down gracefully. Reflective, leaves them wanting more.", 0.20, 0.35, 0.35, 0.35, 0.34),
		cat(5, "Organic", GroupTexture, "Live instruments, samples, warmth. Human feel.", 0.45, 0.15, 0.55, 0.60, 0.33),
		cat(6, "Synthetic", GroupTexture, "Pure electronic. Clean, digital, precise.", 0.60, 0.90, 0.70, 0.45, 0.33),
		cat(7, "Gritty", GroupTexture, "Distorted, lo-fi, rough around the edges.", 0.55, 0.70, 0.55, 0.25, 0.31),
		cat(8, "4x4 Locked", GroupRhythm, "Steady four-on-the-floor. Hypnotic, driving. The backbone.", 0.60, 0.65, 0.95, 0.50, 0.28),
		cat(9, "Broken Beat", GroupRhythm, "Garage, 2-step, off-grid percussion.", 0.50, 0.60, 0.55, 0.40, 0.30),
		cat(10, "Halftime", GroupRhythm, "Half-speed feel, trippy downtempo moments.", 0.35, 0.55, 0.20, 0.40, 0.32),
		cat(11, "Fast & Chaotic", GroupRhythm, "Jungle, breakcore, drill n bass territory.", 0.80, 0.75, 0.80, 0.35, 0.33),
		cat(12, "Melancholic", GroupEmotion, "Beautiful sadness. Minor keys, emotional weight.", 0.25, 0.40, 0.40, 0.10, 0.30),
		cat(13, "Euphoric", GroupEmotion, "Pure joy. Major keys, uplifting.", 0.70, 0.60, 0.75, 0.95, 0.28),
		cat(14, "Hypnotic", GroupEmotion, "Trance-inducing repetition. Minimal changes, deep focus.", 0.45, 0.60, 0.70, 0.50, 0.26),
		cat(15, "Aggressive", GroupEmotion, "Industrial, hard, confrontational.", 0.85, 0.80, 0.75, 0.20, 0.29),
		cat(16, "Transitions", GroupFunctional, "Tools for moving between sections. Builds without drops.", 0.30, 0.50, 0.30, 0.50, 0.40),
		cat(17, "Curveballs", GroupFunctional, "Unexpected selections. Weird edits, genre-bending.", 0.50, 0.50, 0.50, 0.50, 0.55),
	}
}
