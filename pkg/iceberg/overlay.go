package iceberg

import (
	"math"

	"github.com/ctessum/geom"

	ierrors "github.com/matzehuels/icebergviz/pkg/errors"
)

// Mode selects how shapes are moved before they are overlaid.
type Mode string

const (
	// ModeTranslatedOnly moves each shape to the origin without rotating
	// it. The shared extent uses the shapes' original bounds.
	ModeTranslatedOnly Mode = "overlay_translated_only"

	// ModeRotatedAndTranslated levels each shape's longest rectangle edge
	// by rotating it by minus its own dominant angle, then moves it to the
	// origin. The shared extent uses the rotated bounds. Shapes without a
	// dominant angle are not rotated.
	ModeRotatedAndTranslated Mode = "overlay_rotated_and_translated"
)

// DefaultMode is the mode used when none is requested.
const DefaultMode = ModeTranslatedOnly

// Modes lists every overlay mode.
var Modes = []Mode{ModeTranslatedOnly, ModeRotatedAndTranslated}

// ParseMode validates a mode name. The short aliases "translated" and
// "rotated" are accepted. Empty selects the default.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "":
		return DefaultMode, nil
	case string(ModeTranslatedOnly), "translated":
		return ModeTranslatedOnly, nil
	case string(ModeRotatedAndTranslated), "rotated":
		return ModeRotatedAndTranslated, nil
	}
	return "", ierrors.New(ierrors.ErrCodeInvalidMode,
		"invalid mode: %q (must be one of: %s, %s)", s, ModeTranslatedOnly, ModeRotatedAndTranslated)
}

// Placed is a shape moved into the overlay's non-negative coordinate space.
type Placed struct {
	ID          string
	CaptureDate string
	Quartile    Quartile
	Area        float64
	Rotation    float64
	Width       float64
	Height      float64
	Geometry    geom.Polygonal
}

// Overlay is a set of placed shapes that share one axis extent.
type Overlay struct {
	Mode      Mode
	Shapes    []Placed
	MaxWidth  float64
	MaxHeight float64

	// Skipped lists the IDs of shapes left out for missing or empty
	// geometry.
	Skipped []string
}

// Group returns the placed shapes labelled q in set order.
func (o Overlay) Group(q Quartile) []Placed {
	var out []Placed
	for _, p := range o.Shapes {
		if p.Quartile == q {
			out = append(out, p)
		}
	}
	return out
}

// BuildOverlay aligns every drawable shape of set according to mode and
// computes the shared MaxWidth and MaxHeight over all of them, regardless
// of quartile. Shapes with missing or empty geometry are skipped without
// error. Every placed geometry lies within [0, MaxWidth] x [0, MaxHeight].
func BuildOverlay(set ShapeSet, mode Mode) (Overlay, error) {
	if mode != ModeTranslatedOnly && mode != ModeRotatedAndTranslated {
		return Overlay{}, ierrors.New(ierrors.ErrCodeInvalidMode, "invalid mode: %q", mode)
	}

	ov := Overlay{Mode: mode}
	for _, s := range set.Shapes {
		if !s.Drawable() {
			ov.Skipped = append(ov.Skipped, s.ID)
			continue
		}

		rotation := 0.0
		if mode == ModeRotatedAndTranslated && s.HasAngle {
			rotation = s.DominantAngle
		}
		aligned, err := AlignToOrigin(s.Geometry, rotation)
		if err != nil {
			return Overlay{}, err
		}

		// The translated-only extent comes from the original bounds and the
		// rotated extent from the aligned ones.
		extent := boundsOf(s.Geometry)
		if mode == ModeRotatedAndTranslated {
			extent = boundsOf(aligned)
		}

		p := Placed{
			ID:          s.ID,
			CaptureDate: s.CaptureDate,
			Quartile:    s.Quartile,
			Area:        s.Area,
			Rotation:    rotation,
			Width:       extent.Width(),
			Height:      extent.Height(),
			Geometry:    aligned,
		}
		ov.Shapes = append(ov.Shapes, p)
		ov.MaxWidth = math.Max(ov.MaxWidth, p.Width)
		ov.MaxHeight = math.Max(ov.MaxHeight, p.Height)
	}
	return ov, nil
}
