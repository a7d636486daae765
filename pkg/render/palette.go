package render

import (
	"fmt"
	"math"

	"github.com/matzehuels/icebergviz/pkg/iceberg"
)

// Palette collects the colors shared by every figure.
var Palette = struct {
	EarlyFill, LaterFill       string
	MapEarly, MapLater, MapAny string
	Outline                    string
	Background                 string
	Grid                       string
	Text                       string
	Flow                       string
}{
	EarlyFill:  "#f5a442",
	LaterFill:  "#8bc34a",
	MapEarly:   "#7a1037",
	MapLater:   "#033b59",
	MapAny:     "gray",
	Outline:    "black",
	Background: "white",
	Grid:       "#dddddd",
	Text:       "#222222",
	Flow:       "lightblue",
}

// QuartileColors are the overlay fills per quartile.
var QuartileColors = map[iceberg.Quartile]string{
	iceberg.Q1: "#8bd67a",
	iceberg.Q2: "#e080d7",
	iceberg.Q3: "#f7bf07",
	iceberg.Q4: "#f78307",
}

// QuartileOpacity is the fill opacity of overlaid shapes.
const QuartileOpacity = 0.4

// PeriodFill returns the gallery fill for a shapefile period ("early",
// "later" or "").
func PeriodFill(period string) string {
	if period == "early" {
		return Palette.EarlyFill
	}
	return Palette.LaterFill
}

// MapColor returns the map outline color for a shapefile period.
func MapColor(period string) string {
	switch period {
	case "early":
		return Palette.MapEarly
	case "later":
		return Palette.MapLater
	}
	return Palette.MapAny
}

type rgb struct{ r, g, b float64 }

func (c rgb) hex() string {
	clamp := func(v float64) int { return int(math.Round(math.Max(0, math.Min(255, v)))) }
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.r), clamp(c.g), clamp(c.b))
}

func lerp(a, b rgb, t float64) rgb {
	return rgb{a.r + (b.r-a.r)*t, a.g + (b.g-a.g)*t, a.b + (b.b-a.b)*t}
}

var (
	coolEnd = rgb{59, 76, 192}
	midGray = rgb{221, 221, 221}
	warmEnd = rgb{180, 4, 38}

	bluesLow  = rgb{247, 251, 255}
	bluesHigh = rgb{8, 48, 107}
)

// CoolWarm maps v in [-1, 1] onto a diverging blue-gray-red ramp. NaN
// returns the background color.
func CoolWarm(v float64) string {
	if math.IsNaN(v) {
		return Palette.Background
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return lerp(midGray, coolEnd, -v).hex()
	}
	return lerp(midGray, warmEnd, v).hex()
}

// Blues maps t in [0, 1] onto a sequential white-to-navy ramp.
func Blues(t float64) string {
	if math.IsNaN(t) {
		t = 0
	}
	return lerp(bluesLow, bluesHigh, math.Max(0, math.Min(1, t))).hex()
}
