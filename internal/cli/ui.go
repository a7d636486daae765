package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/icebergviz/pkg/iceberg"
	"github.com/matzehuels/icebergviz/pkg/render"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for site IDs and other emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric table cells.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// statusOut receives status lines. It is stderr so that artifacts written
// with --output - can be piped.
var statusOut io.Writer = os.Stderr

func status(line string) {
	fmt.Fprintln(statusOut, line)
}

func printSuccess(format string, args ...any) {
	status(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	status(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	status(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	status("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile reports a written artifact.
func printFile(path string) {
	status("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	status(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// printWarnings lists the shapes a run skipped or flagged.
func printWarnings(warnings []iceberg.Warning) {
	for _, w := range warnings {
		printWarning("%s", w.String())
	}
}

// printStats prints run statistics on a single line, e.g.
// "12 shapes · 11 measured · 1 skipped · fresh".
func printStats(shapes, measured, warnings int, cached bool) {
	var parts []string
	state := styleComputed.Render("fresh")
	if cached {
		parts = append(parts, "artifacts from cache")
		state = styleCached.Render("cached")
	} else {
		parts = append(parts, fmt.Sprintf("%d shapes", shapes), fmt.Sprintf("%d measured", measured))
		if warnings > 0 {
			parts = append(parts, fmt.Sprintf("%d skipped", warnings))
		}
	}
	sep := StyleDim.Render(" · ")
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	status("  " + strings.Join(parts, sep) + sep + state)
}

// quartileStyle colors a quartile label like its overlay fill.
func quartileStyle(q string) lipgloss.Style {
	c, ok := render.QuartileColors[iceberg.Quartile(q)]
	if !ok {
		return StyleDim
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
}
