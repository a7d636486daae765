package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/icebergviz/pkg/errors"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "svg", []string{"svg"}},
		{"multiple", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"blanks dropped", " svg , ,png,", []string{"svg", "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseList(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("parseList(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		format   string
		multiple bool
		want     string
	}{
		{"derived", "", "svg", false, "KOG_r_quartiles.svg"},
		{"derived multiple", "", "png", true, "KOG_r_quartiles.png"},
		{"explicit single", "out/fig.svg", "svg", false, "out/fig.svg"},
		{"explicit base", "out/fig", "pdf", true, "out/fig.pdf"},
		{"known extension replaced", "out/fig.svg", "png", true, "out/fig.png"},
		{"unknown extension kept", "out/fig.v2", "png", true, "out/fig.v2.png"},
		{"stdout", "-", "svg", false, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPath(tt.output, "KOG_r_quartiles", tt.format, tt.multiple)
			if got != tt.want {
				t.Errorf("outputPath(%q, %q, %v) = %q, want %q", tt.output, tt.format, tt.multiple, got, tt.want)
			}
		})
	}
}

func TestWriteArtifact(t *testing.T) {
	var out bytes.Buffer
	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.Out = &out

	if err := c.writeArtifact("-", []byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	if out.String() != "<svg/>" {
		t.Errorf("stdout = %q, want <svg/>", out.String())
	}

	path := filepath.Join(t.TempDir(), "nested", "dir", "fig.svg")
	if err := c.writeArtifact(path, []byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("file = %q, want <svg/>", data)
	}
}

func TestSiteAndRangeDefaults(t *testing.T) {
	c, _, _ := newTestCLI(t)

	tests := []struct {
		args      []string
		wantSite  string
		wantRange string
	}{
		{nil, "KOG", "20170611-20170713"},
		{[]string{"NOG"}, "NOG", "20170611-20170713"},
		{[]string{"NOG", "20180601-20180705"}, "NOG", "20180601-20180705"},
	}
	for _, tt := range tests {
		site, rangeID, err := c.siteAndRange(tt.args)
		if err != nil {
			t.Fatal(err)
		}
		if site != tt.wantSite || rangeID != tt.wantRange {
			t.Errorf("siteAndRange(%v) = %s %s, want %s %s", tt.args, site, rangeID, tt.wantSite, tt.wantRange)
		}
	}
}

func TestRenderRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"view", []string{"render", "--view", "tower"}, errors.ErrCodeInvalidView},
		{"mode", []string{"render", "--mode", "spin", "--no-cache"}, errors.ErrCodeInvalidMode},
		{"format", []string{"render", "--view", "table", "--format", "svg", "--no-cache"}, errors.ErrCodeInvalidFormat},
		{"range", []string{"render", "KOG", "nodash", "--no-cache"}, errors.ErrCodeInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestCLI(t)
			err := execute(t, c, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestRenderMissingRange(t *testing.T) {
	c, _, _ := newTestCLI(t)

	err := execute(t, c, "render", "KOG", "20190101-20190202", "--no-cache")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}
