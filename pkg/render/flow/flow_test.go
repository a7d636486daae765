package flow

import (
	"strings"
	"testing"
)

func TestToDOT(t *testing.T) {
	dot := ToDOT(Methods, Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=TB;",
		"node [shape=rect, style=filled, fillcolor=lightblue",
		`"A" [label="Worldview stereo images"];`,
		`"H" [label="melt rate = freshwater flux / submerged area"];`,
		`"A" -> "B";`,
		`"G" -> "H";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	if got := strings.Count(dot, "->"); got != len(Methods)-1 {
		t.Errorf("edges = %d, want %d", got, len(Methods)-1)
	}
}

func TestToDOTHorizontal(t *testing.T) {
	dot := ToDOT(Methods, Options{Horizontal: true})
	if !strings.Contains(dot, "rankdir=LR;") {
		t.Errorf("expected rankdir=LR, got:\n%s", dot)
	}
}

func TestToDOTSingleStep(t *testing.T) {
	dot := ToDOT(Methods[:1], Options{})
	if strings.Contains(dot, "->") {
		t.Errorf("single step should have no edges:\n%s", dot)
	}
}

func TestToDOTQuotesLabels(t *testing.T) {
	dot := ToDOT([]Step{{ID: "x", Label: `say "hi"`}}, Options{})
	if !strings.Contains(dot, `label="say \"hi\""`) {
		t.Errorf("label not quoted:\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "graphviz root",
			in:   `<svg width="200pt" height="100pt" viewBox="0.00 0.00 200.00 100.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200.00 100.00" width="200" height="100"><g/></svg>`,
		},
		{
			name: "no viewBox",
			in:   `<svg><g/></svg>`,
			want: `<svg><g/></svg>`,
		},
		{
			name: "zero size",
			in:   `<svg viewBox="0 0 0 10"></svg>`,
			want: `<svg viewBox="0 0 0 10"></svg>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(normalizeViewBox([]byte(tt.in))); got != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	got := Labels(Methods[:2])
	want := "Worldview stereo images → DEMs generation by NASA Ames Stereo Pipeline (ASP)"
	if got != want {
		t.Errorf("Labels() = %q, want %q", got, want)
	}
}
