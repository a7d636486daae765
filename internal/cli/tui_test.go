package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/icebergviz/pkg/source"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = m.Update(key(k))
	}
	return m, cmd
}

func TestSiteListModelSelect(t *testing.T) {
	m := NewSiteListModel([]SiteItem{
		{ID: "KOG", Name: "Koge Bugt", Region: "SE", Ranges: 2},
		{ID: "NOG", Ranges: 0},
		{ID: "SEG", Region: "NW", Ranges: 1},
	})

	final, cmd := press(m, "down", "enter")
	sm := final.(SiteListModel)
	if sm.Selected != nil || cmd != nil {
		t.Error("a site without ranges should not be selectable")
	}

	final, cmd = press(sm, "j", "enter")
	sm = final.(SiteListModel)
	if sm.Selected == nil || sm.Selected.ID != "SEG" {
		t.Fatalf("selected = %+v, want SEG", sm.Selected)
	}
	if cmd == nil {
		t.Error("selection should quit the program")
	}
}

func TestSiteListModelCursorBounds(t *testing.T) {
	m := NewSiteListModel([]SiteItem{{ID: "KOG", Ranges: 1}, {ID: "NOG", Ranges: 1}})

	final, _ := press(m, "up", "k")
	if c := final.(SiteListModel).Cursor; c != 0 {
		t.Errorf("cursor = %d, want 0", c)
	}
	final, _ = press(m, "down", "down", "down")
	if c := final.(SiteListModel).Cursor; c != 1 {
		t.Errorf("cursor = %d, want 1", c)
	}
}

func TestSiteListModelScrolls(t *testing.T) {
	items := make([]SiteItem, 10)
	for i := range items {
		items[i] = SiteItem{ID: string(rune('A'+i)) + "OG", Ranges: 1}
	}
	m := NewSiteListModel(items)
	m.Height = 3

	final, _ := press(m, "down", "down", "down", "down")
	sm := final.(SiteListModel)
	if sm.Cursor != 4 || sm.Offset != 2 {
		t.Errorf("cursor, offset = %d, %d, want 4, 2", sm.Cursor, sm.Offset)
	}
	view := sm.View()
	if strings.Contains(view, "AOG") || !strings.Contains(view, "EOG") {
		t.Errorf("view should show only the visible window:\n%s", view)
	}
}

func TestSiteListModelQuit(t *testing.T) {
	m := NewSiteListModel([]SiteItem{{ID: "KOG", Ranges: 1}})

	final, cmd := press(m, "q")
	if final.(SiteListModel).Selected != nil {
		t.Error("quit should not select")
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}

func TestRangeListModel(t *testing.T) {
	ranges := []source.DateRange{
		{ID: "20170611-20170713", Early: "20170611", Later: "20170713"},
		{ID: "20180601-20180705", Early: "20180601", Later: "20180705"},
	}
	m := NewRangeListModel("KOG", ranges)

	if view := m.View(); !strings.Contains(view, "KOG") || !strings.Contains(view, "20180601") {
		t.Errorf("view missing site or range:\n%s", view)
	}

	final, _ := press(m, "down", "enter")
	rm := final.(RangeListModel)
	if rm.Selected == nil || rm.Selected.ID != "20180601-20180705" {
		t.Errorf("selected = %+v", rm.Selected)
	}
}

func TestRegionTerminalColor(t *testing.T) {
	if got := regionTerminalColor("NE"); got != "118" {
		t.Errorf("NE = %q, want 118", got)
	}
	if got := regionTerminalColor("??"); got != "167" {
		t.Errorf("unknown region = %q, want the default red", got)
	}
}
