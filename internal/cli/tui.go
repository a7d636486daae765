package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/icebergviz/pkg/source"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SiteListModel - Interactive site selection
// =============================================================================

// SiteItem is one row of the site picker.
type SiteItem struct {
	ID     string
	Name   string
	Region string
	Ranges int
}

// SiteListModel is the bubbletea model for interactive site selection.
type SiteListModel struct {
	Sites    []SiteItem
	Cursor   int
	Selected *SiteItem
	Height   int
	Offset   int
}

// NewSiteListModel creates a new site list model.
func NewSiteListModel(sites []SiteItem) SiteListModel {
	return SiteListModel{
		Sites:  sites,
		Height: 15,
	}
}

func (m SiteListModel) Init() tea.Cmd {
	return nil
}

func (m SiteListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Sites)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Sites) == 0 {
				return m, nil
			}
			site := m.Sites[m.Cursor]
			if site.Ranges == 0 {
				return m, nil
			}
			m.Selected = &site
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m SiteListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Glacier Site"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Sites))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Sites[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		name, region := s.Name, s.Region
		if name == "" {
			name = "—"
		}
		if region == "" {
			region = "—"
		}
		rows = append(rows, []string{cursor, s.ID, name, region, strconv.Itoa(s.Ranges)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Site", "Glacier", "Region", "Ranges").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Sites) {
				return lipgloss.NewStyle()
			}
			s := m.Sites[idx]
			base := lipgloss.NewStyle()
			if col == 3 && s.Region != "" {
				base = base.Foreground(lipgloss.Color(regionTerminalColor(s.Region)))
			}
			switch {
			case s.Ranges == 0:
				return base.Foreground(colorDim)
			case idx == m.Cursor:
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Sites))))

	return b.String()
}

// regionTerminalColor maps the map color of a region to an ANSI color.
func regionTerminalColor(region string) string {
	switch source.RegionColor(region) {
	case "yellow":
		return "220"
	case "lime":
		return "118"
	case "blue":
		return "75"
	case "orange":
		return "208"
	case "purple":
		return "141"
	case "green":
		return "35"
	}
	return "167"
}

// =============================================================================
// RangeListModel - Interactive date range selection
// =============================================================================

// RangeListModel is the bubbletea model for interactive date range selection.
type RangeListModel struct {
	Site     string
	Ranges   []source.DateRange
	Cursor   int
	Selected *source.DateRange
}

// NewRangeListModel creates a new date range list model.
func NewRangeListModel(site string, ranges []source.DateRange) RangeListModel {
	return RangeListModel{Site: site, Ranges: ranges}
}

func (m RangeListModel) Init() tea.Cmd {
	return nil
}

func (m RangeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Ranges)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Ranges) == 0 {
				return m, nil
			}
			m.Selected = &m.Ranges[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m RangeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Date Range for " + m.Site))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  enter: select  q: quit"))
	b.WriteString("\n\n")

	for i, r := range m.Ranges {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-20s  %s", cursor, r.ID, listDimStyle.Render(r.Early+" → "+r.Later))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}
