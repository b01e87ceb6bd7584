package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"taskboard/internal/board"
	"taskboard/internal/models"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	columnStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusedColumn = columnStyle.BorderForeground(lipgloss.Color("62"))
	listTitle     = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	selectedCard  = lipgloss.NewStyle().Reverse(true)
	draggedCard   = lipgloss.NewStyle().Faint(true).Italic(true)
	dropSlot      = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	modalStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(1, 2)
)

var labelColors = map[string]lipgloss.Color{
	"green":  lipgloss.Color("34"),
	"yellow": lipgloss.Color("220"),
	"orange": lipgloss.Color("208"),
	"red":    lipgloss.Color("160"),
	"purple": lipgloss.Color("99"),
	"blue":   lipgloss.Color("33"),
	"sky":    lipgloss.Color("117"),
	"lime":   lipgloss.Color("154"),
	"pink":   lipgloss.Color("205"),
	"black":  lipgloss.Color("240"),
}

const (
	minColumnWidth = 18
	maxColumnWidth = 34
)

// cursor describes what the columns highlight.
type cursor struct {
	col, row int
	dragged  string
	dragging bool
	focused  bool
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	snap := m.engine.Snapshot()
	switch {
	case !m.loaded:
		b.WriteString(mutedStyle.Render("  Loading board..."))
	case m.ui.Get().ModalOpen:
		b.WriteString(m.modal(snap))
	default:
		session, dragging := m.engine.Session()
		b.WriteString(renderColumns(snap, columnWidth(m.width, len(snap.Lists)), cursor{
			col:      m.col,
			row:      m.row,
			dragged:  session.CardID,
			dragging: dragging,
			focused:  true,
		}))
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) header() string {
	title := m.title
	if title == "" {
		title = "Board"
	}
	parts := []string{headerStyle.Render(title)}
	if m.watcher != nil {
		if m.watcher.Connected() {
			parts = append(parts, okStyle.Render("● live"))
		} else {
			parts = append(parts, errorStyle.Render("○ offline"))
		}
		if t := m.watcher.LastUpdate(); !t.IsZero() {
			parts = append(parts, mutedStyle.Render("updated "+t.Format(time.Kitchen)))
		}
	}
	return strings.Join(parts, "  ")
}

func (m Model) statusLine() string {
	switch {
	case m.moving:
		return m.spinner.View() + " Saving..."
	case m.status == "":
		return ""
	case m.statusErr:
		return errorStyle.Render(m.status)
	default:
		return okStyle.Render(m.status)
	}
}

func (m Model) modal(snap board.Snapshot) string {
	id := m.ui.Get().ActiveCardID
	loc, ok := board.BuildIndex(snap).Card(id)
	if !ok {
		return ""
	}
	card := snap.Lists[loc.ListIndex].Cards[loc.CardIndex]

	width := 60
	if m.width > 0 && m.width-8 < width {
		width = max(m.width-8, 20)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(card.Title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("in " + snap.Lists[loc.ListIndex].Title))
	if card.DueDate != nil {
		b.WriteString(mutedStyle.Render("  ·  due " + card.DueDate.Format("Jan 2, 2006")))
	}
	b.WriteString("\n")
	if len(card.Labels) > 0 {
		b.WriteString(renderLabels(card.Labels, true))
		b.WriteString("\n")
	}
	if len(card.MemberIDs) > 0 {
		b.WriteString(mutedStyle.Render("members: " + strings.Join(card.MemberIDs, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if desc := renderMarkdown(card.Description, width); desc != "" {
		b.WriteString(desc)
	} else {
		b.WriteString(mutedStyle.Render("No description"))
	}

	box := modalStyle.Width(width + 4).Render(b.String())
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
	}
	return box
}

// RenderBoard renders a snapshot as static columns.
func RenderBoard(snap board.Snapshot, width int) string {
	if len(snap.Lists) == 0 {
		return mutedStyle.Render("(no lists)")
	}
	return renderColumns(snap, columnWidth(width, len(snap.Lists)), cursor{})
}

func columnWidth(total, lists int) int {
	if total <= 0 || lists == 0 {
		return 24
	}
	// Border and padding take four cells per column.
	w := total/lists - 4
	return clamp(w, minColumnWidth, maxColumnWidth)
}

func renderColumns(snap board.Snapshot, width int, c cursor) string {
	if len(snap.Lists) == 0 {
		return mutedStyle.Render("  This board has no lists yet.")
	}
	cols := make([]string, 0, len(snap.Lists))
	for i, l := range snap.Lists {
		focused := c.focused && i == c.col
		cols = append(cols, renderColumn(l, width, focused, c))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderColumn(l models.ListWithCards, width int, focused bool, c cursor) string {
	lines := []string{listTitle.Render(truncate(l.Title, width))}
	for j, card := range l.Cards {
		text := truncate(card.Title, width-2)
		if len(card.Labels) > 0 {
			text += " " + renderLabels(card.Labels, false)
		}
		line := "  " + text
		switch {
		case c.dragging && card.ID == c.dragged:
			line = draggedCard.Render("» " + text)
		case focused && j == c.row:
			line = selectedCard.Render(line)
		}
		lines = append(lines, line)
	}
	if len(l.Cards) == 0 {
		lines = append(lines, mutedStyle.Render("  (empty)"))
	}
	if c.dragging && focused && c.row >= len(l.Cards) {
		lines = append(lines, dropSlot.Render("  ▸ drop at end"))
	}

	style := columnStyle
	if focused {
		style = focusedColumn
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

func renderLabels(labels []models.Label, named bool) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		st := lipgloss.NewStyle()
		if color, ok := labelColors[l.Color]; ok {
			st = st.Foreground(color)
		}
		if named && l.Name != "" {
			parts = append(parts, st.Render("■ "+l.Name))
		} else {
			parts = append(parts, st.Render("■"))
		}
	}
	sep := ""
	if named {
		sep = "  "
	}
	return strings.Join(parts, sep)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Summary is a one-line description of a snapshot.
func Summary(snap board.Snapshot) string {
	return fmt.Sprintf("%d lists, %d cards, layout %s", len(snap.Lists), snap.CardCount(), board.ComputeFingerprint(snap))
}
