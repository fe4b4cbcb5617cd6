package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders static rows for command output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewTable creates an empty table.
func NewTable(title string, headers ...string) *Table {
	return &Table{Title: title, Headers: headers}
}

// AddRow appends a row. Cells beyond the header count are dropped on render.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// View renders the table, or "" when it has no rows.
func (t *Table) View(s Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}
	// Width includes the cell padding.
	total := len(widths) - 1
	for i := range widths {
		widths[i] += 2
		total += widths[i]
	}

	head := s.Bold.Padding(0, 1)
	cell := s.Body.Padding(0, 1)
	sep := s.Muted.Render("│")

	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(s.Title.Render(t.Title))
		sb.WriteString("\n")
	}
	sb.WriteString(renderRow(head, widths, t.Headers, sep))
	sb.WriteString(s.Muted.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")
	for _, row := range t.Rows {
		sb.WriteString(renderRow(cell, widths, row, sep))
	}
	return sb.String()
}

func renderRow(style lipgloss.Style, widths []int, cells []string, sep string) string {
	parts := make([]string, len(widths))
	for i := range widths {
		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		parts[i] = style.Width(widths[i]).Render(text)
	}
	return strings.Join(parts, sep) + "\n"
}
