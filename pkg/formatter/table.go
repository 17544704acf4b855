// File: pkg/formatter/table.go
package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorBorder = lipgloss.Color("240")
	colorHeader = lipgloss.Color("12")
	colorNoun   = lipgloss.Color("14")

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorHeader)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	nounStyle    = lipgloss.NewStyle().Foreground(colorNoun)
	sectionStyle = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

type Table struct {
	Headers []string
	Rows    [][]string
}

// Creates a new table with the given headers
func NewTable(headers []string) *Table {
	return &Table{
		Headers: headers,
		Rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.Rows = append(t.Rows, row)
}

// Returns the bordered string representation of the table
func (t *Table) String() string {
	if len(t.Headers) == 0 {
		return ""
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(t.Headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})

	for _, row := range t.Rows {
		tbl.Row(row...)
	}

	return tbl.String()
}

// Formats a section header with a title
func FormatHeaderSection(title string) string {
	borderLine := strings.Repeat("=", len(title)+30)
	return borderLine + "\n" + sectionStyle.Render("  "+title+"  ") + "\n" + borderLine
}

// Formats a simple section title
func FormatSectionTitle(title string) string {
	return sectionStyle.Render("-- " + title + " --")
}
