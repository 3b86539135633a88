package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders aligned rows with a bold header and no borders except a rule
// under the header.
type Table struct {
	headers []string
	rows    [][]string
	// Muted columns are rendered in the muted style.
	muted map[int]bool
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, muted: make(map[int]bool)}
}

// MuteColumn renders column col in the muted style.
func (t *Table) MuteColumn(col int) *Table {
	t.muted[col] = true
	return t
}

// AddRow adds a row. Missing cells are left empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// String renders the table.
func (t *Table) String() string {
	if len(t.rows) == 0 {
		return ""
	}

	cell := lipgloss.NewStyle().PaddingRight(2)
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderStyle(Muted).
		Headers(t.headers...).
		Rows(t.rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cell.Bold(true)
			case t.muted[col]:
				return cell.Inherit(Muted)
			default:
				return cell
			}
		})
	return tbl.String() + "\n"
}
