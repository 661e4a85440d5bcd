package cli

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/newtron-network/rgosc/pkg/refs"
	"github.com/newtron-network/rgosc/pkg/warnings"
)

// Table is a borderless, left-aligned table. Nothing is printed for a table
// without rows.
type Table struct {
	tw   *tablewriter.Table
	rows int
}

// NewTable creates a table with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(true)
	tw.SetBorder(false)
	tw.SetHeaderLine(false)
	tw.SetCenterSeparator("")
	tw.SetColumnSeparator("")
	tw.SetRowSeparator("")
	tw.SetTablePadding("  ")
	tw.SetNoWhiteSpace(true)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeader(headers)
	return &Table{tw: tw}
}

// Row appends a row.
func (t *Table) Row(values ...string) {
	t.tw.Append(values)
	t.rows++
}

// Len returns the number of rows appended.
func (t *Table) Len() int {
	return t.rows
}

// Flush renders the table if it has rows.
func (t *Table) Flush() {
	if t.rows == 0 {
		return
	}
	t.tw.Render()
}

// WriteWarnings renders one row per warning. It returns the row count.
func WriteWarnings(w io.Writer, ws *warnings.Warnings, pedantic bool) int {
	t := NewTable(w, "kind", "line", "message")
	for _, e := range ws.Entries(pedantic) {
		line := ""
		if e.Line > 0 {
			line = strconv.Itoa(e.Line)
		}
		t.Row(KindLabel(e.Kind), line, e.Text)
	}
	t.Flush()
	return t.Len()
}

// WriteUndefined renders references to structures that were never defined.
func WriteUndefined(w io.Writer, tr *refs.Tracker) int {
	t := NewTable(w, "line", "type", "name", "usage")
	for _, r := range tr.Undefined() {
		t.Row(strconv.Itoa(r.Line), string(r.Type), r.Name, string(r.Usage))
	}
	t.Flush()
	return t.Len()
}

// WriteUnused renders definitions nothing references.
func WriteUnused(w io.Writer, tr *refs.Tracker) int {
	t := NewTable(w, "line", "type", "name")
	for _, d := range tr.Unused() {
		t.Row(strconv.Itoa(d.Line), string(d.Type), d.Name)
	}
	t.Flush()
	return t.Len()
}
