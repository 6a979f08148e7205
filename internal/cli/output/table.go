package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// TableFooter is implemented by renderers that end with a totals line.
type TableFooter interface {
	Footer() []string
}

// TableLayout is implemented by renderers that need more than left aligned
// columns.
type TableLayout interface {
	// Alignments returns a tablewriter alignment per column.
	Alignments() []int
	// MergedColumns lists columns whose repeated values print only once,
	// such as the task ID over the rows for its paths.
	MergedColumns() []int
}

// Column alignments accepted from TableLayout.
const (
	AlignLeft  = tablewriter.ALIGN_LEFT
	AlignRight = tablewriter.ALIGN_RIGHT
)

// PrintTable writes data as a borderless table with two spaces between
// columns.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := newTable(w)
	table.SetHeader(data.Headers())
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

	if layout, ok := data.(TableLayout); ok {
		if a := layout.Alignments(); len(a) > 0 {
			table.SetColumnAlignment(a)
		}
		if cols := layout.MergedColumns(); len(cols) > 0 {
			table.SetAutoMergeCellsByColumnIndex(cols)
		}
	}
	if footer, ok := data.(TableFooter); ok {
		table.SetFooter(footer.Footer())
		table.SetFooterAlignment(tablewriter.ALIGN_LEFT)
	}

	table.AppendBulk(data.Rows())
	table.Render()
	return nil
}

// SimpleTable prints key-value pairs separated by a colon.
func SimpleTable(w io.Writer, pairs [][2]string) error {
	table := newTable(w)
	table.SetAutoFormatHeaders(false)
	table.SetColumnSeparator(":")

	for _, pair := range pairs {
		table.Append([]string{pair[0], pair[1]})
	}

	table.Render()
	return nil
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	return table
}
