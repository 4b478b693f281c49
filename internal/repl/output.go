package repl

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/JoeHowarth/piql/internal/frame"
)

// printTable writes df as an aligned, tab-separated table.
func printTable(w io.Writer, df *frame.DataFrame) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	names := df.ColumnNames()
	for i, name := range names {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, name)
	}
	_, _ = fmt.Fprintln(tw)

	cols := df.Columns()
	for row := 0; row < df.NumRows(); row++ {
		for i, col := range cols {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col.Values[row].String())
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", df.NumRows())
}
