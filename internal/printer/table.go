package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/tasktrack/internal/model"
)

const progressBarWidth = 20

// TablePrinter prints batch information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintStatus prints the batch summary followed by one row per task.
func (t *TablePrinter) PrintStatus(status model.BatchStatus) error {
	fmt.Fprintf(t.writer, "Batch:        %s\n", status.BatchID)
	fmt.Fprintf(t.writer, "Total:        %d\n", status.Total)
	fmt.Fprintf(t.writer, "Pending:      %d\n", status.Pending)
	fmt.Fprintf(t.writer, "In progress:  %d\n", status.InProgress)
	fmt.Fprintf(t.writer, "Completed:    %d\n", status.Completed)
	fmt.Fprintf(t.writer, "Failed:       %d\n", status.Failed)

	if len(status.Tasks) == 0 {
		return nil
	}
	fmt.Fprintln(t.writer)

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "ID\tSTATUS\tPROGRESS\t\tERROR")

	// Print rows.
	for id, task := range status.Tasks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d%%\t%s\n", id, task.Status, ProgressBar(task.Progress, progressBarWidth), task.Progress, task.Error)
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

// ProgressBar returns a text progress bar of the given width.
// Example: "[#####-----]" for 50 with width 10.
func ProgressBar(progress, width int) string {
	progress = max(0, min(progress, 100))
	filled := progress * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
