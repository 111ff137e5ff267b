package printer

import "github.com/slok/tasktrack/internal/model"

// Printer knows how to print batch information in different formats.
type Printer interface {
	PrintStatus(status model.BatchStatus) error
	PrintMessage(msg string) error
}
