package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"foyer/internal/tasks"
)

// SchemaVersion identifies the CSV export format version.
// This version should be incremented when adding new columns or changing the format.
const SchemaVersion = "1"

// csvColumns defines the column order for export. The owner column is
// intentionally excluded: exports are already scoped to a single caller
// and the opaque identity would leak into downloaded files otherwise.
var csvColumns = []string{
	"schemaVersion",
	"text",
	"isCompleted",
	"createdAt",
}

// CSVExporter exports tasks to CSV format.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes tasks to the given writer in CSV format.
func (e *CSVExporter) Export(w io.Writer, taskList []tasks.Task) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, task := range taskList {
		row := e.taskToRow(task)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}

// taskToRow converts a task to a CSV row following the column order.
func (e *CSVExporter) taskToRow(task tasks.Task) []string {
	row := make([]string, len(csvColumns))

	row[0] = SchemaVersion
	row[1] = task.Text
	row[2] = strconv.FormatBool(task.IsCompleted)
	row[3] = formatTime(task.CreatedAt)

	return row
}

// formatTime formats a time to RFC3339 string.
func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339)
}
