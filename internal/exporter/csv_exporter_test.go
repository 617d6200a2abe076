package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"

	"foyer/internal/tasks"
)

func TestExportWritesHeaderAndRows(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	taskList := []tasks.Task{
		{ID: uuid.New(), OwnerID: "user-1", Text: "buy milk", IsCompleted: false, CreatedAt: created},
		{ID: uuid.New(), OwnerID: "user-1", Text: "walk the dog", IsCompleted: true, CreatedAt: created.Add(time.Hour)},
	}

	var buf bytes.Buffer
	if err := NewCSVExporter().Export(&buf, taskList); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse exported CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "schemaVersion" || records[0][1] != "text" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][1] != "buy milk" || records[1][2] != "false" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
	if records[2][2] != "true" {
		t.Fatalf("unexpected second row: %v", records[2])
	}
	if records[1][3] != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp: %q", records[1][3])
	}
}

func TestExportOmitsOwnerColumn(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter().Export(&buf, []tasks.Task{{ID: uuid.New(), OwnerID: "user-1", Text: "x", CreatedAt: time.Now()}}); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	if bytes.Contains(buf.Bytes(), []byte("user-1")) {
		t.Fatal("export leaked the owner identity")
	}
}

func TestExportEmptyListStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter().Export(&buf, nil); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse exported CSV: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only the header, got %d records", len(records))
	}
}
