package consolidate

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fleetsettle/internal/layout"
	"fleetsettle/internal/settlement"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeArtifact(t *testing.T, dir, name, sourceFile, plate string) string {
	t.Helper()
	date := time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC)
	s := settlement.VehicleSettlement{
		VehicleID:      plate,
		SettlementDate: date,
		GrossRevenue:   decimal.New(200000, -2),
		TotalExpenses:  decimal.New(50000, -2),
		NetProfit:      decimal.New(150000, -2),
		Categories: map[string]decimal.Decimal{
			settlement.CategoryFuel: decimal.New(50000, -2),
		},
		LayoutKind: layout.LayoutA,
	}
	rec := settlement.NewRecord(sourceFile, "relay_paystub", date, []settlement.VehicleSettlement{s})
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_MergesAndDeduplicates(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "a_extracted.json", "a.pdf", "VW9327")
	writeArtifact(t, dir, "b_extracted.json", "b.pdf", "KLT442")
	// Same date and plate as a.pdf: a duplicate, not a new settlement.
	writeArtifact(t, dir, "c_extracted.json", "c.pdf", "VW9327")

	outPath := filepath.Join(dir, "consolidated.json")
	ds, err := Run([]string{dir}, outPath, testLogger(), func() time.Time {
		return time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ds.TotalSettlements != 2 {
		t.Errorf("total settlements = %d, want 2", ds.TotalSettlements)
	}
	if ds.DuplicatesSkipped != 1 {
		t.Errorf("duplicates skipped = %d, want 1", ds.DuplicatesSkipped)
	}
	if len(ds.DuplicateDetails) != 1 {
		t.Fatalf("duplicate details = %d, want 1", len(ds.DuplicateDetails))
	}
	if ds.DuplicateDetails[0].Key != "2024-12-29|VW9327" {
		t.Errorf("duplicate key = %q", ds.DuplicateDetails[0].Key)
	}
	if ds.DuplicateDetails[0].SourceFile != "c.pdf" {
		t.Errorf("duplicate source = %q, want c.pdf (files merge in lexical order)", ds.DuplicateDetails[0].SourceFile)
	}

	// First occurrence wins.
	if ds.Settlements[0].SourceFile != "a.pdf" {
		t.Errorf("first settlement from %q, want a.pdf", ds.Settlements[0].SourceFile)
	}
	if ds.ConsolidationDate != "2025-01-06T09:00:00Z" {
		t.Errorf("consolidation date = %q", ds.ConsolidationDate)
	}

	// The dataset round-trips from disk.
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromDisk Dataset
	if err := json.Unmarshal(data, &fromDisk); err != nil {
		t.Fatalf("decode written dataset: %v", err)
	}
	if fromDisk.TotalSettlements != 2 {
		t.Errorf("round-trip total = %d, want 2", fromDisk.TotalSettlements)
	}
}

func TestRun_SkipsInvalidArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "a_extracted.json", "a.pdf", "VW9327")
	if err := os.WriteFile(filepath.Join(dir, "bad_extracted.json"), []byte(`{"settlements": []}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := Run([]string{dir}, filepath.Join(dir, "out.json"), testLogger(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.TotalSettlements != 1 {
		t.Errorf("total settlements = %d, want 1", ds.TotalSettlements)
	}
	if len(ds.SkippedFiles) != 1 || ds.SkippedFiles[0].File != "bad_extracted.json" {
		t.Errorf("skipped files = %+v", ds.SkippedFiles)
	}
}

func TestAddFile_MissingFile(t *testing.T) {
	c := New(testLogger())
	if err := c.AddFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for unreadable file")
	}
}
