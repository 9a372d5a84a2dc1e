package batch

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fleetsettle/internal/config"
)

const paystubFixture = `Pay Period: 12/29/2024 - 1/4/2025
Driver: John Vereen
Plate#: VW9327
Gross Pay $5,962.32
Fuel $1,650.00
Dispatch Fee $476.99
Insurance $150.00
Net Pay $3,685.33
`

const multiFixture = `NBM TRANSPORT LLC
Pay Period: 12/29/2024
Plate#: VW9327, KLT442
Gross Pay $2,000.00
B-3X7K2 Vereen VW9327
B-9QM41 Harris KLT442
Fuel $400.00
Net Pay $1,400.00
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func fixedClock() func() time.Time {
	ts := time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return ts }
}

func TestProcessText_SinglePaystub(t *testing.T) {
	p := NewPipeline(config.DefaultRules(), "", false)
	p.Now = fixedClock()

	doc, err := p.ProcessText("stub.txt", paystubFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Multi {
		t.Error("single vehicle document flagged as multi")
	}
	if len(doc.Settlements) != 1 {
		t.Fatalf("settlements = %d, want 1", len(doc.Settlements))
	}
	if doc.Record.SettlementType != "relay_paystub" {
		t.Errorf("settlement type = %q", doc.Record.SettlementType)
	}
	if doc.Record.ExtractionDate != "2025-01-05T12:00:00Z" {
		t.Errorf("extraction date = %q", doc.Record.ExtractionDate)
	}
	if !doc.Report.IsValid {
		t.Errorf("report invalid: %+v", doc.Report.Findings)
	}

	out := doc.Output()
	if out.Validation != nil || out.Status != "" {
		t.Error("single document artifacts carry no validation block")
	}
}

func TestProcessText_MultiVehicle(t *testing.T) {
	p := NewPipeline(config.DefaultRules(), "", false)
	p.Now = fixedClock()

	doc, err := p.ProcessText("multi.txt", multiFixture)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Multi {
		t.Fatal("expected multi vehicle document")
	}
	if len(doc.Settlements) != 2 {
		t.Fatalf("settlements = %d, want 2", len(doc.Settlements))
	}
	if doc.Record.SettlementType != "carrier_statement" {
		t.Errorf("settlement type = %q", doc.Record.SettlementType)
	}

	out := doc.Output()
	if out.Validation == nil {
		t.Fatal("multi document artifacts carry the validation block")
	}
	if out.Status != StatusSuccess {
		t.Errorf("status = %q, want %q", out.Status, StatusSuccess)
	}
}

func TestProcessText_LayoutHintFallback(t *testing.T) {
	// No structural signature on the sheet, but the caller knows what it is.
	text := `TRUCK# : 12
Date Period : 12/23-12/29/2024
SUMMARY GROSS ($ 2,119.07)
PAID TO DRIVER ($ 1,377.04)
`
	p := NewPipeline(config.DefaultRules(), "income_sheet", false)
	doc, err := p.ProcessText("hinted.txt", text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Record.SettlementType != "income_sheet" {
		t.Errorf("settlement type = %q, want income_sheet", doc.Record.SettlementType)
	}

	// Without the hint the document is rejected outright.
	p2 := NewPipeline(config.DefaultRules(), "", false)
	if _, err := p2.ProcessText("hinted.txt", text); err == nil {
		t.Error("expected extraction error without a layout hint")
	}
}

func TestRunner_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stub.txt")
	if err := os.WriteFile(src, []byte(paystubFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(config.DefaultRules(), "", false)
	p.Now = fixedClock()
	r := NewRunner(p, 2, "", testLogger())

	summary := r.Run(context.Background(), []string{src})
	if summary.Processed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	outPath := filepath.Join(dir, "stub_extracted.json")
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	if summary.Results[0].OutputPath != outPath {
		t.Errorf("output path = %q, want %q", summary.Results[0].OutputPath, outPath)
	}
}

func TestRunner_RepeatRunsAreByteIdentical(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stub.txt")
	if err := os.WriteFile(src, []byte(paystubFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(config.DefaultRules(), "", false)
	p.Now = fixedClock()
	r := NewRunner(p, 2, "", testLogger())

	outPath := filepath.Join(dir, "stub_extracted.json")

	r.Run(context.Background(), []string{src})
	first, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}

	r.Run(context.Background(), []string{src})
	second, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Error("repeat run produced a different artifact")
	}
}

func TestRunner_BadDocumentDoesNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(good, []byte(paystubFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("no settlement content here"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(config.DefaultRules(), "", false)
	p.Now = fixedClock()
	r := NewRunner(p, 2, "", testLogger())

	summary := r.Run(context.Background(), []string{good, bad})
	if summary.Processed != 2 {
		t.Fatalf("processed = %d, want 2", summary.Processed)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 1 succeeded / 1 failed", summary)
	}

	// Results come back sorted by filename.
	if summary.Results[0].File != "bad.txt" || summary.Results[1].File != "good.txt" {
		t.Errorf("result order = %q, %q", summary.Results[0].File, summary.Results[1].File)
	}
	if summary.Results[0].Status != StatusError {
		t.Errorf("bad file status = %q", summary.Results[0].Status)
	}
	if summary.Results[0].Error == "" {
		t.Error("failed result should carry the error message")
	}
}

func TestRunner_ModeFiltersDocuments(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.txt")
	multi := filepath.Join(dir, "multi.txt")
	if err := os.WriteFile(single, []byte(paystubFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(multi, []byte(multiFixture), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(config.DefaultRules(), "", false)
	p.Now = fixedClock()
	r := NewRunner(p, 2, "", testLogger())
	r.Mode = ModeSingle

	summary := r.Run(context.Background(), []string{single, multi})
	if summary.Succeeded != 1 || summary.Skipped != 1 {
		t.Fatalf("summary = %+v, want 1 succeeded / 1 skipped", summary)
	}
	if summary.Results[0].File != "multi.txt" || summary.Results[0].Status != StatusSkipped {
		t.Errorf("multi result = %+v, want skipped", summary.Results[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "multi_extracted.json")); !os.IsNotExist(err) {
		t.Error("skipped document should not leave an artifact")
	}
	if _, err := os.Stat(filepath.Join(dir, "single_extracted.json")); err != nil {
		t.Errorf("admitted document missing artifact: %v", err)
	}

	r.Mode = ModeMulti
	summary = r.Run(context.Background(), []string{single, multi})
	if summary.Succeeded != 1 || summary.Skipped != 1 {
		t.Fatalf("multi mode summary = %+v, want 1 succeeded / 1 skipped", summary)
	}
	if summary.Results[1].File != "single.txt" || summary.Results[1].Status != StatusSkipped {
		t.Errorf("single result = %+v, want skipped", summary.Results[1])
	}
}

func TestArtifactPath(t *testing.T) {
	r := NewRunner(nil, 1, "", testLogger())
	if got := r.artifactPath("/data/in/stub.pdf"); got != "/data/in/stub_extracted.json" {
		t.Errorf("artifactPath = %q", got)
	}
	r.OutputDir = "/data/out"
	if got := r.artifactPath("/data/in/stub.pdf"); got != "/data/out/stub_extracted.json" {
		t.Errorf("artifactPath = %q", got)
	}
}
