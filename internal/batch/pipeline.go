// Package batch runs the full settlement pipeline over one or many
// documents: text layer, layout detection, field extraction, allocation,
// validation, and the JSON artifact per source file.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fleetsettle/internal/allocate"
	"fleetsettle/internal/config"
	"fleetsettle/internal/extract"
	"fleetsettle/internal/layout"
	"fleetsettle/internal/settlement"
	"fleetsettle/internal/textlayer"
	"fleetsettle/internal/validate"
)

// Per-file processing outcomes.
const (
	StatusSuccess          = "success"
	StatusValidationErrors = "validation_errors"
	StatusError            = "error"
	StatusSkipped          = "skipped"
)

// Pipeline processes a single document end to end. It is stateless and safe
// for concurrent use by the runner's workers.
type Pipeline struct {
	Rules             config.Rules
	Options           extract.Options
	LayoutHint        string
	FallbackPdftotext bool

	// Now stamps extraction_date. Overridable so repeat runs over unchanged
	// inputs produce byte-identical artifacts.
	Now func() time.Time
}

// NewPipeline wires a pipeline from the rule set, pushing the fleet plate
// whitelist and fee rate down into extraction.
func NewPipeline(rules config.Rules, layoutHint string, fallbackPdftotext bool) *Pipeline {
	opts := extract.DefaultOptions()
	opts.PayrollFeeRate = rules.FeeRate()
	opts.PlateWhitelist = rules.ValidPlates
	return &Pipeline{
		Rules:             rules,
		Options:           opts,
		LayoutHint:        layoutHint,
		FallbackPdftotext: fallbackPdftotext,
	}
}

// Document is the fully processed result for one source file.
type Document struct {
	Record      settlement.Record
	Report      validate.Report
	Multi       bool
	Settlements []settlement.VehicleSettlement
}

// Output is the JSON artifact written per document. Single-vehicle documents
// serialize as the bare record; multi-vehicle documents carry the validation
// report and a status alongside.
type Output struct {
	settlement.Record
	Validation *validate.Report `json:"validation,omitempty"`
	Status     string           `json:"status,omitempty"`
}

// Output shapes the document for serialization.
func (d *Document) Output() Output {
	out := Output{Record: d.Record}
	if d.Multi {
		rep := d.Report
		out.Validation = &rep
		if rep.IsValid {
			out.Status = StatusSuccess
		} else {
			out.Status = StatusValidationErrors
		}
	}
	return out
}

// ProcessFile reads one document from disk and processes it.
func (p *Pipeline) ProcessFile(path string) (*Document, error) {
	ex, err := textlayer.ForFile(path, p.FallbackPdftotext)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	text, err := ex.Extract(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("text layer %s: %w", path, err)
	}
	return p.ProcessText(filepath.Base(path), text)
}

// ProcessText runs detection, extraction, allocation and validation over an
// already extracted text layer. docID is the source filename recorded in the
// artifact.
func (p *Pipeline) ProcessText(docID, text string) (*Document, error) {
	kind := layout.Detect(text)
	if kind == layout.Unknown && p.LayoutHint != "" {
		kind = layout.FromHint(p.LayoutHint)
	}

	bag, err := extract.Run(docID, kind, text, p.Options)
	if err != nil {
		return nil, err
	}

	multi := len(bag.Plates) > 1
	var settlements []settlement.VehicleSettlement
	if multi {
		settlements = allocate.Allocate(bag, p.Rules)
	} else {
		settlements = []settlement.VehicleSettlement{allocate.Single(bag)}
	}

	report := validate.Check(bag, settlements, p.Rules)

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	rec := settlement.NewRecord(docID, string(kind), now(), settlements)

	return &Document{
		Record:      rec,
		Report:      report,
		Multi:       multi,
		Settlements: settlements,
	}, nil
}
