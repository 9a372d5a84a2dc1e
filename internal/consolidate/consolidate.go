// Package consolidate merges per-document settlement artifacts into one
// dataset ready for import. Settlements are keyed by settlement date and
// vehicle identifier; the first occurrence wins and later duplicates are
// skipped and reported, never silently dropped.
package consolidate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"fleetsettle/internal/schema"
	"fleetsettle/internal/settlement"
)

// Entry wraps one settlement with the provenance of the artifact it came
// from.
type Entry struct {
	SourceFile     string           `json:"source_file"`
	ExtractionDate string           `json:"extraction_date"`
	SettlementType *string          `json:"settlement_type"`
	Settlement     settlement.Entry `json:"settlement"`
}

// Duplicate records a skipped settlement for the dataset header.
type Duplicate struct {
	Key        string `json:"key"`
	SourceFile string `json:"source_file"`
}

// SkippedFile records an artifact rejected before merging.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Dataset is the consolidated output.
type Dataset struct {
	ConsolidationDate string        `json:"consolidation_date"`
	Source            string        `json:"source"`
	TotalSettlements  int           `json:"total_settlements"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	Settlements       []Entry       `json:"settlements"`
	DuplicateDetails  []Duplicate   `json:"duplicate_details,omitempty"`
	SkippedFiles      []SkippedFile `json:"skipped_files,omitempty"`
}

// artifact mirrors the per-document JSON contract for reading.
type artifact struct {
	SourceFile     string             `json:"source_file"`
	ExtractionDate string             `json:"extraction_date"`
	SettlementType *string            `json:"settlement_type"`
	Settlements    []settlement.Entry `json:"settlements"`
}

// Consolidator merges artifacts in the order they are added.
type Consolidator struct {
	log  *slog.Logger
	Now  func() time.Time
	seen map[string]bool
	ds   Dataset
}

func New(log *slog.Logger) *Consolidator {
	return &Consolidator{
		log:  log,
		seen: make(map[string]bool),
		ds:   Dataset{Source: "master_consolidation"},
	}
}

// AddFile validates one artifact against the record schema and merges its
// settlements. Invalid artifacts are recorded and skipped; the batch
// continues.
func (c *Consolidator) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	name := filepath.Base(path)

	if err := schema.ValidateRecord(data); err != nil {
		c.log.Warn("artifact rejected", "file", name, "error", err)
		c.ds.SkippedFiles = append(c.ds.SkippedFiles, SkippedFile{File: name, Reason: err.Error()})
		return nil
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for i := range a.Settlements {
		entry := Entry{
			SourceFile:     a.SourceFile,
			ExtractionDate: a.ExtractionDate,
			SettlementType: a.SettlementType,
			Settlement:     a.Settlements[i],
		}
		key := a.Settlements[i].Key()
		if c.seen[key] {
			c.log.Info("duplicate settlement skipped", "key", key, "file", name)
			c.ds.DuplicatesSkipped++
			if len(c.ds.DuplicateDetails) < 10 {
				c.ds.DuplicateDetails = append(c.ds.DuplicateDetails, Duplicate{Key: key, SourceFile: a.SourceFile})
			}
			continue
		}
		c.seen[key] = true
		c.ds.Settlements = append(c.ds.Settlements, entry)
	}
	return nil
}

// Dataset finalizes and returns the merged output.
func (c *Consolidator) Dataset() Dataset {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	ds := c.ds
	ds.ConsolidationDate = now().Format(time.RFC3339)
	ds.TotalSettlements = len(ds.Settlements)
	return ds
}

// Run consolidates artifacts from the given inputs into outPath. Each input
// is either a directory, expanded to its *_extracted.json files in lexical
// order, or an artifact file taken as is. Inputs merge in the order given so
// repeat runs produce the same dataset.
func Run(inputs []string, outPath string, log *slog.Logger, now func() time.Time) (Dataset, error) {
	var paths []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return Dataset{}, fmt.Errorf("stat %s: %w", input, err)
		}
		if !info.IsDir() {
			paths = append(paths, input)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(input, "*_extracted.json"))
		if err != nil {
			return Dataset{}, fmt.Errorf("scan %s: %w", input, err)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}

	c := New(log)
	c.Now = now
	for _, path := range paths {
		if err := c.AddFile(path); err != nil {
			return Dataset{}, err
		}
	}

	ds := c.Dataset()
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return Dataset{}, fmt.Errorf("marshal dataset: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return Dataset{}, fmt.Errorf("write dataset: %w", err)
	}
	log.Info("consolidated", "files", len(paths), "settlements", ds.TotalSettlements, "duplicates_skipped", ds.DuplicatesSkipped, "output", outPath)
	return ds, nil
}
