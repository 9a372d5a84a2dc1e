package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode restricts which documents a runner admits. Phased imports process
// single-vehicle statements first and commingled statements separately.
type Mode string

const (
	ModeAll    Mode = "all"
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// Runner fans a batch of files across a bounded worker pool. Each file gets
// its own artifact; one bad document never stops the batch.
type Runner struct {
	Workers   int
	OutputDir string
	Mode      Mode
	Pipeline  *Pipeline
	Log       *slog.Logger
	Stats     *LatencyStats
}

func NewRunner(p *Pipeline, workers int, outputDir string, log *slog.Logger) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		Workers:   workers,
		OutputDir: outputDir,
		Mode:      ModeAll,
		Pipeline:  p,
		Log:       log,
		Stats:     NewLatencyStats(),
	}
}

// FileResult summarizes one file's run.
type FileResult struct {
	File        string `json:"file"`
	OutputPath  string `json:"output_path,omitempty"`
	Status      string `json:"status"`
	Settlements int    `json:"settlements"`
	Errors      int    `json:"errors"`
	Warnings    int    `json:"warnings"`
	Error       string `json:"error,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

// Summary aggregates a whole batch run.
type Summary struct {
	RunID        string        `json:"run_id"`
	Processed    int           `json:"processed"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	Skipped      int           `json:"skipped"`
	WithWarnings int           `json:"with_warnings"`
	Results      []FileResult  `json:"results"`
	Stats        StatsSnapshot `json:"stats"`
}

// Run processes every path with bounded concurrency and writes one artifact
// per file. Results come back sorted by filename so summaries are stable
// regardless of worker scheduling.
func (r *Runner) Run(ctx context.Context, paths []string) Summary {
	runID := uuid.NewString()
	log := r.Log.With("run_id", runID)
	log.Info("batch started", "files", len(paths), "workers", r.Workers)

	results := make(chan FileResult, len(paths))
	sem := make(chan struct{}, r.Workers)

	for _, path := range paths {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results <- FileResult{File: filepath.Base(path), Status: StatusError, Error: ctx.Err().Error()}
			continue
		}
		go func(path string) {
			defer func() { <-sem }()
			results <- r.processOne(log, path)
		}(path)
	}

	summary := Summary{RunID: runID}
	for range paths {
		res := <-results
		summary.Processed++
		switch res.Status {
		case StatusError:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Succeeded++
			if res.Warnings > 0 || res.Status == StatusValidationErrors {
				summary.WithWarnings++
			}
		}
		summary.Results = append(summary.Results, res)
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].File < summary.Results[j].File
	})
	summary.Stats = r.Stats.Snapshot()

	log.Info("batch finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"with_warnings", summary.WithWarnings)
	return summary
}

func (r *Runner) processOne(log *slog.Logger, path string) FileResult {
	start := time.Now()
	res := FileResult{File: filepath.Base(path)}

	doc, err := r.Pipeline.ProcessFile(path)
	if err != nil {
		log.Error("processing failed", "file", res.File, "error", err)
		res.Status = StatusError
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		r.Stats.Record(res.DurationMs)
		return res
	}

	if !r.admits(doc) {
		log.Info("document not admitted by run mode", "file", res.File, "mode", r.Mode)
		res.Status = StatusSkipped
		res.DurationMs = time.Since(start).Milliseconds()
		return res
	}

	out := doc.Output()
	outPath := r.artifactPath(path)
	if err := writeArtifact(outPath, out); err != nil {
		log.Error("artifact write failed", "file", res.File, "error", err)
		res.Status = StatusError
		res.Error = err.Error()
		res.DurationMs = time.Since(start).Milliseconds()
		r.Stats.Record(res.DurationMs)
		return res
	}

	res.OutputPath = outPath
	res.Settlements = len(doc.Settlements)
	res.Errors = doc.Report.Summary.ErrorCount
	res.Warnings = doc.Report.Summary.WarningCount
	if doc.Report.IsValid {
		res.Status = StatusSuccess
	} else {
		res.Status = StatusValidationErrors
	}
	res.DurationMs = time.Since(start).Milliseconds()
	r.Stats.Record(res.DurationMs)

	log.Info("processed",
		"file", res.File,
		"settlements", res.Settlements,
		"status", res.Status,
		"duration_ms", res.DurationMs)
	return res
}

func (r *Runner) admits(doc *Document) bool {
	switch r.Mode {
	case ModeSingle:
		return !doc.Multi
	case ModeMulti:
		return doc.Multi
	default:
		return true
	}
}

// artifactPath derives `<stem>_extracted.json`, in OutputDir when set,
// otherwise next to the source file.
func (r *Runner) artifactPath(srcPath string) string {
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := r.OutputDir
	if dir == "" {
		dir = filepath.Dir(srcPath)
	}
	return filepath.Join(dir, stem+"_extracted.json")
}

func writeArtifact(path string, out Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}
