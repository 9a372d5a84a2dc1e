// Command settlex extracts carrier settlement statements into JSON
// artifacts, consolidates them into one dataset, and exports the result.
//
// Usage:
//
//	settlex extract [-hint kind] [-rules file] [-out dir] <file>
//	settlex batch [-workers n] [-hint kind] [-rules file] [-out dir] <dir|files...>
//	settlex consolidate [-out file] <dirs|files...>
//	settlex export [-out file] <dataset.json>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"

	"fleetsettle/internal/batch"
	"fleetsettle/internal/config"
	"fleetsettle/internal/consolidate"
	"fleetsettle/internal/export"
	"fleetsettle/internal/textlayer"
)

func main() {
	_ = godotenv.Load()
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	cfg := config.Load()

	var err error
	switch os.Args[1] {
	case "extract":
		err = runExtract(ctx, cfg, log, os.Args[2:])
	case "batch":
		err = runBatch(ctx, cfg, log, os.Args[2:])
	case "consolidate":
		err = runConsolidate(cfg, log, os.Args[2:])
	case "export":
		err = runExport(log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: settlex <extract|batch|consolidate|export> [flags] args")
}

func loadRules(cfg config.Config, path string) (config.Rules, error) {
	if path == "" {
		path = cfg.RulesPath
	}
	if path == "" {
		return config.DefaultRules(), nil
	}
	return config.LoadRules(path)
}

func runExtract(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	hint := fs.String("hint", cfg.LayoutHint, "layout hint for undetected statements")
	rulesPath := fs.String("rules", "", "rules file (YAML)")
	outDir := fs.String("out", cfg.OutputDir, "output directory (default: next to input)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("extract: exactly one input file required")
	}

	rules, err := loadRules(cfg, *rulesPath)
	if err != nil {
		return err
	}
	p := batch.NewPipeline(rules, *hint, cfg.PDFFallbackPdftotext)
	r := batch.NewRunner(p, 1, *outDir, log)
	summary := r.Run(ctx, []string{fs.Arg(0)})
	if summary.Failed > 0 {
		return fmt.Errorf("extraction failed: %s", summary.Results[0].Error)
	}
	return printJSON(summary)
}

func runBatch(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	workers := fs.Int("workers", cfg.Workers, "concurrent documents")
	hint := fs.String("hint", cfg.LayoutHint, "layout hint for undetected statements")
	rulesPath := fs.String("rules", "", "rules file (YAML)")
	outDir := fs.String("out", cfg.OutputDir, "output directory (default: next to inputs)")
	mode := fs.String("mode", "all", "admit documents: all, single or multi vehicle")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("batch: input directory or files required")
	}

	paths, err := collectInputs(fs.Args())
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("batch: no supported documents found")
	}

	rules, err := loadRules(cfg, *rulesPath)
	if err != nil {
		return err
	}
	p := batch.NewPipeline(rules, *hint, cfg.PDFFallbackPdftotext)
	r := batch.NewRunner(p, *workers, *outDir, log)
	switch *mode {
	case "all", "single", "multi":
		r.Mode = batch.Mode(*mode)
	default:
		return fmt.Errorf("batch: unknown mode %q", *mode)
	}
	summary := r.Run(ctx, paths)
	if err := printJSON(summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d documents failed", summary.Failed, summary.Processed)
	}
	return nil
}

func runConsolidate(cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("consolidate", flag.ExitOnError)
	out := fs.String("out", "consolidated_all_settlements.json", "output dataset path")
	fs.Parse(args)
	if fs.NArg() == 0 {
		return fmt.Errorf("consolidate: artifact directories or files required")
	}

	outPath := *out
	if !filepath.IsAbs(outPath) {
		base := fs.Arg(0)
		if info, err := os.Stat(base); err == nil && !info.IsDir() {
			base = filepath.Dir(base)
		}
		outPath = filepath.Join(base, outPath)
	}
	ds, err := consolidate.Run(fs.Args(), outPath, log, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "consolidated %d settlements (%d duplicates skipped) -> %s\n",
		ds.TotalSettlements, ds.DuplicatesSkipped, outPath)
	return nil
}

func runExport(log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "settlements.xlsx", "output workbook path")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("export: exactly one consolidated dataset required")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	var ds consolidate.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return fmt.Errorf("decode dataset: %w", err)
	}
	if err := export.WriteDatasetXLSX(ds, *out, log); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "exported %d settlements -> %s\n", ds.TotalSettlements, *out)
	return nil
}

// collectInputs expands directories into their supported documents and
// passes explicit files through. Paths come back sorted for stable runs.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if textlayer.IsSupportedExtension(e.Name()) {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
