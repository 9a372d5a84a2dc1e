package config

import (
	"os"
	"path/filepath"
	"testing"

	"fleetsettle/internal/settlement"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	if !rules.ToleranceAmount().Equal(rules.ToleranceAmount()) {
		t.Fatal("tolerance not parseable")
	}
	if got := rules.ToleranceAmount().String(); got != "0.01" {
		t.Errorf("tolerance = %s, want 0.01", got)
	}
	if got := rules.FeeRate().String(); got != "0.065" {
		t.Errorf("fee rate = %s, want 0.065", got)
	}
}

func TestClassify(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		category string
		want     CategoryClass
	}{
		{settlement.CategoryInsurance, ClassShared},
		{settlement.CategoryIFTA, ClassShared},
		{settlement.CategoryFuel, ClassActivity},
		{settlement.CategoryDriverPay, ClassActivity},
		{settlement.CategoryDispatchFee, ClassRevenue},
		// Unknown categories are treated as period level costs.
		{"mystery_fee", ClassShared},
		{settlement.CategoryCustom, ClassShared},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := rules.Classify(tt.category); got != tt.want {
				t.Errorf("Classify(%q) = %d, want %d", tt.category, got, tt.want)
			}
		})
	}
}

func TestLoadRules_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `tolerance: "0.05"
payroll_fee_rate: "0.07"
activity_proportional_categories:
  - driver_pay
  - payroll_fee
revenue_proportional_categories:
  - dispatch_fee
  - fuel
valid_plates:
  - VW9327
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rules.ToleranceAmount().String(); got != "0.05" {
		t.Errorf("tolerance = %s, want 0.05", got)
	}
	if got := rules.FeeRate().String(); got != "0.07" {
		t.Errorf("fee rate = %s, want 0.07", got)
	}
	if rules.Classify(settlement.CategoryFuel) != ClassRevenue {
		t.Error("fuel should be revenue proportional after override")
	}
	// Keys absent from the file keep their defaults.
	if rules.Classify(settlement.CategoryDriverPay) != ClassActivity {
		t.Error("driver_pay should keep its default class")
	}
	if len(rules.ValidPlates) != 1 || rules.ValidPlates[0] != "VW9327" {
		t.Errorf("valid plates = %v", rules.ValidPlates)
	}
}

func TestLoadRules_InvalidTolerance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(`tolerance: "lots"`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected error for unparseable tolerance")
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("WORKERS", "8")
	t.Setenv("OUTPUT_DIR", "/tmp/out")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Workers)
	}
	if cfg.OutputDir != "/tmp/out" {
		t.Errorf("output dir = %q", cfg.OutputDir)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("pdftotext fallback should be disabled")
	}
}

func TestLoadConfig_BadWorkerCountFallsBack(t *testing.T) {
	t.Setenv("WORKERS", "-2")
	cfg := Load()
	if cfg.Workers != 4 {
		t.Errorf("workers = %d, want default 4", cfg.Workers)
	}
}
