package pricing

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEstimateFixedPricing(t *testing.T) {
	est := NewEstimator(Table{
		"sonar": {InputPerMillion: 1.00, OutputPerMillion: 1.00},
	})

	// 200/1e6*1.00 + 500/1e6*1.00 = 0.0007 per query
	got := est.Estimate("sonar", 1)
	if got != 0.0007 {
		t.Errorf("Estimate(sonar, 1) = %v, want 0.0007", got)
	}

	got = est.Estimate("sonar", 10)
	if got != 0.007 {
		t.Errorf("Estimate(sonar, 10) = %v, want 0.007", got)
	}
}

func TestEstimateUnknownModelFallsBack(t *testing.T) {
	est := NewEstimator(Table{
		"sonar":     {InputPerMillion: 1.00, OutputPerMillion: 1.00},
		"sonar-pro": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	})

	if got, want := est.Estimate("some-future-model", 10), est.Estimate("sonar", 10); got != want {
		t.Errorf("unknown model estimate = %v, want default model estimate %v", got, want)
	}
	if got, want := est.Estimate("", 3), est.Estimate("sonar", 3); got != want {
		t.Errorf("empty model estimate = %v, want default model estimate %v", got, want)
	}
}

func TestEstimateRoundsToSixDecimals(t *testing.T) {
	est := NewEstimator(Table{
		"sonar": {InputPerMillion: 1.2345678, OutputPerMillion: 0.9876543},
	})

	got := est.Estimate("sonar", 7)
	if got != math.Round(got*1e6)/1e6 {
		t.Errorf("Estimate returned unrounded value %v", got)
	}
}

func TestEstimateNeverNegative(t *testing.T) {
	est := NewEstimator(nil)
	if got := est.Estimate("sonar", -5); got != 0 {
		t.Errorf("Estimate with negative count = %v, want 0", got)
	}
}

func TestNewEstimatorEmptyTableUsesDefaults(t *testing.T) {
	est := NewEstimator(nil)
	if got := est.Estimate("sonar", 1); got <= 0 {
		t.Errorf("default table estimate = %v, want > 0", got)
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	content := []byte(`models:
  sonar:
    input_per_million: 1.0
    output_per_million: 1.0
  sonar-pro:
    input_per_million: 3.0
    output_per_million: 15.0
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("LoadTable returned %d models, want 2", len(table))
	}
	if table["sonar-pro"].OutputPerMillion != 15.0 {
		t.Errorf("sonar-pro output price = %v, want 15.0", table["sonar-pro"].OutputPerMillion)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadTable on missing file should error")
	}
}
