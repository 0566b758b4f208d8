// Package pricing estimates the cost of answer-engine queries from a
// per-model price table. The table is injected configuration, not ambient
// state, so tests can substitute fixed pricing.
package pricing

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/citelens/citelens/internal/metrics"
)

// Assumed token counts per query. These are a deliberate approximation used
// for cost projection, not measured usage.
const (
	AssumedInputTokens  = 200
	AssumedOutputTokens = 500
)

// DefaultModel is the pricing row used when a model is unknown.
const DefaultModel = "sonar"

// ModelPrice holds USD prices per million tokens for a single model.
type ModelPrice struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// Table maps model identifiers to their prices.
type Table map[string]ModelPrice

// DefaultTable covers the Perplexity sonar family. Used when no pricing file
// is configured.
func DefaultTable() Table {
	return Table{
		"sonar":               {InputPerMillion: 1.00, OutputPerMillion: 1.00},
		"sonar-pro":           {InputPerMillion: 3.00, OutputPerMillion: 15.00},
		"sonar-reasoning":     {InputPerMillion: 1.00, OutputPerMillion: 5.00},
		"sonar-reasoning-pro": {InputPerMillion: 2.00, OutputPerMillion: 8.00},
		"sonar-deep-research": {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	}
}

// Estimator computes estimated costs from an injected price table.
type Estimator struct {
	table        Table
	defaultModel string
}

// NewEstimator builds an estimator over the given table. A nil or empty
// table falls back to DefaultTable. If the table lacks the default model,
// the built-in default pricing for it is carried over so estimates never
// fail.
func NewEstimator(table Table) *Estimator {
	if len(table) == 0 {
		table = DefaultTable()
	}
	if _, ok := table[DefaultModel]; !ok {
		table[DefaultModel] = DefaultTable()[DefaultModel]
	}
	return &Estimator{table: table, defaultModel: DefaultModel}
}

// LoadTable reads a yaml pricing file of the form:
//
//	models:
//	  sonar:
//	    input_per_million: 1.0
//	    output_per_million: 1.0
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	var doc struct {
		Models Table `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pricing file %s: %w", path, err)
	}
	return doc.Models, nil
}

// Estimate returns the projected USD cost of queryCount queries against the
// given model, using the fixed assumed token counts. Unknown models fall
// back to the default model's pricing; the function never errors. The result
// is rounded to 6 decimal places.
func (e *Estimator) Estimate(model string, queryCount int) float64 {
	if queryCount < 0 {
		queryCount = 0
	}
	price, ok := e.table[model]
	if !ok {
		metrics.PricingFallbacks.WithLabelValues(fallbackReason(model)).Inc()
		price = e.table[e.defaultModel]
	}
	perQuery := float64(AssumedInputTokens)/1e6*price.InputPerMillion +
		float64(AssumedOutputTokens)/1e6*price.OutputPerMillion
	return round6(float64(queryCount) * perQuery)
}

func fallbackReason(model string) string {
	if model == "" {
		return "missing_model"
	}
	return "unknown_model"
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
