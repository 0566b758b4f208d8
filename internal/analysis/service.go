// Package analysis runs tracked queries against the answer engine,
// categorizes the cited domains, and records the results.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/citelens/citelens/internal/apperrors"
	"github.com/citelens/citelens/internal/db"
	"github.com/citelens/citelens/internal/domains"
	"github.com/citelens/citelens/internal/engine"
	ometrics "github.com/citelens/citelens/internal/metrics"
	"github.com/citelens/citelens/internal/pricing"
)

// Engine is the answer-engine call the service depends on.
type Engine interface {
	Ask(ctx context.Context, model, prompt string) (*engine.Answer, error)
}

// Config holds analysis settings.
type Config struct {
	// Model is the answer-engine model identifier used for every query.
	Model string
	// BatchDelay is the fixed pause between consecutive engine calls in a
	// batch. It is a politeness measure toward the engine, not a tuning
	// knob; batches are never parallelized.
	BatchDelay time.Duration
}

// Service orchestrates one analysis: engine call, categorization, cost
// estimate, atomic persistence.
type Service struct {
	store     *db.Store
	engine    Engine
	resolver  *domains.Resolver
	estimator *pricing.Estimator
	cfg       Config
	logger    *zap.Logger
}

// Result is one completed analysis.
type Result struct {
	Run       *db.Run        `json:"run"`
	Citations []*db.Citation `json:"citations"`
}

// BatchItem is one entry of a batch result. Exactly one of Run or Error is
// set; a failed item never persists a run.
type BatchItem struct {
	QueryID   uuid.UUID      `json:"query_id"`
	Run       *db.Run        `json:"run,omitempty"`
	Citations []*db.Citation `json:"citations,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
}

// BatchResult aggregates a sequential batch analysis.
type BatchResult struct {
	Results   []BatchItem `json:"results"`
	TotalCost float64     `json:"total_cost"`
}

// NewService builds an analysis service. The category resolver reads tags
// through the store.
func NewService(store *db.Store, eng Engine, estimator *pricing.Estimator, cfg Config, logger *zap.Logger) *Service {
	if cfg.Model == "" {
		cfg.Model = pricing.DefaultModel
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = 2 * time.Second
	}
	return &Service{
		store:     store,
		engine:    eng,
		resolver:  domains.NewResolver(store),
		estimator: estimator,
		cfg:       cfg,
		logger:    logger,
	}
}

// AnalyzeQuery runs one query against the engine, categorizes every cited
// domain, and persists the run with its citations atomically.
func (s *Service) AnalyzeQuery(ctx context.Context, queryID uuid.UUID) (*Result, error) {
	query, err := s.store.GetQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	client, err := s.store.GetClient(ctx, query.ClientID)
	if err != nil {
		return nil, err
	}

	answer, err := s.engine.Ask(ctx, s.cfg.Model, query.Text)
	if err != nil {
		return nil, err
	}

	citations := make([]*db.Citation, 0, len(answer.Citations))
	owned := 0
	for i, rawURL := range answer.Citations {
		domain := domains.Normalize(rawURL)
		category, err := s.resolver.Resolve(ctx, domain, client.OwnedDomains)
		if err != nil {
			return nil, err
		}
		if category == domains.CategoryOwned {
			owned++
		}
		ometrics.CitationsCategorized.WithLabelValues(category.String()).Inc()
		citations = append(citations, &db.Citation{
			URL:      rawURL,
			Domain:   domain,
			Position: i + 1,
			Category: category,
		})
	}

	run := &db.Run{
		QueryID:            query.ID,
		RawResponse:        answer.Raw,
		AnswerText:         answer.Text,
		Model:              s.cfg.Model,
		EstimatedCost:      s.estimator.Estimate(s.cfg.Model, 1),
		CitationCount:      len(citations),
		OwnedCitationCount: owned,
	}
	if err := s.store.SaveRun(ctx, run, citations); err != nil {
		return nil, err
	}

	s.logger.Info("Query analyzed",
		zap.String("query_id", query.ID.String()),
		zap.String("run_id", run.ID.String()),
		zap.Int("citations", len(citations)),
		zap.Int("owned", owned),
	)
	return &Result{Run: run, Citations: citations}, nil
}

// AnalyzeBatch processes query ids strictly in order with a fixed delay
// between engine calls. A NotFound or upstream failure on one item becomes
// an error entry in the results; the rest of the batch still runs. The only
// way the batch stops early is caller context cancellation.
func (s *Service) AnalyzeBatch(ctx context.Context, queryIDs []uuid.UUID) (*BatchResult, error) {
	limiter := rate.NewLimiter(rate.Every(s.cfg.BatchDelay), 1)

	batch := &BatchResult{Results: make([]BatchItem, 0, len(queryIDs))}
	for _, id := range queryIDs {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		item := BatchItem{QueryID: id}
		result, err := s.AnalyzeQuery(ctx, id)
		if err != nil {
			item.Error = err.Error()
			item.ErrorKind = errorKind(err)
			ometrics.BatchItemsProcessed.WithLabelValues(item.ErrorKind).Inc()
			s.logger.Warn("Batch item failed",
				zap.String("query_id", id.String()),
				zap.String("kind", item.ErrorKind),
				zap.Error(err),
			)
		} else {
			item.Run = result.Run
			item.Citations = result.Citations
			batch.TotalCost += result.Run.EstimatedCost
			ometrics.BatchItemsProcessed.WithLabelValues("ok").Inc()
		}
		batch.Results = append(batch.Results, item)
	}
	return batch, nil
}

func errorKind(err error) string {
	switch {
	case apperrors.IsValidation(err):
		return "validation"
	case apperrors.IsNotFound(err):
		return "not_found"
	case apperrors.IsForbidden(err):
		return "forbidden"
	case apperrors.IsUpstream(err):
		return "upstream"
	default:
		return "storage"
	}
}
