package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/apperrors"
	ometrics "github.com/citelens/citelens/internal/metrics"
)

// SaveRun persists a run and its citations as a single transaction. The
// citation list is stored fully or not at all. Positions must already be the
// 1-based rank in input order; the recorder does not re-sort.
func (s *Store) SaveRun(ctx context.Context, run *Run, citations []*Citation) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	for i, c := range citations {
		if c.Position != i+1 {
			return fmt.Errorf("citation position %d at index %d, want %d", c.Position, i, i+1)
		}
	}

	err := s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, query_id, raw_response, answer_text, model,
				estimated_cost, citation_count, owned_citation_count, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			run.ID, run.QueryID, []byte(run.RawResponse), run.AnswerText, run.Model,
			run.EstimatedCost, run.CitationCount, run.OwnedCitationCount, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		if len(citations) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO citations (id, run_id, url, domain, position, category, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range citations {
			if c.ID == uuid.Nil {
				c.ID = uuid.New()
			}
			c.RunID = run.ID
			if c.CreatedAt.IsZero() {
				c.CreatedAt = run.CreatedAt
			}
			if _, err := stmt.ExecContext(ctx,
				c.ID, c.RunID, c.URL, c.Domain, c.Position, c.Category, c.CreatedAt,
			); err != nil {
				return fmt.Errorf("failed to insert citation %d: %w", c.Position, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Storage("save run", err)
	}

	ometrics.RunsRecorded.Inc()
	ometrics.EstimatedCostUSD.Observe(run.EstimatedCost)
	s.logger.Debug("Run recorded",
		zap.String("run_id", run.ID.String()),
		zap.String("query_id", run.QueryID.String()),
		zap.Int("citations", len(citations)),
	)
	return nil
}

// ListRuns returns a query's runs, newest first.
func (s *Store) ListRuns(ctx context.Context, queryID uuid.UUID) ([]Run, error) {
	if _, err := s.GetQuery(ctx, queryID); err != nil {
		return nil, err
	}

	runs := make([]Run, 0)
	err := s.db.SelectContext(ctx, &runs, `
		SELECT id, query_id, raw_response, answer_text, model,
		       estimated_cost, citation_count, owned_citation_count, created_at
		FROM runs WHERE query_id = $1
		ORDER BY created_at DESC`, queryID)
	if err != nil {
		return nil, apperrors.Storage("list runs", err)
	}
	return runs, nil
}

// ListCitations returns a run's citations in position order.
func (s *Store) ListCitations(ctx context.Context, runID uuid.UUID) ([]Citation, error) {
	citations := make([]Citation, 0)
	err := s.db.SelectContext(ctx, &citations, `
		SELECT id, run_id, url, domain, position, category, created_at
		FROM citations WHERE run_id = $1
		ORDER BY position ASC`, runID)
	if err != nil {
		return nil, apperrors.Storage("list citations", err)
	}
	if len(citations) == 0 {
		// Distinguish an empty citation list from a missing run.
		var exists bool
		if err := s.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM runs WHERE id = $1)`, runID); err != nil {
			return nil, apperrors.Storage("check run", err)
		}
		if !exists {
			return nil, &apperrors.NotFoundError{Resource: "run", ID: runID.String()}
		}
	}
	return citations, nil
}
