package db

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/citelens/citelens/internal/apperrors"
)

// ClientStats aggregates the full run history for a client. Citation totals
// and the category breakdown reflect current citation categories, so they
// move when retroactive recategorization rewrites old rows; per-run
// owned_citation_count snapshots do not.
func (s *Store) ClientStats(ctx context.Context, clientID uuid.UUID) (*ClientStats, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	stats := &ClientStats{
		CategoryBreakdown: make([]CategoryCount, 0),
		TopDomains:        make([]DomainCount, 0),
		Runs:              make([]Run, 0),
	}

	var runTotals struct {
		TotalRuns int     `db:"total_runs"`
		TotalCost float64 `db:"total_cost"`
	}
	err := s.db.GetContext(ctx, &runTotals, `
		SELECT COUNT(*) AS total_runs,
		       COALESCE(SUM(r.estimated_cost), 0) AS total_cost
		FROM runs r
		JOIN queries q ON r.query_id = q.id
		WHERE q.client_id = $1`, clientID)
	if err != nil {
		return nil, apperrors.Storage("client run totals", err)
	}
	stats.TotalRuns = runTotals.TotalRuns
	stats.TotalCost = runTotals.TotalCost

	var citationTotals struct {
		Total int `db:"total"`
		Owned int `db:"owned"`
	}
	err = s.db.GetContext(ctx, &citationTotals, `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE c.category = 'owned') AS owned
		FROM citations c
		JOIN runs r ON c.run_id = r.id
		JOIN queries q ON r.query_id = q.id
		WHERE q.client_id = $1`, clientID)
	if err != nil {
		return nil, apperrors.Storage("client citation totals", err)
	}
	stats.TotalCitations = citationTotals.Total
	stats.TotalOwnedCitations = citationTotals.Owned

	if stats.TotalRuns > 0 {
		avg := float64(stats.TotalCitations) / float64(stats.TotalRuns)
		stats.AvgCitationsPerRun = math.Round(avg*100) / 100
	}

	err = s.db.SelectContext(ctx, &stats.CategoryBreakdown, `
		SELECT c.category, COUNT(*) AS count
		FROM citations c
		JOIN runs r ON c.run_id = r.id
		JOIN queries q ON r.query_id = q.id
		WHERE q.client_id = $1
		GROUP BY c.category
		ORDER BY count DESC, c.category ASC`, clientID)
	if err != nil {
		return nil, apperrors.Storage("client category breakdown", err)
	}

	err = s.db.SelectContext(ctx, &stats.TopDomains, `
		SELECT c.domain, COUNT(*) AS count
		FROM citations c
		JOIN runs r ON c.run_id = r.id
		JOIN queries q ON r.query_id = q.id
		WHERE q.client_id = $1
		GROUP BY c.domain
		ORDER BY count DESC, c.domain ASC
		LIMIT 15`, clientID)
	if err != nil {
		return nil, apperrors.Storage("client top domains", err)
	}

	err = s.db.SelectContext(ctx, &stats.Runs, `
		SELECT r.id, r.query_id, r.raw_response, r.answer_text, r.model,
		       r.estimated_cost, r.citation_count, r.owned_citation_count, r.created_at
		FROM runs r
		JOIN queries q ON r.query_id = q.id
		WHERE q.client_id = $1
		ORDER BY r.created_at DESC`, clientID)
	if err != nil {
		return nil, apperrors.Storage("client run history", err)
	}

	return stats, nil
}
