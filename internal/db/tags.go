package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/apperrors"
	"github.com/citelens/citelens/internal/domains"
	ometrics "github.com/citelens/citelens/internal/metrics"
)

// LookupTag resolves a normalized domain to its tagged category. Implements
// domains.TagLookup.
func (s *Store) LookupTag(ctx context.Context, domain string) (domains.Category, bool, error) {
	var category domains.Category
	err := s.db.GetContext(ctx, &category,
		`SELECT category FROM domain_tags WHERE domain = $1`, domain)
	if errors.Is(err, sql.ErrNoRows) {
		return domains.CategoryUnknown, false, nil
	}
	if err != nil {
		return domains.CategoryUnknown, false, apperrors.Storage("lookup tag", err)
	}
	return category, true, nil
}

// ListTags returns all domain tags ordered by domain.
func (s *Store) ListTags(ctx context.Context) ([]DomainTag, error) {
	tags := make([]DomainTag, 0)
	err := s.db.SelectContext(ctx, &tags, `
		SELECT id, domain, category, provenance, created_at
		FROM domain_tags ORDER BY domain ASC`)
	if err != nil {
		return nil, apperrors.Storage("list tags", err)
	}
	return tags, nil
}

// UpsertTag inserts or updates the tag for a domain and, in the same
// transaction, rewrites every stored citation still categorized "unknown"
// whose domain equals the tagged domain or is a subdomain of it. Citations
// already carrying an explicit category are never touched. Returns the tag
// and the number of citations retagged; running the same upsert again
// retags zero rows.
func (s *Store) UpsertTag(ctx context.Context, domain string, category domains.Category, provenance string) (*DomainTag, int64, error) {
	normalized := domains.Normalize(domain)
	if normalized == "" {
		return nil, 0, &apperrors.ValidationError{Field: "domain"}
	}
	if !category.Valid() {
		return nil, 0, &apperrors.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)}
	}
	if provenance != ProvenanceSystem && provenance != ProvenanceUser {
		provenance = ProvenanceUser
	}

	var tag DomainTag
	var retagged int64

	err := s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &tag, `
			INSERT INTO domain_tags (id, domain, category, provenance, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (domain) DO UPDATE SET
				category = EXCLUDED.category,
				provenance = EXCLUDED.provenance
			RETURNING id, domain, category, provenance, created_at`,
			uuid.New(), normalized, category, provenance,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert tag: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE citations
			SET category = $1
			WHERE category = 'unknown'
			  AND (domain = $2 OR domain LIKE '%.' || $2)`,
			category, normalized,
		)
		if err != nil {
			return fmt.Errorf("failed to recategorize citations: %w", err)
		}
		retagged, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count recategorized citations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, 0, apperrors.Storage("upsert tag", err)
	}

	ometrics.TagUpserts.Inc()
	ometrics.CitationsRetagged.Add(float64(retagged))
	s.logger.Info("Domain tag upserted",
		zap.String("domain", normalized),
		zap.String("category", category.String()),
		zap.Int64("retagged", retagged),
	)
	return &tag, retagged, nil
}

// DeleteTag removes a user tag. System tags cannot be deleted.
func (s *Store) DeleteTag(ctx context.Context, id uuid.UUID) error {
	var provenance string
	err := s.db.GetContext(ctx, &provenance,
		`SELECT provenance FROM domain_tags WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return &apperrors.NotFoundError{Resource: "tag", ID: id.String()}
	}
	if err != nil {
		return apperrors.Storage("get tag", err)
	}
	if provenance == ProvenanceSystem {
		return &apperrors.ForbiddenError{Reason: "system tags cannot be deleted"}
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM domain_tags WHERE id = $1`, id); err != nil {
		return apperrors.Storage("delete tag", err)
	}
	s.logger.Info("Domain tag deleted", zap.String("tag_id", id.String()))
	return nil
}
