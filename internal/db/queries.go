package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/apperrors"
)

// CreateQuery attaches a new query to a client. The client must exist.
func (s *Store) CreateQuery(ctx context.Context, clientID uuid.UUID, text string) (*Query, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	query := &Query{
		ID:        uuid.New(),
		ClientID:  clientID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (id, client_id, text, created_at)
		VALUES ($1, $2, $3, $4)`,
		query.ID, query.ClientID, query.Text, query.CreatedAt,
	)
	if err != nil {
		return nil, apperrors.Storage("create query", err)
	}

	s.logger.Info("Query created",
		zap.String("query_id", query.ID.String()),
		zap.String("client_id", clientID.String()),
	)
	return query, nil
}

// GetQuery fetches a query by id.
func (s *Store) GetQuery(ctx context.Context, id uuid.UUID) (*Query, error) {
	var query Query
	err := s.db.GetContext(ctx, &query, `
		SELECT id, client_id, text, created_at
		FROM queries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "query", ID: id.String()}
	}
	if err != nil {
		return nil, apperrors.Storage("get query", err)
	}
	return &query, nil
}

// ListQueries returns a client's queries, newest first.
func (s *Store) ListQueries(ctx context.Context, clientID uuid.UUID) ([]Query, error) {
	if _, err := s.GetClient(ctx, clientID); err != nil {
		return nil, err
	}

	queries := make([]Query, 0)
	err := s.db.SelectContext(ctx, &queries, `
		SELECT id, client_id, text, created_at
		FROM queries WHERE client_id = $1
		ORDER BY created_at DESC`, clientID)
	if err != nil {
		return nil, apperrors.Storage("list queries", err)
	}
	return queries, nil
}

// DeleteQuery removes a query; its runs and citations cascade.
func (s *Store) DeleteQuery(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queries WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storage("delete query", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.NotFoundError{Resource: "query", ID: id.String()}
	}
	s.logger.Info("Query deleted", zap.String("query_id", id.String()))
	return nil
}
