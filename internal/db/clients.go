package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/apperrors"
)

// normalizeOwnedDomains lowercases and www-strips each entry, dropping
// blanks, preserving order.
func normalizeOwnedDomains(owned []string) pq.StringArray {
	out := make(pq.StringArray, 0, len(owned))
	for _, d := range owned {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "www.")
		if d == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// CreateClient inserts a new client with a normalized owned-domain list.
func (s *Store) CreateClient(ctx context.Context, name string, ownedDomains []string) (*Client, error) {
	client := &Client{
		ID:           uuid.New(),
		Name:         name,
		OwnedDomains: normalizeOwnedDomains(ownedDomains),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (id, name, owned_domains, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		client.ID, client.Name, client.OwnedDomains, client.CreatedAt, client.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.Storage("create client", err)
	}

	s.logger.Info("Client created",
		zap.String("client_id", client.ID.String()),
		zap.String("name", client.Name),
	)
	return client, nil
}

// GetClient fetches a client by id.
func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	var client Client
	err := s.db.GetContext(ctx, &client, `
		SELECT id, name, owned_domains, created_at, updated_at
		FROM clients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "client", ID: id.String()}
	}
	if err != nil {
		return nil, apperrors.Storage("get client", err)
	}
	return &client, nil
}

// ListClients returns all clients, newest first.
func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	clients := make([]Client, 0)
	err := s.db.SelectContext(ctx, &clients, `
		SELECT id, name, owned_domains, created_at, updated_at
		FROM clients ORDER BY created_at DESC`)
	if err != nil {
		return nil, apperrors.Storage("list clients", err)
	}
	return clients, nil
}

// UpdateClient replaces a client's name and owned-domain list. Past
// citations are not recategorized; only domain-tag mutation is retroactive.
func (s *Store) UpdateClient(ctx context.Context, id uuid.UUID, name string, ownedDomains []string) (*Client, error) {
	owned := normalizeOwnedDomains(ownedDomains)
	var client Client
	err := s.db.GetContext(ctx, &client, `
		UPDATE clients
		SET name = $2, owned_domains = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, owned_domains, created_at, updated_at`,
		id, name, owned,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &apperrors.NotFoundError{Resource: "client", ID: id.String()}
	}
	if err != nil {
		return nil, apperrors.Storage("update client", err)
	}
	return &client, nil
}

// DeleteClient removes a client; queries, runs and citations cascade.
func (s *Store) DeleteClient(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return apperrors.Storage("delete client", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &apperrors.NotFoundError{Resource: "client", ID: id.String()}
	}
	s.logger.Info("Client deleted", zap.String("client_id", id.String()))
	return nil
}

// OwnedDomainsFor returns the owned-domain list used by the category
// resolver for a given query's client.
func (s *Store) OwnedDomainsFor(ctx context.Context, clientID uuid.UUID) ([]string, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return client.OwnedDomains, nil
}
