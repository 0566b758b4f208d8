package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/citelens/citelens/internal/domains"
)

// Tag provenance values. System tags ship with the seed data and cannot be
// deleted; user tags can.
const (
	ProvenanceSystem = "system"
	ProvenanceUser   = "user"
)

// Client is a tracked customer with a list of owned domains. Citations whose
// domain equals or sits under an owned domain always classify as "owned".
type Client struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	OwnedDomains pq.StringArray `db:"owned_domains" json:"owned_domains"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Query is one tracked question belonging to a client.
type Query struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClientID  uuid.UUID `db:"client_id" json:"client_id"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Run is one executed query against the answer engine. Immutable after
// insert except for citation category updates applied through Citations.
// OwnedCitationCount is a creation-time snapshot; it is not re-synced when a
// later tag addition retags citations.
type Run struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	QueryID            uuid.UUID       `db:"query_id" json:"query_id"`
	RawResponse        json.RawMessage `db:"raw_response" json:"-"`
	AnswerText         string          `db:"answer_text" json:"answer_text"`
	Model              string          `db:"model" json:"model"`
	EstimatedCost      float64         `db:"estimated_cost" json:"estimated_cost"`
	CitationCount      int             `db:"citation_count" json:"citation_count"`
	OwnedCitationCount int             `db:"owned_citation_count" json:"owned_citation_count"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// Citation is one source URL the engine returned for a run. Position is the
// 1-based rank in the engine's citation order. Category is the only field
// mutated after creation, and only by retroactive recategorization.
type Citation struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	RunID     uuid.UUID        `db:"run_id" json:"run_id"`
	URL       string           `db:"url" json:"url"`
	Domain    string           `db:"domain" json:"domain"`
	Position  int              `db:"position" json:"position"`
	Category  domains.Category `db:"category" json:"category"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// DomainTag is a standing domain-to-category classification rule, keyed by
// normalized domain.
type DomainTag struct {
	ID         uuid.UUID        `db:"id" json:"id"`
	Domain     string           `db:"domain" json:"domain"`
	Category   domains.Category `db:"category" json:"category"`
	Provenance string           `db:"provenance" json:"provenance"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// CategoryCount is one row of a per-category citation breakdown.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int    `db:"count" json:"count"`
}

// DomainCount is one row of a most-cited-domains ranking.
type DomainCount struct {
	Domain string `db:"domain" json:"domain"`
	Count  int    `db:"count" json:"count"`
}

// ClientStats aggregates a client's full run history.
type ClientStats struct {
	TotalRuns           int             `json:"total_runs"`
	TotalCitations      int             `json:"total_citations"`
	TotalOwnedCitations int             `json:"total_owned_citations"`
	TotalCost           float64         `json:"total_cost"`
	AvgCitationsPerRun  float64         `json:"avg_citations_per_run"`
	CategoryBreakdown   []CategoryCount `json:"category_breakdown"`
	TopDomains          []DomainCount   `json:"top_domains"`
	Runs                []Run           `json:"runs"`
}
