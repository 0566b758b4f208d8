package db

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/citelens/citelens/internal/domains"
)

const schema = `
CREATE TABLE IF NOT EXISTS clients (
    id             UUID PRIMARY KEY,
    name           TEXT NOT NULL,
    owned_domains  TEXT[] NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS queries (
    id          UUID PRIMARY KEY,
    client_id   UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
    text        TEXT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS runs (
    id                    UUID PRIMARY KEY,
    query_id              UUID NOT NULL REFERENCES queries(id) ON DELETE CASCADE,
    raw_response          JSONB,
    answer_text           TEXT NOT NULL DEFAULT '',
    model                 TEXT NOT NULL DEFAULT '',
    estimated_cost        DOUBLE PRECISION NOT NULL DEFAULT 0,
    citation_count        INTEGER NOT NULL DEFAULT 0,
    owned_citation_count  INTEGER NOT NULL DEFAULT 0,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS citations (
    id          UUID PRIMARY KEY,
    run_id      UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    url         TEXT NOT NULL,
    domain      TEXT NOT NULL,
    position    INTEGER NOT NULL,
    category    TEXT NOT NULL DEFAULT 'unknown',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (run_id, position)
);

CREATE TABLE IF NOT EXISTS domain_tags (
    id          UUID PRIMARY KEY,
    domain      TEXT NOT NULL UNIQUE,
    category    TEXT NOT NULL,
    provenance  TEXT NOT NULL DEFAULT 'user',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_queries_client ON queries(client_id);
CREATE INDEX IF NOT EXISTS idx_runs_query ON runs(query_id);
CREATE INDEX IF NOT EXISTS idx_citations_run ON citations(run_id);
CREATE INDEX IF NOT EXISTS idx_citations_domain ON citations(domain);
CREATE INDEX IF NOT EXISTS idx_citations_category ON citations(category);
`

// SeedTag is one system classification rule loaded at startup.
type SeedTag struct {
	Domain   string           `yaml:"domain"`
	Category domains.Category `yaml:"category"`
}

// DefaultSeedTags is the built-in system tag set, used when no tags file is
// configured.
func DefaultSeedTags() []SeedTag {
	return []SeedTag{
		{"coindesk.com", domains.CategoryNews},
		{"cointelegraph.com", domains.CategoryNews},
		{"theblock.co", domains.CategoryNews},
		{"decrypt.co", domains.CategoryNews},
		{"reuters.com", domains.CategoryNews},
		{"bloomberg.com", domains.CategoryNews},
		{"forbes.com", domains.CategoryNews},
		{"binance.com", domains.CategoryExchange},
		{"coinbase.com", domains.CategoryExchange},
		{"kraken.com", domains.CategoryExchange},
		{"okx.com", domains.CategoryExchange},
		{"bybit.com", domains.CategoryExchange},
		{"youtube.com", domains.CategoryVideo},
		{"vimeo.com", domains.CategoryVideo},
		{"twitter.com", domains.CategorySocial},
		{"x.com", domains.CategorySocial},
		{"reddit.com", domains.CategorySocial},
		{"linkedin.com", domains.CategorySocial},
		{"facebook.com", domains.CategorySocial},
		{"github.com", domains.CategoryDeveloper},
		{"stackoverflow.com", domains.CategoryDeveloper},
		{"docs.rs", domains.CategoryDeveloper},
		{"wikipedia.org", domains.CategoryReference},
		{"investopedia.com", domains.CategoryReference},
		{"coinmarketcap.com", domains.CategoryAggregator},
		{"coingecko.com", domains.CategoryAggregator},
		{"medium.com", domains.CategoryBlog},
		{"substack.com", domains.CategoryBlog},
	}
}

// LoadSeedTags reads a yaml file of the form:
//
//	tags:
//	  - domain: coindesk.com
//	    category: news
func LoadSeedTags(path string) ([]SeedTag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tags file: %w", err)
	}
	var doc struct {
		Tags []SeedTag `yaml:"tags"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tags file %s: %w", path, err)
	}
	return doc.Tags, nil
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	s.logger.Info("Database schema ensured")
	return nil
}

// SeedSystemTags inserts the system tag set, skipping domains that already
// have a tag. Safe to run on every startup.
func (s *Store) SeedSystemTags(ctx context.Context, tags []SeedTag) error {
	if len(tags) == 0 {
		tags = DefaultSeedTags()
	}

	inserted := 0
	for _, tag := range tags {
		domain := domains.Normalize(tag.Domain)
		if domain == "" || !tag.Category.Valid() {
			continue
		}
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO domain_tags (id, domain, category, provenance, created_at)
			VALUES (gen_random_uuid(), $1, $2, $3, NOW())
			ON CONFLICT (domain) DO NOTHING`,
			domain, tag.Category, ProvenanceSystem,
		)
		if err != nil {
			return fmt.Errorf("failed to seed tag %s: %w", domain, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	s.logger.Info("System tags seeded",
		zap.Int("total", len(tags)),
		zap.Int("inserted", inserted),
	)
	return nil
}
