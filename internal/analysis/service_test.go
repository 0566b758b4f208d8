package analysis

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/citelens/citelens/internal/db"
	"github.com/citelens/citelens/internal/domains"
	"github.com/citelens/citelens/internal/engine"
	"github.com/citelens/citelens/internal/pricing"
)

type stubEngine struct {
	answer *engine.Answer
	err    error
	calls  int
}

func (s *stubEngine) Ask(_ context.Context, _, _ string) (*engine.Answer, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.answer, nil
}

func newTestService(t *testing.T, eng Engine) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	store := db.NewStore(sqlx.NewDb(mockDB, "sqlmock"), zaptest.NewLogger(t))
	estimator := pricing.NewEstimator(pricing.Table{
		"sonar": {InputPerMillion: 1.00, OutputPerMillion: 1.00},
	})
	svc := NewService(store, eng, estimator, Config{
		Model:      "sonar",
		BatchDelay: time.Millisecond,
	}, zaptest.NewLogger(t))
	return svc, mock
}

func expectQueryLookup(mock sqlmock.Sqlmock, queryID, clientID uuid.UUID) {
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, client_id, text, created_at FROM queries WHERE id = $1`,
	)).WithArgs(queryID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "text", "created_at"}).
			AddRow(queryID, clientID, "what happened to bitcoin?", time.Now()))
}

func expectClientLookup(mock sqlmock.Sqlmock, clientID uuid.UUID, ownedDomains string) {
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT id, name, owned_domains, created_at, updated_at FROM clients WHERE id = $1`,
	)).WithArgs(clientID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "owned_domains", "created_at", "updated_at"}).
			AddRow(clientID, "Acme", ownedDomains, time.Now(), time.Now()))
}

func TestAnalyzeQueryCategorizesAndRecords(t *testing.T) {
	eng := &stubEngine{answer: &engine.Answer{
		Text:      "Bitcoin rallied.",
		Citations: []string{"https://www.coindesk.com/a", "https://sub.owned.com/x"},
		Raw:       []byte(`{"choices":[]}`),
	}}
	svc, mock := newTestService(t, eng)

	queryID := uuid.New()
	clientID := uuid.New()

	expectQueryLookup(mock, queryID, clientID)
	expectClientLookup(mock, clientID, "{owned.com}")

	// coindesk.com is not owned, so it goes to the tag store; sub.owned.com
	// matches the owned list and never reaches it.
	mock.ExpectQuery("SELECT category FROM domain_tags").
		WithArgs("coindesk.com").
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("news"))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO runs").
		WillReturnResult(sqlmock.NewResult(0, 1))
	stmt := mock.ExpectPrepare("INSERT INTO citations")
	stmt.ExpectExec().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "https://www.coindesk.com/a", "coindesk.com", 1, domains.CategoryNews, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	stmt.ExpectExec().
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "https://sub.owned.com/x", "sub.owned.com", 2, domains.CategoryOwned, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.AnalyzeQuery(context.Background(), queryID)
	require.NoError(t, err)

	require.Len(t, result.Citations, 2)
	assert.Equal(t, "coindesk.com", result.Citations[0].Domain)
	assert.Equal(t, domains.CategoryNews, result.Citations[0].Category)
	assert.Equal(t, 1, result.Citations[0].Position)
	assert.Equal(t, "sub.owned.com", result.Citations[1].Domain)
	assert.Equal(t, domains.CategoryOwned, result.Citations[1].Category)
	assert.Equal(t, 2, result.Citations[1].Position)

	assert.Equal(t, 2, result.Run.CitationCount)
	assert.Equal(t, 1, result.Run.OwnedCitationCount)
	assert.InDelta(t, 0.0007, result.Run.EstimatedCost, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeQueryMissingQuery(t *testing.T) {
	svc, mock := newTestService(t, &stubEngine{})
	queryID := uuid.New()

	mock.ExpectQuery("SELECT id, client_id, text, created_at FROM queries").
		WithArgs(queryID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "text", "created_at"}))

	_, err := svc.AnalyzeQuery(context.Background(), queryID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAnalyzeBatchCapturesPerItemFailures(t *testing.T) {
	eng := &stubEngine{answer: &engine.Answer{
		Text:      "answer",
		Citations: []string{"https://www.coindesk.com/a"},
		Raw:       []byte(`{}`),
	}}
	svc, mock := newTestService(t, eng)

	clientID := uuid.New()
	id1, id2, id3 := uuid.New(), uuid.New(), uuid.New()

	expectSuccess := func(queryID uuid.UUID) {
		expectQueryLookup(mock, queryID, clientID)
		expectClientLookup(mock, clientID, "{}")
		mock.ExpectQuery("SELECT category FROM domain_tags").
			WithArgs("coindesk.com").
			WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("news"))
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO runs").
			WillReturnResult(sqlmock.NewResult(0, 1))
		stmt := mock.ExpectPrepare("INSERT INTO citations")
		stmt.ExpectExec().
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	expectSuccess(id1)
	// Second id does not exist: lookup returns no rows, nothing is written.
	mock.ExpectQuery("SELECT id, client_id, text, created_at FROM queries").
		WithArgs(id2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "text", "created_at"}))
	expectSuccess(id3)

	batch, err := svc.AnalyzeBatch(context.Background(), []uuid.UUID{id1, id2, id3})
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.NotNil(t, batch.Results[0].Run)
	assert.Empty(t, batch.Results[0].Error)

	assert.Nil(t, batch.Results[1].Run)
	assert.Equal(t, "not_found", batch.Results[1].ErrorKind)
	assert.Contains(t, batch.Results[1].Error, "not found")

	assert.NotNil(t, batch.Results[2].Run)

	assert.InDelta(t, 0.0014, batch.TotalCost, 1e-9)
	assert.Equal(t, 2, eng.calls, "failed lookup must not reach the engine")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyzeBatchSequentialDelay(t *testing.T) {
	eng := &stubEngine{answer: &engine.Answer{Citations: nil, Raw: []byte(`{}`)}}
	svc, mock := newTestService(t, eng)
	svc.cfg.BatchDelay = 30 * time.Millisecond

	clientID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		expectQueryLookup(mock, id, clientID)
		expectClientLookup(mock, clientID, "{}")
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO runs").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	start := time.Now()
	batch, err := svc.AnalyzeBatch(context.Background(), ids)
	require.NoError(t, err)
	elapsed := time.Since(start)

	require.Len(t, batch.Results, 3)
	// First call is immediate; two inter-item delays remain.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestAnalyzeBatchStopsOnContextCancel(t *testing.T) {
	svc, _ := newTestService(t, &stubEngine{})
	svc.cfg.BatchDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AnalyzeBatch(ctx, []uuid.UUID{uuid.New(), uuid.New()})
	require.Error(t, err)
}
