package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/warranty-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveEvaluation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO evaluations`).
		WithArgs(pgxmock.AnyArg(), "toaster", "skip", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	eval := model.Evaluation{
		Inputs:     model.ProductInputs{Name: "toaster", Cost: 40, WarrantyCost: 15},
		Assessment: model.Assessment{ExpectedLoss: 2, NetCost: 13, Verdict: model.VerdictSkip},
	}
	saved, err := s.SaveEvaluation(context.Background(), eval)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEvaluation_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT payload FROM evaluations WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetEvaluation(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetEvaluation(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	eval := model.Evaluation{
		ID:         "eval-1",
		Inputs:     model.ProductInputs{Name: "laptop", Cost: 1200, WarrantyCost: 200},
		Assessment: model.Assessment{ExpectedLoss: 240, NetCost: -40, Verdict: model.VerdictBuy},
	}
	payload, err := json.Marshal(eval)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM evaluations WHERE id = \$1`).
		WithArgs("eval-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	got, err := s.GetEvaluation(context.Background(), "eval-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "laptop", got.Inputs.Name)
	assert.Equal(t, model.VerdictBuy, got.Assessment.Verdict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEvaluations_VerdictFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	eval := model.Evaluation{
		ID:         "eval-2",
		Inputs:     model.ProductInputs{Name: "toaster"},
		Assessment: model.Assessment{Verdict: model.VerdictBuy},
	}
	payload, err := json.Marshal(eval)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT payload FROM evaluations WHERE 1=1 AND verdict = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("buy", 100).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

	evals, err := s.ListEvaluations(context.Background(), EvaluationFilter{Verdict: model.VerdictBuy})
	require.NoError(t, err)
	require.Len(t, evals, 1)
	assert.Equal(t, "eval-2", evals[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS evaluations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
