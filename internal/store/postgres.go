package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/warranty-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock implements it,
// which keeps the Postgres store unit-testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS evaluations (
	id         TEXT PRIMARY KEY,
	product    TEXT NOT NULL,
	verdict    TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_evaluations_product ON evaluations(product);
CREATE INDEX IF NOT EXISTS idx_evaluations_verdict ON evaluations(verdict);
CREATE INDEX IF NOT EXISTS idx_evaluations_created_at ON evaluations(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveEvaluation(ctx context.Context, eval model.Evaluation) (*model.Evaluation, error) {
	eval.ID = uuid.New().String()
	eval.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(eval)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal evaluation")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO evaluations (id, product, verdict, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		eval.ID, eval.Inputs.Name, string(eval.Assessment.Verdict), payload, eval.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert evaluation")
	}
	return &eval, nil
}

func (s *PostgresStore) GetEvaluation(ctx context.Context, id string) (*model.Evaluation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT payload FROM evaluations WHERE id = $1`, id,
	)

	var payload []byte
	err := row.Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get evaluation %s", id)
	}

	var eval model.Evaluation
	if err := json.Unmarshal(payload, &eval); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal evaluation")
	}
	return &eval, nil
}

func (s *PostgresStore) ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]model.Evaluation, error) {
	query := `SELECT payload FROM evaluations WHERE 1=1`
	var args []any

	if filter.Verdict != "" {
		args = append(args, string(filter.Verdict))
		query += ` AND verdict = $` + strconv.Itoa(len(args))
	}
	if filter.Product != "" {
		args = append(args, filter.Product)
		query += ` AND product = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list evaluations")
	}
	defer rows.Close()

	var evals []model.Evaluation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan evaluation")
		}
		var eval model.Evaluation
		if err := json.Unmarshal(payload, &eval); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evaluation")
		}
		evals = append(evals, eval)
	}
	return evals, eris.Wrap(rows.Err(), "postgres: list evaluations iterate")
}
