package postgres

import (
	"context"
	"fmt"

	"github.com/FranksOps/sift/internal/storage"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	niche TEXT NOT NULL,
	platform TEXT NOT NULL,
	audience TEXT NOT NULL,
	goal TEXT NOT NULL,
	failed BOOLEAN NOT NULL,
	error TEXT,
	elapsed_seconds DOUBLE PRECISION NOT NULL,
	research_count INTEGER NOT NULL,
	gaps_found INTEGER NOT NULL,
	result JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_niche_platform ON runs (niche, platform);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres archive: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres archive: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

// dollar renders $n placeholders for pgx.
var dollar = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// selectColumns mirrors storage.RunColumns with NULL errors folded to empty
// strings and the JSONB payload read back as text.
var selectColumns = []string{
	"id", "niche", "platform", "audience", "goal", "failed", "COALESCE(error, '')",
	"elapsed_seconds", "research_count", "gaps_found", "result::text", "created_at",
}

func (b *postgresBackend) Save(ctx context.Context, record *storage.RunRecord) error {
	query, args, err := storage.InsertRun(dollar, record, string(record.Payload())).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := b.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", record.ID, err)
	}

	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.RunRecord, error) {
	query, args, err := storage.SelectRuns(dollar, selectColumns, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var results []*storage.RunRecord
	for rows.Next() {
		var r storage.RunRecord
		var result string

		err := rows.Scan(
			&r.ID, &r.Niche, &r.Platform, &r.Audience, &r.Goal, &r.Failed, &r.Error,
			&r.ElapsedSeconds, &r.ResearchCount, &r.GapsFound, &result, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		r.Result = []byte(result)
		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
