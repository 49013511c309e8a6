package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/edupay/internal/db"
	"github.com/yigit/edupay/internal/pkg/dberrors"
	"github.com/yigit/edupay/internal/pkg/logger"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Gateway on a pgx connection pool.
type Postgres struct {
	database    *db.PostgresDB
	q           querier
	inTx        bool
	callTimeout time.Duration
	sb          squirrel.StatementBuilderType
}

// NewPostgres creates a gateway; every call is bounded by callTimeout when positive.
func NewPostgres(database *db.PostgresDB, callTimeout time.Duration) *Postgres {
	return &Postgres{
		database:    database,
		q:           database.Pool,
		callTimeout: callTimeout,
		sb:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.callTimeout <= 0 || p.inTx {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.callTimeout)
}

// SelectAll returns every row of table in insertion order.
func (p *Postgres) SelectAll(ctx context.Context, table Table) ([]Record, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	sql, args, err := p.sb.Select("*").
		From(string(table)).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", string(table)).Msg("Error building select SQL")
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("table", string(table)).Msg("Error executing select query")
		return nil, &OpError{Op: "select", Table: table, Err: err}
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		logger.Error().Err(err).Str("table", string(table)).Msg("Error scanning rows")
		return nil, &OpError{Op: "select", Table: table, Err: err}
	}

	records := make([]Record, 0, len(maps))
	for _, m := range maps {
		records = append(records, Record(m))
	}
	return records, nil
}

// Insert writes rec and returns the stored row. A missing id is generated.
func (p *Postgres) Insert(ctx context.Context, table Table, rec Record) (Record, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rec = rec.Clone()
	if rec == nil {
		rec = Record{}
	}
	if id, _ := rec["id"].(string); id == "" {
		rec["id"] = uuid.NewString()
	}

	columns := sortedKeys(rec)
	values := make([]any, 0, len(columns))
	for _, c := range columns {
		values = append(values, rec[c])
	}

	sql, args, err := p.sb.Insert(string(table)).
		Columns(columns...).
		Values(values...).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", string(table)).Msg("Error building insert SQL")
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, p.writeError("insert", table, err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		return nil, p.writeError("insert", table, err)
	}
	return Record(row), nil
}

// Update sets values on every row matching match.
func (p *Postgres) Update(ctx context.Context, table Table, match Record, values Record) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if len(match) == 0 {
		return 0, fmt.Errorf("update %s: empty match", table)
	}
	if len(values) == 0 {
		return 0, nil
	}

	sql, args, err := p.sb.Update(string(table)).
		SetMap(map[string]any(values)).
		Where(squirrel.Eq(match)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", string(table)).Msg("Error building update SQL")
		return 0, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, p.writeError("update", table, err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes every row matching match.
func (p *Postgres) Delete(ctx context.Context, table Table, match Record) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if len(match) == 0 {
		return 0, fmt.Errorf("delete %s: empty match", table)
	}

	sql, args, err := p.sb.Delete(string(table)).
		Where(squirrel.Eq(match)).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("table", string(table)).Msg("Error building delete SQL")
		return 0, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := p.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, p.writeError("delete", table, err)
	}
	return tag.RowsAffected(), nil
}

// NextSequence advances the named database sequence.
func (p *Postgres) NextSequence(ctx context.Context, name string) (int64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := p.q.QueryRow(ctx, "SELECT nextval($1::regclass)", name).Scan(&n); err != nil {
		logger.Error().Err(err).Str("sequence", name).Msg("Error advancing sequence")
		return 0, &OpError{Op: "nextval " + name, Err: err}
	}
	return n, nil
}

// WithTx runs fn inside one database transaction. Nested calls join the outer one.
func (p *Postgres) WithTx(ctx context.Context, fn func(tx Gateway) error) error {
	if p.inTx {
		return fn(p)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(&Postgres{
			database:    p.database,
			q:           tx,
			inTx:        true,
			callTimeout: p.callTimeout,
			sb:          p.sb,
		})
	})
}

func (p *Postgres) writeError(op string, table Table, err error) error {
	if constraint, ok := dberrors.UniqueViolationConstraint(err); ok {
		return &UniqueViolationError{Table: table, Constraint: constraint, Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		logger.Error().Err(err).Str("table", string(table)).Str("code", pgErr.Code).Msgf("Error executing %s query", op)
	} else {
		logger.Error().Err(err).Str("table", string(table)).Msgf("Error executing %s query", op)
	}
	return &OpError{Op: op, Table: table, Err: err}
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
