package patch

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// PgxExecer is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type PgxExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var pg = New(WithDialect(Dollar))

// ApplyPgx executes an UPDATE through a native pgx connection, using $n placeholders.
func ApplyPgx(ctx context.Context, conn PgxExecer, table string, m core.Model, where ...Cond) (int64, error) {
	return pg.ApplyPgx(ctx, conn, table, m, where...)
}

// ApplyPgx is Apply for pgx connections. The builder's placeholder style is
// used as configured; PostgreSQL requires Dollar.
func (b *Builder) ApplyPgx(ctx context.Context, conn PgxExecer, table string, m core.Model, where ...Cond) (int64, error) {
	stmt, ok := b.Update(table, m, where...)
	if !ok {
		return 0, nil
	}

	tag, err := conn.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	m.ResetMany(stmt.Properties...)
	return tag.RowsAffected(), nil
}
