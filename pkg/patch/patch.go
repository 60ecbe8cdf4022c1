// Package patch builds partial UPDATE statements from a model's change set.
//
// Only changed properties are written. After a successful Apply the applied
// properties are reset on the model, so a second Apply is a no-op until the
// model changes again.
package patch

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Placeholder is the bind parameter style of the target database.
type Placeholder int

const (
	// Question uses ? for every parameter (SQLite, MySQL, DuckDB).
	Question Placeholder = iota
	// Dollar uses $1, $2, ... (PostgreSQL).
	Dollar
)

// Format returns the placeholder of the 1-based parameter index.
func (p Placeholder) Format(index int) string {
	switch p {
	case Dollar:
		return "$" + strconv.Itoa(index)
	default:
		return "?"
	}
}

// Cond is an equality predicate of the WHERE clause.
type Cond struct {
	Column string
	Value  any
}

// Eq returns the predicate column = value.
func Eq(column string, value any) Cond {
	return Cond{Column: column, Value: value}
}

// Statement is a built UPDATE.
type Statement struct {
	SQL  string
	Args []any
	// Properties lists the model properties written, in SET order.
	Properties []string
}

// Execer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type ordered interface {
	ChangedNames() []string
}

// Builder builds statements for one database flavor.
type Builder struct {
	placeholder Placeholder
	column      func(property string) string
}

// Option configures a Builder.
type Option func(*Builder)

// WithDialect sets the placeholder style.
func WithDialect(p Placeholder) Option {
	return func(b *Builder) {
		b.placeholder = p
	}
}

// WithColumns maps property names to column names. Defaults to identity.
func WithColumns(fn func(property string) string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.column = fn
		}
	}
}

// New creates a builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		placeholder: Question,
		column:      func(p string) string { return p },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var std = New()

// Update builds an UPDATE with the default builder.
func Update(table string, m core.Model, where ...Cond) (Statement, bool) {
	return std.Update(table, m, where...)
}

// Apply executes an UPDATE with the default builder.
func Apply(ctx context.Context, db Execer, table string, m core.Model, where ...Cond) (int64, error) {
	return std.Apply(ctx, db, table, m, where...)
}

// Update builds UPDATE <table> SET ... WHERE ... from the changed properties
// of m. It returns false when m has no changes.
func (b *Builder) Update(table string, m core.Model, where ...Cond) (Statement, bool) {
	changes := m.GetChanges()
	if len(changes) == 0 {
		return Statement{}, false
	}

	var names []string
	if o, ok := m.(ordered); ok {
		names = o.ChangedNames()
	} else {
		names = make([]string, 0, len(changes))
		for name := range changes {
			names = append(names, name)
		}
		slices.Sort(names)
	}

	var sb strings.Builder
	args := make([]any, 0, len(names)+len(where))

	sb.WriteString("UPDATE ")
	sb.WriteString(quoteQualified(table))
	sb.WriteString(" SET ")
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		args = append(args, changes[name])
		fmt.Fprintf(&sb, "%s = %s", quote(b.column(name)), b.placeholder.Format(len(args)))
	}
	for i, c := range where {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		args = append(args, c.Value)
		fmt.Fprintf(&sb, "%s = %s", quote(c.Column), b.placeholder.Format(len(args)))
	}

	return Statement{SQL: sb.String(), Args: args, Properties: names}, true
}

// Apply executes the UPDATE built from m and, on success, resets the
// written properties. It returns the number of affected rows; a model with no
// changes executes nothing.
func (b *Builder) Apply(ctx context.Context, db Execer, table string, m core.Model, where ...Cond) (int64, error) {
	stmt, ok := b.Update(table, m, where...)
	if !ok {
		return 0, nil
	}

	res, err := db.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", table, err)
	}
	m.ResetMany(stmt.Properties...)

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// quote quotes an identifier with double quotes, doubling embedded quotes.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quote(p)
	}
	return strings.Join(parts, ".")
}
