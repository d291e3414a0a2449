package persistent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

const (
	DriverPostgres = "pg"
	DriverSqlite   = "sqlite"
)

type Options struct {
	Driver string
	// Postgres dsn or sqlite file path.
	Dsn string
	// Log every query.
	Verbose bool
}

func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	var db *bun.DB
	var err error
	switch opts.Driver {
	case DriverPostgres:
		db, err = PgOpen(ctx, opts.Dsn)
	case DriverSqlite:
		db, err = SqliteOpen(ctx, opts.Dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

func PgOpen(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func SqliteOpen(ctx context.Context, path string) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every connection to :memory: is a separate database
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

var models = []interface{}{
	(*User)(nil),
	(*Profile)(nil),
	(*ActivityLog)(nil),
}

// CreateSchema creates missing tables and indexes.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create table %T: %w", model, err)
		}
	}
	_, err := db.NewCreateIndex().
		Model((*ActivityLog)(nil)).
		Index("activity_log_user_id_idx").
		IfNotExists().
		Column("user_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create activity log index: %w", err)
	}
	return nil
}

// DropSchema drops every table created by CreateSchema.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(models) - 1; i >= 0; i-- {
		_, err := db.NewDropTable().
			Model(models[i]).
			IfExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("drop table %T: %w", models[i], err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err was caused by a unique constraint.
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
