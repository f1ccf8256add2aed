// Package sqlxrepos implements the core repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
)

// orderBy builds an ORDER BY clause from the orderings whose field is in allowed, or returns fallback.
func orderBy(ordering []core.DBOrdering, allowed []string, fallback string) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if core.ContainsString(allowed, ord.Field) {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(append(clauses, fallback), ", ")
}

// trapNoRows maps the "no rows" error to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// inTx runs fn in a transaction, rolled back if fn fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// selectIn runs a query holding an IN (?) clause, expanded with args.
func selectIn(ctx context.Context, db sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	q, params, err := sqlx.In(query, args...)
	if err != nil {
		return errors.Wrap(err, "expanding query")
	}
	return sqlx.SelectContext(ctx, db, dest, db.Rebind(q), params...)
}
