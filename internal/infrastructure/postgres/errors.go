package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// mapErr translates driver errors into apperr kinds.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s (%s): %w", what, pgErr.ConstraintName, apperr.ErrConflict)
		case foreignKeyViolation:
			return fmt.Errorf("%s (%s): %w", what, pgErr.ConstraintName, apperr.ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

// validID reports whether id can be compared against a uuid column. Ids
// that cannot never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFound(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
}

func conflict(what string) error {
	return fmt.Errorf("%s: %w", what, apperr.ErrConflict)
}

// lockRow takes FOR UPDATE on one row of table. Outside a transaction the
// lock is released as soon as the statement ends.
func lockRow(ctx context.Context, db *DB, table, what, id string) error {
	if !validID(id) {
		return notFound(what, id)
	}
	var got string
	err := db.conn(ctx).QueryRow(ctx, `SELECT id FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&got)
	return mapErr(err, what+" "+id)
}

func deleteRow(ctx context.Context, db *DB, table, what, id string) error {
	if !validID(id) {
		return notFound(what, id)
	}
	res, err := db.conn(ctx).Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return mapErr(err, "delete "+what+" "+id)
	}
	if res.RowsAffected() == 0 {
		return notFound(what, id)
	}
	return nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			out = append(out, id)
		}
	}
	return out
}
