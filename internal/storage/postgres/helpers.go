package postgres

import (
	"context"
	"time"

	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/jmoiron/sqlx"
)

// execOne runs an update that must touch exactly one row
func execOne(ctx context.Context, db *sqlx.DB, op string, notFound error, query string, args []interface{}) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.Storage(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage(op, err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
