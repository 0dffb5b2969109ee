package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/gocomet/bike-sharing/internal/domain/bike"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/jmoiron/sqlx"
)

type bikeRow struct {
	ID        int64          `db:"id"`
	Condition string         `db:"condition"`
	Location  string         `db:"location"`
	Note      sql.NullString `db:"note"`
}

var bikeColumns = []interface{}{"id", "condition", "location", "note"}

func (r bikeRow) toDomain() *bike.Bike {
	return &bike.Bike{
		ID:        r.ID,
		Condition: bike.Condition(r.Condition),
		Location:  r.Location,
		Note:      r.Note.String,
	}
}

// BikeRepo is a bike.Repository backed by the bikes table
type BikeRepo struct {
	db *sqlx.DB
}

func NewBikeRepo(db *sqlx.DB) *BikeRepo {
	return &BikeRepo{db: db}
}

func (r *BikeRepo) Insert(ctx context.Context, b *bike.Bike) (int64, error) {
	query, args, err := dialect.Insert(tableBikes).Prepared(true).Rows(goqu.Record{
		"condition": string(b.Condition),
		"location":  b.Location,
		"note":      nullableString(b.Note),
	}).Returning("id").ToSQL()
	if err != nil {
		return 0, apperrors.Storage("bikes.insert", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, apperrors.Storage("bikes.insert", err)
	}
	return id, nil
}

func (r *BikeRepo) Update(ctx context.Context, id int64, changes bike.Changes) error {
	record := goqu.Record{}
	if changes.Condition != nil {
		record["condition"] = string(*changes.Condition)
	}
	if changes.Note != nil {
		record["note"] = nullableString(*changes.Note)
	}
	if len(record) == 0 {
		return nil
	}

	query, args, err := dialect.Update(tableBikes).Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.Storage("bikes.update", err)
	}
	return execOne(ctx, r.db, "bikes.update", bike.ErrNotFound, query, args)
}

func (r *BikeRepo) FindByID(ctx context.Context, id int64) (*bike.Bike, error) {
	query, args, err := dialect.From(tableBikes).Prepared(true).
		Select(bikeColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.Storage("bikes.find", err)
	}

	var row bikeRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bike.ErrNotFound
		}
		return nil, apperrors.Storage("bikes.find", err)
	}
	return row.toDomain(), nil
}

func (r *BikeRepo) List(ctx context.Context, filter bike.Filter) ([]*bike.Bike, error) {
	ds := dialect.From(tableBikes).Prepared(true).
		Select(bikeColumns...).
		Order(goqu.C("id").Asc())
	if filter.Condition != "" {
		ds = ds.Where(goqu.C("condition").Eq(string(filter.Condition)))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.Storage("bikes.list", err)
	}

	var rows []bikeRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.Storage("bikes.list", err)
	}
	out := make([]*bike.Bike, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
