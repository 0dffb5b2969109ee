package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/jmoiron/sqlx"
)

type rideRow struct {
	ID        int64         `db:"id"`
	MemberID  string        `db:"member_id"`
	BikeID    int64         `db:"bike_id"`
	StartTime sql.NullTime  `db:"start_time"`
	EndTime   sql.NullTime  `db:"end_time"`
	Price     sql.NullInt64 `db:"price"`
}

var rideColumns = []interface{}{"id", "member_id", "bike_id", "start_time", "end_time", "price"}

func (r rideRow) toDomain() *ride.Ride {
	id := r.ID
	out := &ride.Ride{ID: &id, MemberID: r.MemberID, BikeID: r.BikeID}
	if r.StartTime.Valid {
		st := r.StartTime.Time.UTC()
		out.StartTime = &st
	}
	if r.EndTime.Valid {
		et := r.EndTime.Time.UTC()
		out.EndTime = &et
	}
	if r.Price.Valid {
		p := r.Price.Int64
		out.Price = &p
	}
	return out
}

// RideRepo is a ride.Repository backed by the rides table
type RideRepo struct {
	db *sqlx.DB
}

func NewRideRepo(db *sqlx.DB) *RideRepo {
	return &RideRepo{db: db}
}

func (r *RideRepo) Insert(ctx context.Context, rd *ride.Ride) (int64, error) {
	query, args, err := dialect.Insert(tableRides).Prepared(true).Rows(goqu.Record{
		"member_id":  rd.MemberID,
		"bike_id":    rd.BikeID,
		"start_time": nullableTime(rd.StartTime),
		"end_time":   nullableTime(rd.EndTime),
		"price":      nullableInt(rd.Price),
	}).Returning("id").ToSQL()
	if err != nil {
		return 0, apperrors.Storage("rides.insert", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		switch constraint, _ := uniqueViolation(err); constraint {
		case constraintOpenRidePerUser:
			return 0, ride.ErrMemberOnRide
		case constraintOpenRidePerBike:
			return 0, ride.ErrBikeOnRide
		}
		return 0, apperrors.Storage("rides.insert", err)
	}
	return id, nil
}

func (r *RideRepo) Update(ctx context.Context, id int64, changes ride.Changes) error {
	record := goqu.Record{}
	if changes.EndTime != nil {
		record["end_time"] = *changes.EndTime
	}
	if changes.Price != nil {
		record["price"] = *changes.Price
	}
	if len(record) == 0 {
		return nil
	}

	query, args, err := dialect.Update(tableRides).Prepared(true).
		Set(record).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.Storage("rides.update", err)
	}
	return execOne(ctx, r.db, "rides.update", ride.ErrNotFound, query, args)
}

func (r *RideRepo) FindByID(ctx context.Context, id int64) (*ride.Ride, error) {
	query, args, err := dialect.From(tableRides).Prepared(true).
		Select(rideColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, apperrors.Storage("rides.find", err)
	}

	var row rideRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ride.ErrNotFound
		}
		return nil, apperrors.Storage("rides.find", err)
	}
	return row.toDomain(), nil
}

func (r *RideRepo) List(ctx context.Context, filter ride.Filter) ([]*ride.Ride, error) {
	var where []exp.Expression
	if filter.MemberID != "" {
		where = append(where, goqu.C("member_id").Eq(filter.MemberID))
	}
	if filter.BikeID != 0 {
		where = append(where, goqu.C("bike_id").Eq(filter.BikeID))
	}
	if filter.OpenOnly {
		where = append(where, openRide())
	}

	ds := dialect.From(tableRides).Prepared(true).
		Select(rideColumns...).
		Order(goqu.C("start_time").Asc().NullsLast(), goqu.C("id").Asc())
	if len(where) > 0 {
		ds = ds.Where(where...)
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.Storage("rides.list", err)
	}

	var rows []rideRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.Storage("rides.list", err)
	}
	out := make([]*ride.Ride, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
