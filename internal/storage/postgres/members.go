package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/gocomet/bike-sharing/internal/domain/member"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/jmoiron/sqlx"
)

type memberRow struct {
	NationalID string         `db:"national_id"`
	FirstName  string         `db:"first_name"`
	LastName   string         `db:"last_name"`
	Email      string         `db:"email"`
	StartDate  time.Time      `db:"start_date"`
	EndDate    sql.NullTime   `db:"end_date"`
	Note       sql.NullString `db:"note"`
}

var memberColumns = []interface{}{"national_id", "first_name", "last_name", "email", "start_date", "end_date", "note"}

func (r memberRow) toDomain() *member.Member {
	m := &member.Member{
		NationalID: r.NationalID,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		StartDate:  r.StartDate.UTC(),
		Note:       r.Note.String,
	}
	if r.EndDate.Valid {
		end := r.EndDate.Time.UTC()
		m.EndDate = &end
	}
	return m
}

// MemberRepo is a member.Repository backed by the members table
type MemberRepo struct {
	db *sqlx.DB
}

func NewMemberRepo(db *sqlx.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) Insert(ctx context.Context, m *member.Member) error {
	query, args, err := dialect.Insert(tableMembers).Prepared(true).Rows(goqu.Record{
		"national_id": m.NationalID,
		"first_name":  m.FirstName,
		"last_name":   m.LastName,
		"email":       m.Email,
		"start_date":  m.StartDate,
		"end_date":    nullableTime(m.EndDate),
		"note":        nullableString(m.Note),
	}).ToSQL()
	if err != nil {
		return apperrors.Storage("members.insert", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintMembersPK {
			return member.ErrDuplicate
		}
		return apperrors.Storage("members.insert", err)
	}
	return nil
}

func (r *MemberRepo) Update(ctx context.Context, nationalID string, changes member.Changes) error {
	record := goqu.Record{}
	if changes.FirstName != nil {
		record["first_name"] = *changes.FirstName
	}
	if changes.LastName != nil {
		record["last_name"] = *changes.LastName
	}
	if changes.Email != nil {
		record["email"] = *changes.Email
	}
	if changes.Note != nil {
		record["note"] = nullableString(*changes.Note)
	}
	if changes.StartDate != nil {
		record["start_date"] = *changes.StartDate
	}
	if changes.EndDate != nil {
		record["end_date"] = *changes.EndDate
	}
	if len(record) == 0 {
		return nil
	}

	query, args, err := dialect.Update(tableMembers).Prepared(true).
		Set(record).
		Where(goqu.C("national_id").Eq(nationalID)).
		ToSQL()
	if err != nil {
		return apperrors.Storage("members.update", err)
	}
	return execOne(ctx, r.db, "members.update", member.ErrNotFound, query, args)
}

func (r *MemberRepo) FindByID(ctx context.Context, nationalID string) (*member.Member, error) {
	query, args, err := dialect.From(tableMembers).Prepared(true).
		Select(memberColumns...).
		Where(goqu.C("national_id").Eq(nationalID)).
		ToSQL()
	if err != nil {
		return nil, apperrors.Storage("members.find", err)
	}

	var row memberRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, apperrors.Storage("members.find", err)
	}
	return row.toDomain(), nil
}

func (r *MemberRepo) List(ctx context.Context) ([]*member.Member, error) {
	query, args, err := dialect.From(tableMembers).Prepared(true).
		Select(memberColumns...).
		Order(goqu.C("last_name").Asc(), goqu.C("first_name").Asc(), goqu.C("national_id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.Storage("members.list", err)
	}

	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperrors.Storage("members.list", err)
	}
	out := make([]*member.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
