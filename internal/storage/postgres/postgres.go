// Package postgres implements the repositories on PostgreSQL. Queries are
// built with goqu and executed through sqlx on the lib/pq driver.
package postgres

import (
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
)

const (
	tableMembers = "members"
	tableBikes   = "bikes"
	tableRides   = "rides"

	constraintMembersPK       = "members_pkey"
	constraintOpenRidePerUser = "rides_one_open_per_member"
	constraintOpenRidePerBike = "rides_one_open_per_bike"

	codeUniqueViolation = "23505"
)

var dialect = goqu.Dialect("postgres")

// openRide is the one SQL rendition of an open ride. It must stay in line
// with ride.Ride.IsOpen and the partial unique indexes in the schema.
func openRide() exp.Expression {
	return goqu.And(
		goqu.C("start_time").IsNotNull(),
		goqu.C("end_time").IsNull(),
	)
}

// uniqueViolation returns the name of the violated unique constraint, if any
func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
