// Package contracttest holds behaviour every repository implementation must share.
package contracttest

import (
	"context"
	"testing"
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/bike"
	"github.com/gocomet/bike-sharing/internal/domain/member"
	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type CleanupFunc = func()

type MemberRepoFactory func(t *testing.T) (member.Repository, CleanupFunc)
type BikeRepoFactory func(t *testing.T) (bike.Repository, CleanupFunc)
type RideRepoFactory func(t *testing.T) (ride.Repository, CleanupFunc)

func RunMemberRepo(t *testing.T, newRepo MemberRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	ann := &member.Member{NationalID: "94031820982", FirstName: "Ann", LastName: "Peeters", Email: "ann@example.com", StartDate: start}
	bert := &member.Member{NationalID: "01234567826", FirstName: "Bert", LastName: "Claes", Email: "bert@example.com", StartDate: start}

	require.NoError(t, repo.Insert(ctx, ann))
	require.NoError(t, repo.Insert(ctx, bert))
	assert.ErrorIs(t, repo.Insert(ctx, ann), member.ErrDuplicate)

	got, err := repo.FindByID(ctx, ann.NationalID)
	require.NoError(t, err)
	assert.Equal(t, ann, got)

	_, err = repo.FindByID(ctx, "00000000097")
	assert.ErrorIs(t, err, member.ErrNotFound)

	email := "ann.peeters@example.com"
	end := start.AddDate(0, 6, 0)
	require.NoError(t, repo.Update(ctx, ann.NationalID, member.Changes{Email: &email, EndDate: &end}))
	got, err = repo.FindByID(ctx, ann.NationalID)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)
	assert.Equal(t, "Ann", got.FirstName, "untouched columns keep their value")
	require.NotNil(t, got.EndDate)
	assert.True(t, end.Equal(*got.EndDate))

	assert.ErrorIs(t, repo.Update(ctx, "00000000097", member.Changes{Email: &email}), member.ErrNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Claes", all[0].LastName)
	assert.Equal(t, "Peeters", all[1].LastName)

	// mutating a returned value must not leak into the store
	all[0].FirstName = "changed"
	again, err := repo.FindByID(ctx, bert.NationalID)
	require.NoError(t, err)
	assert.Equal(t, "Bert", again.FirstName)
}

func RunBikeRepo(t *testing.T, newRepo BikeRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	first, err := repo.Insert(ctx, &bike.Bike{Condition: bike.ConditionActive, Location: "Kortrijk"})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, &bike.Bike{Condition: bike.ConditionActive, Location: "Brugge", Note: "new saddle"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, err := repo.FindByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, &bike.Bike{ID: second, Condition: bike.ConditionActive, Location: "Brugge", Note: "new saddle"}, got)

	repair := bike.ConditionRepair
	note := "flat tyre"
	require.NoError(t, repo.Update(ctx, first, bike.Changes{Condition: &repair, Note: &note}))

	active, err := repo.List(ctx, bike.Filter{Condition: bike.ConditionActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second, active[0].ID)

	all, err := repo.List(ctx, bike.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0].ID)
	assert.Equal(t, "flat tyre", all[0].Note)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, bike.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, 9999, bike.Changes{Note: &note}), bike.ErrNotFound)
}

func RunRideRepo(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	t1 := t0.Add(2 * time.Hour)
	const ann, bert = "94031820982", "01234567826"

	open := func(memberID string, bikeID int64, at time.Time) *ride.Ride {
		return &ride.Ride{MemberID: memberID, BikeID: bikeID, StartTime: &at}
	}

	later, err := repo.Insert(ctx, open(ann, 1, t1))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, open(ann, 2, t1))
	assert.ErrorIs(t, err, ride.ErrMemberOnRide)
	_, err = repo.Insert(ctx, open(bert, 1, t1))
	assert.ErrorIs(t, err, ride.ErrBikeOnRide)

	end := t1.Add(time.Hour)
	price := int64(1)
	require.NoError(t, repo.Update(ctx, later, ride.Changes{EndTime: &end, Price: &price}))

	earlier, err := repo.Insert(ctx, open(ann, 2, t0))
	require.NoError(t, err, "member is free again once the ride is closed")

	got, err := repo.FindByID(ctx, later)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.True(t, end.Equal(*got.EndTime))
	assert.Equal(t, int64(1), *got.Price)
	assert.Equal(t, ride.StatusClosed, got.Status())

	byMember, err := repo.List(ctx, ride.Filter{MemberID: ann})
	require.NoError(t, err)
	require.Len(t, byMember, 2)
	assert.Equal(t, earlier, *byMember[0].ID, "ordered by start time")

	first, err := repo.List(ctx, ride.Filter{MemberID: ann, Limit: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, earlier, *first[0].ID)

	openByMember, err := repo.List(ctx, ride.Filter{MemberID: ann, OpenOnly: true})
	require.NoError(t, err)
	openByBike, err := repo.List(ctx, ride.Filter{BikeID: 2, OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, openByMember, 1)
	require.Len(t, openByBike, 1)
	assert.Equal(t, *openByMember[0].ID, *openByBike[0].ID, "member and bike views of the open ride agree")

	none, err := repo.List(ctx, ride.Filter{MemberID: bert, OpenOnly: true})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, ride.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, 9999, ride.Changes{EndTime: &end}), ride.ErrNotFound)
}
