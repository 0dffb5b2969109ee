package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/gocomet/bike-sharing/internal/domain/ride"
	"github.com/gocomet/bike-sharing/internal/service/pricing"
	"github.com/gocomet/bike-sharing/internal/storage/memory"
	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
	"github.com/gocomet/bike-sharing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ann  = "94031820982"
	bert = "01234567826"
)

var base = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newLedger() (*Service, *memory.RideRepo) {
	repo := memory.NewRideRepo()
	return NewService(repo, pricing.NewService(pricing.Config{}), logger.NewNop()), repo
}

func at(offset time.Duration) *time.Time {
	t := base.Add(offset)
	return &t
}

func price(v int64) *int64 { return &v }

func TestLedger_LookupsReturnNilWhenNothingMatches(t *testing.T) {
	ledger, _ := newLedger()
	ctx := context.Background()

	r, err := ledger.Find(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = ledger.FindEarliestRide(ctx, ann)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = ledger.FindActiveRideByMember(ctx, ann)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = ledger.FindActiveRideByBike(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestLedger_FindEarliestRide_OrdersByStartTime(t *testing.T) {
	ledger, repo := newLedger()
	ctx := context.Background()

	_, err := repo.Insert(ctx, &ride.Ride{MemberID: ann, BikeID: 1, StartTime: at(72 * time.Hour), EndTime: at(73 * time.Hour), Price: price(1)})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &ride.Ride{MemberID: ann, BikeID: 2, StartTime: at(0), EndTime: at(time.Hour), Price: price(1)})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &ride.Ride{MemberID: bert, BikeID: 3, StartTime: at(-48 * time.Hour)})
	require.NoError(t, err)

	earliest, err := ledger.FindEarliestRide(ctx, ann)
	require.NoError(t, err)
	require.NotNil(t, earliest)
	assert.Equal(t, int64(2), earliest.BikeID)
}

// The active lookups, the repository filter and ride.IsOpen must agree on
// every shape a stored ride can take.
func TestLedger_ActivePredicateIsConsistent(t *testing.T) {
	tests := []struct {
		name string
		ride ride.Ride
		open bool
	}{
		{name: "Started, not ended", ride: ride.Ride{StartTime: at(0)}, open: true},
		{name: "Started and ended", ride: ride.Ride{StartTime: at(0), EndTime: at(time.Hour), Price: price(1)}, open: false},
		{name: "Never started", ride: ride.Ride{}, open: false},
		{name: "Ended without start", ride: ride.Ride{EndTime: at(time.Hour)}, open: false},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, repo := newLedger()
			ctx := context.Background()

			stored := tt.ride
			stored.MemberID = ann
			stored.BikeID = int64(i + 1)
			_, err := repo.Insert(ctx, &stored)
			require.NoError(t, err)

			byMember, err := ledger.FindActiveRideByMember(ctx, ann)
			require.NoError(t, err)
			byBike, err := ledger.FindActiveRideByBike(ctx, stored.BikeID)
			require.NoError(t, err)
			listed, err := ledger.List(ctx, ride.Filter{OpenOnly: true})
			require.NoError(t, err)

			assert.Equal(t, tt.open, stored.IsOpen())
			assert.Equal(t, tt.open, byMember != nil)
			assert.Equal(t, tt.open, byBike != nil)
			assert.Equal(t, tt.open, len(listed) == 1)
		})
	}
}

func TestLedger_Record_MapsOpenRideConflicts(t *testing.T) {
	ledger, _ := newLedger()
	ctx := context.Background()

	id, err := ledger.Record(ctx, &ride.Ride{MemberID: ann, BikeID: 1, StartTime: at(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = ledger.Record(ctx, &ride.Ride{MemberID: ann, BikeID: 2, StartTime: at(time.Minute)})
	assert.ErrorIs(t, err, apperrors.ErrMemberHasActiveRide)

	_, err = ledger.Record(ctx, &ride.Ride{MemberID: bert, BikeID: 1, StartTime: at(time.Minute)})
	assert.ErrorIs(t, err, apperrors.ErrBikeInUse)
}

func TestLedger_Close_PersistsEndTimeAndPrice(t *testing.T) {
	ledger, _ := newLedger()
	ctx := context.Background()

	r := &ride.Ride{MemberID: ann, BikeID: 1, StartTime: at(0)}
	_, err := ledger.Record(ctx, r)
	require.NoError(t, err)

	closed, err := ledger.Close(ctx, r, base.Add(24*time.Hour+time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), *closed.Price)

	stored, err := ledger.Find(ctx, *r.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusClosed, stored.Status())
	assert.Equal(t, int64(2), *stored.Price)
	assert.True(t, closed.EndTime.Equal(*stored.EndTime))
	assert.Nil(t, r.EndTime, "the input ride is not modified")
}

func TestLedger_Close_UnknownRide(t *testing.T) {
	ledger, _ := newLedger()
	id := int64(99)

	_, err := ledger.Close(context.Background(), &ride.Ride{ID: &id, StartTime: at(0)}, base)
	assert.ErrorIs(t, err, apperrors.ErrRideNotFound)
}
