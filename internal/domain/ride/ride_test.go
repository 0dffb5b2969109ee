package ride

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrInt(v int64) *int64          { return &v }

func TestRide_IsOpen(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ride Ride
		open bool
	}{
		{name: "Started and not ended", ride: Ride{StartTime: ptrTime(start)}, open: true},
		{name: "Closed", ride: Ride{StartTime: ptrTime(start), EndTime: ptrTime(start.Add(time.Hour)), Price: ptrInt(1)}, open: false},
		{name: "Never started", ride: Ride{}, open: false},
		{name: "End without start", ride: Ride{EndTime: ptrTime(start)}, open: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, tt.ride.IsOpen())
			assert.Equal(t, tt.open, Filter{OpenOnly: true}.Matches(&tt.ride))
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := &Ride{MemberID: "94031820982", BikeID: 4, StartTime: ptrTime(start)}

	assert.True(t, Filter{}.Matches(r))
	assert.True(t, Filter{MemberID: "94031820982", BikeID: 4, OpenOnly: true}.Matches(r))
	assert.False(t, Filter{MemberID: "01234567826"}.Matches(r))
	assert.False(t, Filter{BikeID: 5}.Matches(r))
}

func TestLess(t *testing.T) {
	early := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	a := &Ride{ID: ptrInt(2), StartTime: ptrTime(early)}
	b := &Ride{ID: ptrInt(1), StartTime: ptrTime(late)}
	c := &Ride{ID: ptrInt(3), StartTime: ptrTime(early)}
	unstarted := &Ride{ID: ptrInt(0)}

	assert.True(t, Less(a, b))
	assert.True(t, Less(a, c), "same start falls back to id")
	assert.True(t, Less(b, unstarted))
	assert.False(t, Less(unstarted, a))
}

func TestRide_CloneIsDeep(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	r := &Ride{ID: ptrInt(1), StartTime: ptrTime(start), Price: ptrInt(2)}

	c := r.Clone()
	*c.Price = 9
	*c.ID = 7

	assert.Equal(t, int64(2), *r.Price)
	assert.Equal(t, int64(1), *r.ID)
	assert.Equal(t, StatusOpen, r.Status())
}
