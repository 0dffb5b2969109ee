package rental

import (
	"context"

	"github.com/gocomet/bike-sharing/internal/domain/ride"
)

// Observer is told about rides after they are stored. Observers must not
// block for long and cannot fail the operation that triggered them.
type Observer interface {
	RideOpened(ctx context.Context, r *ride.Ride)
	RideClosed(ctx context.Context, r *ride.Ride)
}

type fanout []Observer

// Fanout returns an Observer that forwards to every non-nil observer in order
func Fanout(observers ...Observer) Observer {
	out := make(fanout, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (f fanout) RideOpened(ctx context.Context, r *ride.Ride) {
	for _, o := range f {
		o.RideOpened(ctx, r)
	}
}

func (f fanout) RideClosed(ctx context.Context, r *ride.Ride) {
	for _, o := range f {
		o.RideClosed(ctx, r)
	}
}
