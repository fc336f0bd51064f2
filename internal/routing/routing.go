package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/example/ride-booking-bot/internal/models"
)

// ErrNoRoute is returned when the provider found no path between the points.
var ErrNoRoute = errors.New("no route found")

// Router computes a single driving leg.
type Router interface {
	Route(ctx context.Context, from, to models.Coord) (models.Leg, error)
}

// Error marks a routing provider failure.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string { return fmt.Sprintf("routing (%s): %v", e.Provider, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

func wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	var rerr *Error
	if errors.As(err, &rerr) {
		return err
	}
	return &Error{Provider: provider, Err: err}
}

// Plan routes operator -> origin and origin -> destination and sums both legs.
func Plan(ctx context.Context, r Router, operator, origin, destination models.Coord) (models.Route, error) {
	pickup, err := r.Route(ctx, operator, origin)
	if err != nil {
		return models.Route{}, wrap("plan", err)
	}
	ride, err := r.Route(ctx, origin, destination)
	if err != nil {
		return models.Route{}, wrap("plan", err)
	}
	return models.Route{
		DriverToClient:      pickup,
		ClientToDestination: ride,
		TotalDistanceKm:     roundKm(pickup.DistanceKm + ride.DistanceKm),
		TotalDurationMin:    pickup.DurationMin + ride.DurationMin,
	}, nil
}

func roundKm(v float64) float64 {
	return math.Round(v*100) / 100
}

func leg(meters, seconds float64) models.Leg {
	return models.Leg{DistanceKm: roundKm(meters / 1000), DurationMin: int(math.Round(seconds / 60))}
}
