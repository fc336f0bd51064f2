package routing

import (
	"context"

	"github.com/example/ride-booking-bot/internal/geo"
	"github.com/example/ride-booking-bot/internal/models"
)

// StraightLine estimates a leg from great-circle distance. Used when no
// routing engine is configured.
type StraightLine struct {
	SpeedKmh float64
	// Detour inflates the straight distance to approximate streets; 0 means 1.
	Detour float64
}

func (s StraightLine) Route(ctx context.Context, from, to models.Coord) (models.Leg, error) {
	speed := s.SpeedKmh
	if speed <= 0 {
		speed = 30 // city average
	}
	detour := s.Detour
	if detour <= 0 {
		detour = 1
	}
	meters := geo.Haversine(from.Lat, from.Lon, to.Lat, to.Lon) * detour
	seconds := meters / (speed * 1000 / 3600)
	return leg(meters, seconds), nil
}
