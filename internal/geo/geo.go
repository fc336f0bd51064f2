package geo

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

var ErrUnknownOperator = errors.New("no location recorded for operator")

// Store keeps the last known position of each operator.
type Store interface {
	Upsert(ctx context.Context, loc models.OperatorLocation) error
	Current(ctx context.Context, operatorID string) (models.OperatorLocation, error)
}

// Index is the in-memory Store.
type Index struct {
	mu        sync.RWMutex
	operators map[string]models.OperatorLocation
}

func NewIndex() *Index {
	return &Index{operators: make(map[string]models.OperatorLocation)}
}

func (g *Index) Upsert(ctx context.Context, loc models.OperatorLocation) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if loc.Updated.IsZero() {
		loc.Updated = time.Now()
	}
	g.operators[loc.OperatorID] = loc
	return nil
}

func (g *Index) Current(ctx context.Context, operatorID string) (models.OperatorLocation, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.operators[operatorID]
	if !ok {
		return models.OperatorLocation{}, ErrUnknownOperator
	}
	return loc, nil
}

// Haversine distance in meters
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
