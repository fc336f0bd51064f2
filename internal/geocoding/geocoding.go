package geocoding

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/ride-booking-bot/internal/models"
)

// ErrNoCandidates is returned when a provider answered but found nothing.
var ErrNoCandidates = errors.New("no geocoding candidates")

// Geocoder resolves addresses. Candidates come back in provider rank order.
type Geocoder interface {
	Forward(ctx context.Context, query string) ([]models.Candidate, error)
	Reverse(ctx context.Context, c models.Coord) ([]models.Candidate, error)
}

// NetworkLocation is the approximate position of a network address.
type NetworkLocation struct {
	Coords  models.Coord
	City    string
	Region  string
	Country string
}

// NetworkLocator resolves an IP address to an approximate location.
// An empty address means the caller's own public address.
type NetworkLocator interface {
	LocateByNetworkAddress(ctx context.Context, addr string) (*NetworkLocation, error)
}

// Error marks a provider failure so callers can tell geocoding apart
// from other collaborator failures.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string { return fmt.Sprintf("geocoding (%s): %v", e.Provider, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

func wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: provider, Err: err}
}
