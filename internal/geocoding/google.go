package geocoding

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/example/ride-booking-bot/internal/models"
)

// GoogleGeocoder uses the Google Maps geocoding API.
type GoogleGeocoder struct {
	client   *maps.Client
	language string
	limit    int
}

// NewGoogleGeocoder builds a client for apiKey; extra options such as
// maps.WithBaseURL are applied after the key.
func NewGoogleGeocoder(apiKey, language string, limit int, opts ...maps.ClientOption) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return &GoogleGeocoder{client: client, language: language, limit: limit}, nil
}

func (g *GoogleGeocoder) Forward(ctx context.Context, query string) ([]models.Candidate, error) {
	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: query, Language: g.language})
	if err != nil {
		return nil, wrap("google", err)
	}
	return g.candidates(resp)
}

func (g *GoogleGeocoder) Reverse(ctx context.Context, c models.Coord) ([]models.Candidate, error) {
	resp, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: c.Lat, Lng: c.Lon},
		Language: g.language,
	})
	if err != nil {
		return nil, wrap("google", err)
	}
	return g.candidates(resp)
}

func (g *GoogleGeocoder) candidates(resp []maps.GeocodingResult) ([]models.Candidate, error) {
	if len(resp) == 0 {
		return nil, wrap("google", ErrNoCandidates)
	}
	if g.limit > 0 && len(resp) > g.limit {
		resp = resp[:g.limit]
	}
	out := make([]models.Candidate, 0, len(resp))
	for _, r := range resp {
		out = append(out, models.Candidate{
			Coords:           models.Coord{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
			FormattedAddress: r.FormattedAddress,
		})
	}
	return out, nil
}
