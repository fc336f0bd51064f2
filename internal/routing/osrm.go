package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

// OSRMClient performs route lookups against an OSRM HTTP server.
type OSRMClient struct {
	Endpoint string
	Client   *http.Client
}

func NewOSRMClient(endpoint string) *OSRMClient {
	return &OSRMClient{Endpoint: endpoint, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (o *OSRMClient) Route(ctx context.Context, from, to models.Coord) (models.Leg, error) {
	// OSRM route query: /route/v1/driving/{lon1},{lat1};{lon2},{lat2}?overview=false
	url := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=false", o.Endpoint, from.Lon, from.Lat, to.Lon, to.Lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Leg{}, wrap("osrm", err)
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return models.Leg{}, wrap("osrm", err)
	}
	defer resp.Body.Close()
	var out struct {
		Routes []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"routes"`
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Leg{}, wrap("osrm", err)
	}
	if out.Code != "Ok" || len(out.Routes) == 0 {
		return models.Leg{}, wrap("osrm", fmt.Errorf("%w: %v", ErrNoRoute, out.Code))
	}
	return leg(out.Routes[0].Distance, out.Routes[0].Duration), nil
}
