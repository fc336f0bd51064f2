package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

// IPAPIClient resolves network addresses through ipapi.co.
type IPAPIClient struct {
	Endpoint string
	Client   *http.Client
}

func NewIPAPIClient() *IPAPIClient {
	return &IPAPIClient{Endpoint: "https://ipapi.co", Client: &http.Client{Timeout: 5 * time.Second}}
}

func (c *IPAPIClient) LocateByNetworkAddress(ctx context.Context, addr string) (*NetworkLocation, error) {
	u := c.Endpoint + "/json/"
	if addr != "" {
		u = fmt.Sprintf("%s/%s/json/", c.Endpoint, addr)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, wrap("ipapi", err)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, wrap("ipapi", err)
	}
	defer resp.Body.Close()
	var out struct {
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		City        string   `json:"city"`
		Region      string   `json:"region"`
		CountryName string   `json:"country_name"`
		Error       bool     `json:"error"`
		Reason      string   `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, wrap("ipapi", err)
	}
	if out.Error || out.Latitude == nil || out.Longitude == nil {
		return nil, wrap("ipapi", fmt.Errorf("no location for %q: %s", addr, out.Reason))
	}
	return &NetworkLocation{
		Coords:  models.Coord{Lat: *out.Latitude, Lon: *out.Longitude},
		City:    out.City,
		Region:  out.Region,
		Country: out.CountryName,
	}, nil
}
