package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

const orsEndpoint = "https://api.openrouteservice.org/v2/directions/driving-car"

// ORSClient queries the OpenRouteService directions API.
type ORSClient struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewORSClient(apiKey string) *ORSClient {
	return &ORSClient{Endpoint: orsEndpoint, APIKey: apiKey, Client: &http.Client{Timeout: 5 * time.Second}}
}

func (o *ORSClient) Route(ctx context.Context, from, to models.Coord) (models.Leg, error) {
	body, err := json.Marshal(map[string]any{
		"coordinates": [][2]float64{{from.Lon, from.Lat}, {to.Lon, to.Lat}},
	})
	if err != nil {
		return models.Leg{}, wrap("ors", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint, bytes.NewReader(body))
	if err != nil {
		return models.Leg{}, wrap("ors", err)
	}
	req.Header.Set("Authorization", o.APIKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := o.Client.Do(req)
	if err != nil {
		return models.Leg{}, wrap("ors", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.Leg{}, wrap("ors", fmt.Errorf("status %d", resp.StatusCode))
	}
	var out struct {
		Routes []struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"routes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Leg{}, wrap("ors", err)
	}
	if len(out.Routes) == 0 {
		return models.Leg{}, wrap("ors", ErrNoRoute)
	}
	s := out.Routes[0].Summary
	return leg(s.Distance, s.Duration), nil
}
