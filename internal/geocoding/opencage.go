package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

const openCageEndpoint = "https://api.opencagedata.com/geocode/v1/json"

// OpenCageClient talks to the OpenCage geocoding HTTP API.
type OpenCageClient struct {
	Endpoint string
	APIKey   string
	Language string
	Limit    int
	Client   *http.Client
}

func NewOpenCageClient(apiKey, language string, limit int) *OpenCageClient {
	return &OpenCageClient{
		Endpoint: openCageEndpoint,
		APIKey:   apiKey,
		Language: language,
		Limit:    limit,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type openCageResponse struct {
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Results []struct {
		Confidence *int   `json:"confidence"`
		Formatted  string `json:"formatted"`
		Geometry   struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

func (o *OpenCageClient) Forward(ctx context.Context, query string) ([]models.Candidate, error) {
	return o.lookup(ctx, query)
}

func (o *OpenCageClient) Reverse(ctx context.Context, c models.Coord) ([]models.Candidate, error) {
	return o.lookup(ctx, fmt.Sprintf("%.6f+%.6f", c.Lat, c.Lon))
}

func (o *OpenCageClient) lookup(ctx context.Context, q string) ([]models.Candidate, error) {
	if o.APIKey == "" {
		return nil, wrap("opencage", fmt.Errorf("OPENCAGE_API_KEY not configured"))
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("key", o.APIKey)
	if o.Language != "" {
		params.Set("language", o.Language)
	}
	if o.Limit > 0 {
		params.Set("limit", strconv.Itoa(o.Limit))
	}
	params.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, wrap("opencage", err)
	}
	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, wrap("opencage", err)
	}
	defer resp.Body.Close()

	var out openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, wrap("opencage", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, wrap("opencage", fmt.Errorf("status %d: %s", resp.StatusCode, out.Status.Message))
	}
	if len(out.Results) == 0 {
		return nil, wrap("opencage", ErrNoCandidates)
	}
	cands := make([]models.Candidate, 0, len(out.Results))
	for _, r := range out.Results {
		cands = append(cands, models.Candidate{
			Coords:           models.Coord{Lat: r.Geometry.Lat, Lon: r.Geometry.Lng},
			FormattedAddress: r.Formatted,
			Confidence:       r.Confidence,
		})
	}
	return cands, nil
}
