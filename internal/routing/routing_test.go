package routing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

type countingRouter struct {
	calls int
	leg   models.Leg
	err   error
}

func (c *countingRouter) Route(ctx context.Context, from, to models.Coord) (models.Leg, error) {
	c.calls++
	return c.leg, c.err
}

func TestOSRMRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":12340,"duration":930}]}`))
	}))
	defer srv.Close()

	got, err := NewOSRMClient(srv.URL).Route(context.Background(), models.Coord{}, models.Coord{Lat: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DistanceKm != 12.34 || got.DurationMin != 16 {
		t.Fatalf("unexpected leg %+v", got)
	}
}

func TestOSRMNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL).Route(context.Background(), models.Coord{}, models.Coord{})
	var rerr *Error
	if !errors.As(err, &rerr) || !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected routing ErrNoRoute, got %v", err)
	}
}

func TestORSRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %v", r.Method, r.Header)
		}
		w.Write([]byte(`{"routes":[{"summary":{"distance":5000,"duration":600}}]}`))
	}))
	defer srv.Close()

	c := NewORSClient("key")
	c.Endpoint = srv.URL
	got, err := c.Route(context.Background(), models.Coord{}, models.Coord{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DistanceKm != 5 || got.DurationMin != 10 {
		t.Fatalf("unexpected leg %+v", got)
	}
}

func TestStraightLine(t *testing.T) {
	got, _ := StraightLine{SpeedKmh: 60}.Route(context.Background(), models.Coord{Lat: 0, Lon: 0}, models.Coord{Lat: 0, Lon: 1})
	// one degree of longitude at the equator is ~111.19 km
	if got.DistanceKm < 111 || got.DistanceKm > 111.4 {
		t.Fatalf("unexpected distance %v", got.DistanceKm)
	}
	if got.DurationMin != 111 {
		t.Fatalf("unexpected duration %v", got.DurationMin)
	}
}

func TestPlanSumsLegs(t *testing.T) {
	r := &countingRouter{leg: models.Leg{DistanceKm: 2.5, DurationMin: 7}}
	got, err := Plan(context.Background(), r, models.Coord{}, models.Coord{}, models.Coord{})
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalDistanceKm != 5 || got.TotalDurationMin != 14 || r.calls != 2 {
		t.Fatalf("unexpected route %+v (calls %d)", got, r.calls)
	}
}

func TestPlanWrapsFailures(t *testing.T) {
	r := &countingRouter{err: errors.New("boom")}
	_, err := Plan(context.Background(), r, models.Coord{}, models.Coord{}, models.Coord{})
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestCacheHitsAndExpires(t *testing.T) {
	next := &countingRouter{leg: models.Leg{DistanceKm: 1}}
	c := NewCache(next, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	a, b := models.Coord{Lat: 1}, models.Coord{Lat: 2}

	c.Route(ctx, a, b)
	c.Route(ctx, a, b)
	if next.calls != 1 {
		t.Fatalf("expected cached second call, got %d calls", next.calls)
	}
	now = now.Add(2 * time.Minute)
	c.Route(ctx, a, b)
	if next.calls != 2 {
		t.Fatalf("expected expiry to refetch, got %d calls", next.calls)
	}
}

func TestCacheSweepsExpiredPairs(t *testing.T) {
	next := &countingRouter{leg: models.Leg{DistanceKm: 1}}
	c := NewCache(next, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		c.Route(ctx, models.Coord{Lat: float64(i)}, models.Coord{Lon: 1})
	}
	if len(c.store) != 50 {
		t.Fatalf("expected 50 cached pairs, got %d", len(c.store))
	}
	// none of these pairs is ever looked up again
	now = now.Add(2 * time.Minute)
	c.Route(ctx, models.Coord{Lat: 100}, models.Coord{Lon: 1})
	if len(c.store) != 1 {
		t.Fatalf("expected expired pairs swept on write, got %d entries", len(c.store))
	}
}
