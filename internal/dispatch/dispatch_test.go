package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (r *recordingSender) Send(ctx context.Context, to, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[string][]string{}
	}
	r.sent[to] = append(r.sent[to], text)
	return r.err
}

func sampleRide() models.Ride {
	at := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	return models.Ride{
		ID:             7,
		ClientIdentity: "whatsapp:+5511",
		Origin:         models.Place{Address: "Rua A, 1"},
		Destination:    models.Place{Address: "Rua B, 2"},
		Route: models.Route{
			DriverToClient:      models.Leg{DistanceKm: 1.2, DurationMin: 4},
			ClientToDestination: models.Leg{DistanceKm: 8.5, DurationMin: 20},
		},
		Price:         models.Price{FormattedTotal: "R$ 34,75"},
		VehicleType:   models.VehicleNormal,
		ScheduledTime: &at,
	}
}

func TestNotifySendsTextAndWebhook(t *testing.T) {
	var got OperatorEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := &recordingSender{}
	n := &Notifier{Sender: s, Contact: "op", Endpoint: srv.URL}
	if err := n.Notify(context.Background(), KindConfirmed, sampleRide()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.sent["op"]) != 1 {
		t.Fatalf("expected one operator message, got %v", s.sent)
	}
	msg := s.sent["op"][0]
	for _, want := range []string{"Rua A, 1", "Rua B, 2", "1.20 km (4 min)", "R$ 34,75", "Ride #7", "01/06/2025 14:00"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if got.Kind != KindConfirmed || got.Ride.ID != 7 {
		t.Fatalf("unexpected webhook event %+v", got)
	}
}

func TestNotifyScheduledSkipsText(t *testing.T) {
	s := &recordingSender{}
	n := &Notifier{Sender: s, Contact: "op"}
	n.Notify(context.Background(), KindScheduled, sampleRide())
	if len(s.sent) != 0 {
		t.Fatalf("scheduled rides should not text the operator, got %v", s.sent)
	}
}

func TestNotifyReturnsDeliveryError(t *testing.T) {
	s := &recordingSender{err: errors.New("offline")}
	n := &Notifier{Sender: s, Contact: "op"}
	if err := n.Notify(context.Background(), KindDue, sampleRide()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegistrySendUnknown(t *testing.T) {
	r := NewWSRegistry()
	if err := r.Send("nope", "x"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if err := r.Broadcast("x"); err != nil {
		t.Fatalf("empty broadcast should succeed, got %v", err)
	}
}
