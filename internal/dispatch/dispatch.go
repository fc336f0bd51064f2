package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/ride-booking-bot/internal/chat"
	"github.com/example/ride-booking-bot/internal/models"
)

type Kind string

const (
	KindConfirmed Kind = "ride_confirmed"
	KindScheduled Kind = "ride_scheduled"
	KindDue       Kind = "scheduled_ride_due"
)

// OperatorEvent is the JSON pushed to consoles and the webhook.
type OperatorEvent struct {
	Kind Kind        `json:"kind"`
	Ride models.Ride `json:"ride"`
	At   time.Time   `json:"at"`
}

// Notifier tells the operator about rides. Text goes to the operator's chat
// contact; every event is also pushed to consoles and the optional webhook.
type Notifier struct {
	Sender   chat.Sender
	Contact  string
	WS       *WSRegistry
	Endpoint string
	Client   *http.Client
	Location *time.Location
}

func (n *Notifier) Notify(ctx context.Context, kind Kind, ride models.Ride) error {
	var errs []error
	if n.Contact != "" && kind != KindScheduled {
		if err := n.Sender.Send(ctx, n.Contact, n.Message(kind, ride)); err != nil {
			errs = append(errs, err)
		}
	}
	ev := OperatorEvent{Kind: kind, Ride: ride, At: time.Now()}
	if n.WS != nil {
		if err := n.WS.Broadcast(ev); err != nil {
			errs = append(errs, fmt.Errorf("ws broadcast: %w", err))
		}
	}
	if n.Endpoint != "" {
		if err := n.post(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("webhook: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (n *Notifier) post(ctx context.Context, ev OperatorEvent) error {
	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}

// Message renders the operator-facing ride details.
func (n *Notifier) Message(kind Kind, r models.Ride) string {
	var b strings.Builder
	switch kind {
	case KindDue:
		b.WriteString("🚗 *Scheduled ride starting now!*\n\n")
	default:
		b.WriteString("🚗 *New ride confirmed!*\n\n")
	}
	fmt.Fprintf(&b, "👤 *Client:* %s\n\n", r.ClientIdentity)
	fmt.Fprintf(&b, "📍 *Origin:* %s\n", r.Origin.Address)
	fmt.Fprintf(&b, "📍 *Destination:* %s\n\n", r.Destination.Address)
	fmt.Fprintf(&b, "📏 *Distance to client:* %.2f km (%d min)\n", r.Route.DriverToClient.DistanceKm, r.Route.DriverToClient.DurationMin)
	fmt.Fprintf(&b, "📏 *Ride distance:* %.2f km (%d min)\n", r.Route.ClientToDestination.DistanceKm, r.Route.ClientToDestination.DurationMin)
	fmt.Fprintf(&b, "🚙 *Vehicle:* %s\n", r.VehicleType)
	fmt.Fprintf(&b, "💰 *Price:* %s\n", r.Price.FormattedTotal)
	if r.ScheduledTime != nil {
		fmt.Fprintf(&b, "📅 *Scheduled for:* %s\n", n.local(*r.ScheduledTime).Format("02/01/2006 15:04"))
	}
	fmt.Fprintf(&b, "\n🆔 Ride #%d", r.ID)
	return b.String()
}

func (n *Notifier) local(t time.Time) time.Time {
	if n.Location == nil {
		return t
	}
	return t.In(n.Location)
}
