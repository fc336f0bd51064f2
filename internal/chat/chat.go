package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/ride-booking-bot/internal/models"
)

// Event is one inbound conversational message.
type Event struct {
	SenderID       string        `json:"sender_id" validate:"required"`
	Text           string        `json:"text"`
	SharedLocation *models.Coord `json:"shared_location,omitempty"`
	IsFromSelf     bool          `json:"is_from_self"`
}

// Ignorable reports events the dialogue never looks at: our own echoes and
// events carrying neither text nor a location.
func (e Event) Ignorable() bool {
	return e.IsFromSelf || (strings.TrimSpace(e.Text) == "" && e.SharedLocation == nil)
}

// Sender delivers a text message to a chat identity.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// DeliveryError wraps a failed outbound send.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string { return fmt.Sprintf("deliver to %s: %v", e.To, e.Err) }

func (e *DeliveryError) Unwrap() error { return e.Err }

// LogSender writes outbound messages to the log. Used for local runs.
type LogSender struct {
	Logger *slog.Logger
}

func (l LogSender) Send(ctx context.Context, to, text string) error {
	l.Logger.Info("outbound message", "to", to, "text", text)
	return nil
}
