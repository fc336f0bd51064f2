package chat

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/example/ride-booking-bot/internal/models"
)

// TwilioSender delivers WhatsApp messages through the Twilio REST API.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: rc, from: WhatsAppAddress(from)}
}

func (t *TwilioSender) Send(ctx context.Context, to, text string) error {
	params := &api.CreateMessageParams{}
	params.SetTo(WhatsAppAddress(to))
	params.SetFrom(t.from)
	params.SetBody(text)
	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return &DeliveryError{To: to, Err: err}
	}
	return nil
}

// WhatsAppAddress normalizes "+5511..." or "5511..." to "whatsapp:+5511...".
func WhatsAppAddress(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "whatsapp:") {
		return id
	}
	if !strings.HasPrefix(id, "+") {
		id = "+" + id
	}
	return "whatsapp:" + id
}

// EventFromTwilioForm builds an Event from a Twilio inbound-message webhook.
// Location pins arrive as Latitude/Longitude form fields.
func EventFromTwilioForm(form url.Values, self string) Event {
	ev := Event{
		SenderID: form.Get("From"),
		Text:     form.Get("Body"),
	}
	if self != "" && WhatsAppAddress(self) == ev.SenderID {
		ev.IsFromSelf = true
	}
	lat, errLat := strconv.ParseFloat(form.Get("Latitude"), 64)
	lon, errLon := strconv.ParseFloat(form.Get("Longitude"), 64)
	if errLat == nil && errLon == nil {
		ev.SharedLocation = &models.Coord{Lat: lat, Lon: lon}
	}
	return ev
}

// VerifyTwilioSignature checks the X-Twilio-Signature of a form webhook
// against the public URL Twilio was configured to call.
func VerifyTwilioSignature(authToken, fullURL string, form url.Values, signature string) bool {
	if signature == "" {
		return false
	}
	params := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	rv := client.NewRequestValidator(authToken)
	return rv.Validate(fullURL, params, signature)
}
