package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/session"
)

const (
	SharedLocationLabel = "Shared location"

	MsgWelcome        = "Hello! 👋\n\nWhere should we pick you up?\n\nYou can share your location 📍 or type the address."
	MsgAskDestination = "Great! Now tell me the destination.\n\nYou can share the location 📍 or type the address."
	MsgProcessing     = "⏳ One moment, I'm looking that up..."
	MsgCancelled      = "❌ Your ride request was cancelled.\n\nIf you need anything, just call! 😊"

	MsgErrGeocoding = "😕 Sorry, I couldn't find that address.\n\nPlease start again with more detail (e.g. \"Street X, number Y\" or \"near Z mall\")."
	MsgErrRouting   = "😕 Sorry, I couldn't calculate the route.\n\nPlease start again."
	MsgErrGeneric   = "😕 Sorry, something went wrong.\n\nPlease start again."

	MsgAskConfirmation  = "Do you want to confirm the ride now or schedule it?\n\nType \"confirm\" or \"schedule\"."
	MsgInvalidOption    = "❌ Invalid option.\n\nPlease type \"confirm\", \"schedule\" or \"cancel\"."
	MsgAskSchedule      = "📅 When should we schedule it? (e.g. \"tomorrow 14:00\" or \"today 18:30\")"
	MsgInvalidSchedule  = "❌ I couldn't understand that time, or it is already in the past.\n\nTry \"tomorrow\", \"tomorrow 14:00\", \"today 18:30\" or just \"18:30\"."
	MsgRideConfirmed    = "✅ *Ride confirmed!*\n\nThe driver has been notified and will be on the way soon! 🚗"
	MsgRideScheduledFmt = "✅ *Ride scheduled!* 📅\n\nYou will get a reminder 1 hour before.\n\n📅 Date/time: %s"

	MsgAskVehicle = "🚙 Which vehicle do you prefer?\n\n1. Normal\n2. Comfort\n3. Premium\n\nReply with the number or the name."
)

const scheduleLayout = "02/01/2006 15:04"

func askAgain(t target) string {
	if t == targetOrigin {
		return "🔎 No problem. Please type the pickup address with more detail (street, number, neighbourhood, city)."
	}
	return "🔎 No problem. Please type the destination address with more detail (street, number, neighbourhood, city)."
}

func optionsMessage(t target, query string, cands []models.Candidate) string {
	var b strings.Builder
	what := "pickup"
	if t == targetDestination {
		what = "destination"
	}
	fmt.Fprintf(&b, "🔎 I found more than one %s for \"%s\":\n\n", what, query)
	for i, c := range cands {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.FormattedAddress)
	}
	fmt.Fprintf(&b, "%d. None of these\n\nReply with the option number.", len(cands)+1)
	return b.String()
}

func invalidSelection(max int) string {
	return fmt.Sprintf("❌ Please reply with a number from 1 to %d.", max)
}

func rideSummary(d session.Data) string {
	var b strings.Builder
	b.WriteString("📊 *Ride summary*\n\n")
	fmt.Fprintf(&b, "📍 *Origin:* %s\n", d.Origin.Address)
	fmt.Fprintf(&b, "📍 *Destination:* %s\n\n", d.Destination.Address)
	fmt.Fprintf(&b, "📏 *Distance:* %.2f km\n", d.Route.ClientToDestination.DistanceKm)
	fmt.Fprintf(&b, "⏱️ *Estimated time:* %d minutes\n", d.Route.ClientToDestination.DurationMin)
	fmt.Fprintf(&b, "🚗 *Driver arrives in:* ~%d minutes\n", d.Route.DriverToClient.DurationMin)
	fmt.Fprintf(&b, "🚙 *Vehicle:* %s\n", d.VehicleType)
	fmt.Fprintf(&b, "💰 *Price:* %s\n\n", d.Price.FormattedTotal)
	b.WriteString(MsgAskConfirmation)
	return b.String()
}

func rideScheduled(at time.Time) string {
	return fmt.Sprintf(MsgRideScheduledFmt, at.Format(scheduleLayout))
}
