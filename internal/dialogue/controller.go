package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/ride-booking-bot/internal/chat"
	"github.com/example/ride-booking-bot/internal/dispatch"
	"github.com/example/ride-booking-bot/internal/geocoding"
	"github.com/example/ride-booking-bot/internal/ledger"
	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/observability"
	"github.com/example/ride-booking-bot/internal/pricing"
	"github.com/example/ride-booking-bot/internal/reminder"
	"github.com/example/ride-booking-bot/internal/routing"
	"github.com/example/ride-booking-bot/internal/schedule"
	"github.com/example/ride-booking-bot/internal/session"
)

var errIncompleteSession = errors.New("session is missing booking data")

// OperatorLocator returns the operator's current position, the start of the
// pickup leg.
type OperatorLocator interface {
	Position(ctx context.Context) (models.Coord, error)
}

// OperatorNotifier delivers ride details to the operator.
type OperatorNotifier interface {
	Notify(ctx context.Context, kind dispatch.Kind, ride models.Ride) error
}

// Deps are the collaborators a Controller drives.
type Deps struct {
	Sessions  *session.Store
	Locks     *session.KeyedMutex
	Ledger    *ledger.Ledger
	Reminders *reminder.Index
	Geocoder  geocoding.Geocoder
	Router    routing.Router
	Operator  OperatorLocator
	Pricer    pricing.Pricer
	Notifier  OperatorNotifier
	Sender    chat.Sender

	StartKeywords  []string
	CancelKeywords []string

	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// Controller runs the booking conversation for every requester.
type Controller struct {
	d      Deps
	start  Matcher
	cancel Matcher
	logger *slog.Logger
}

func New(d Deps) *Controller {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	return &Controller{
		d:      d,
		start:  NewMatcher(d.StartKeywords),
		cancel: NewMatcher(d.CancelKeywords),
		logger: d.Logger.With("component", "dialogue"),
	}
}

// target tells the address-collection steps which endpoint they fill.
type target int

const (
	targetOrigin target = iota
	targetDestination
)

func (t target) waiting() session.State {
	if t == targetOrigin {
		return session.WaitingOrigin
	}
	return session.WaitingDestination
}

func (t target) confirming() session.State {
	if t == targetOrigin {
		return session.ConfirmingOrigin
	}
	return session.ConfirmingDestination
}

// Handle processes one inbound event. The identity's lock is held for the
// whole turn so turns for one requester run in arrival order and never
// interleave with the reminder scheduler.
func (c *Controller) Handle(ctx context.Context, ev chat.Event) {
	if ev.Ignorable() {
		return
	}
	id := ev.SenderID
	unlock := c.d.Locks.Lock(id)
	defer unlock()
	defer func() { observability.ActiveSessions.Set(float64(c.d.Sessions.Active())) }()

	sess := c.d.Sessions.Get(id)
	log := c.logger.With("sender", id, "state", sess.State.String())
	observability.ConversationTurns.WithLabelValues(sess.State.String()).Inc()

	if sess.State == session.Idle {
		if c.start.Match(ev.Text) {
			c.d.Sessions.Set(id, session.WaitingOrigin, session.Data{})
			log.Info("conversation started")
			c.reply(ctx, id, MsgWelcome)
		}
		return
	}

	if c.cancel.Match(ev.Text) {
		c.d.Sessions.Clear(id)
		log.Info("conversation cancelled by user")
		c.reply(ctx, id, MsgCancelled)
		return
	}

	var err error
	switch sess.State {
	case session.WaitingOrigin:
		err = c.handleAddress(ctx, id, sess.Data, targetOrigin, ev)
	case session.ConfirmingOrigin:
		err = c.handleSelection(ctx, id, sess.Data, targetOrigin, ev.Text)
	case session.WaitingDestination:
		err = c.handleAddress(ctx, id, sess.Data, targetDestination, ev)
	case session.ConfirmingDestination:
		err = c.handleSelection(ctx, id, sess.Data, targetDestination, ev.Text)
	case session.WaitingVehicleType:
		err = c.handleVehicle(ctx, id, sess.Data, ev.Text)
	case session.WaitingConfirmation:
		err = c.handleConfirmation(ctx, id, sess.Data, ev.Text)
	case session.WaitingSchedule:
		err = c.handleSchedule(ctx, id, sess.Data, ev.Text)
	default:
		err = errors.New("unknown session state " + sess.State.String())
	}
	if err != nil {
		c.fail(ctx, log, id, err)
	}
}

func (c *Controller) handleAddress(ctx context.Context, id string, data session.Data, t target, ev chat.Event) error {
	if ev.SharedLocation != nil {
		return c.accept(ctx, id, data, t, models.Place{Coords: *ev.SharedLocation, Address: SharedLocationLabel})
	}
	query := strings.TrimSpace(ev.Text)
	c.reply(ctx, id, MsgProcessing)
	cands, err := c.d.Geocoder.Forward(ctx, query)
	if err != nil {
		var gerr *geocoding.Error
		if !errors.As(err, &gerr) {
			err = &geocoding.Error{Provider: "forward", Err: err}
		}
		return err
	}
	switch len(cands) {
	case 0:
		return &geocoding.Error{Provider: "forward", Err: geocoding.ErrNoCandidates}
	case 1:
		return c.accept(ctx, id, data, t, models.Place{Coords: cands[0].Coords, Address: cands[0].FormattedAddress})
	}
	data.LocationOptions = cands
	data.SearchQuery = query
	c.d.Sessions.Set(id, t.confirming(), data)
	c.reply(ctx, id, optionsMessage(t, query, cands))
	return nil
}

// accept stores a resolved place and moves to the next question.
func (c *Controller) accept(ctx context.Context, id string, data session.Data, t target, p models.Place) error {
	if t == targetOrigin {
		data.Origin = &p
		c.d.Sessions.Set(id, session.WaitingDestination, data)
		c.reply(ctx, id, MsgAskDestination)
		return nil
	}
	data.Destination = &p
	c.d.Sessions.Set(id, session.WaitingVehicleType, data)
	c.reply(ctx, id, MsgAskVehicle)
	return nil
}

func (c *Controller) handleSelection(ctx context.Context, id string, data session.Data, t target, text string) error {
	opts := data.LocationOptions
	none := len(opts) + 1
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > none {
		c.reply(ctx, id, invalidSelection(none))
		return nil
	}
	if n == none {
		c.d.Sessions.Set(id, t.waiting(), data)
		c.reply(ctx, id, askAgain(t))
		return nil
	}
	picked := opts[n-1]
	return c.accept(ctx, id, data, t, models.Place{Coords: picked.Coords, Address: picked.FormattedAddress})
}

func (c *Controller) handleVehicle(ctx context.Context, id string, data session.Data, text string) error {
	if data.Origin == nil || data.Destination == nil {
		return errIncompleteSession
	}
	vt, ok := ClassifyVehicle(text)
	if !ok {
		c.logger.Debug("vehicle reply not recognised, using default class", "sender", id, "vehicle", vt)
	}
	from, err := c.d.Operator.Position(ctx)
	if err != nil {
		return &routing.Error{Provider: "operator", Err: err}
	}
	route, err := routing.Plan(ctx, c.d.Router, from, data.Origin.Coords, data.Destination.Coords)
	if err != nil {
		return err
	}
	price := c.d.Pricer.Price(route.ClientToDestination.DistanceKm, vt)

	data.VehicleType = vt
	data.Route = &route
	data.Price = &price
	c.d.Sessions.Set(id, session.WaitingConfirmation, data)
	c.reply(ctx, id, rideSummary(data))
	return nil
}

func (c *Controller) handleConfirmation(ctx context.Context, id string, data session.Data, text string) error {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "confirm", "confirmar":
		if data.Route == nil || data.Price == nil {
			return errIncompleteSession
		}
		ride := c.d.Ledger.Create(ctx, newRide(id, data, models.RideConfirmed, nil))
		c.reply(ctx, id, MsgRideConfirmed)
		c.notifyOperator(ctx, dispatch.KindConfirmed, ride)
		c.d.Sessions.Clear(id)
	case "schedule", "agendar":
		c.d.Sessions.Set(id, session.WaitingSchedule, data)
		c.reply(ctx, id, MsgAskSchedule)
	case "cancel", "cancelar":
		c.d.Sessions.Clear(id)
		c.reply(ctx, id, MsgCancelled)
	default:
		c.reply(ctx, id, MsgInvalidOption)
	}
	return nil
}

func (c *Controller) handleSchedule(ctx context.Context, id string, data session.Data, text string) error {
	if data.Route == nil || data.Price == nil {
		return errIncompleteSession
	}
	at, err := schedule.Parse(text, c.d.Now().In(c.d.Location))
	if err != nil {
		c.logger.Debug("schedule reply rejected", "sender", id, "text", text, "error", err)
		c.reply(ctx, id, MsgInvalidSchedule)
		return nil
	}
	ride := c.d.Ledger.Create(ctx, newRide(id, data, models.RideScheduled, &at))
	if c.d.Reminders.Add(reminder.Reminder{Identity: id, Ride: ride, ScheduledTime: at}) {
		c.logger.Info("replaced previous scheduled reminder", "sender", id, "ride_id", ride.ID)
	}
	c.notifyOperator(ctx, dispatch.KindScheduled, ride)
	c.reply(ctx, id, rideScheduled(at))
	c.d.Sessions.Clear(id)
	return nil
}

// fail maps a collaborator failure to a user message and drops the booking.
func (c *Controller) fail(ctx context.Context, log *slog.Logger, id string, err error) {
	var (
		gerr *geocoding.Error
		rerr *routing.Error
		kind = "generic"
		msg  = MsgErrGeneric
	)
	switch {
	case errors.As(err, &gerr):
		kind, msg = "geocoding", MsgErrGeocoding
	case errors.As(err, &rerr):
		kind, msg = "routing", MsgErrRouting
	}
	observability.CollaboratorFailures.WithLabelValues(kind).Inc()
	log.Warn("turn failed, clearing session", "kind", kind, "error", err)
	c.d.Sessions.Clear(id)
	c.reply(ctx, id, msg)
}

func (c *Controller) notifyOperator(ctx context.Context, kind dispatch.Kind, ride models.Ride) {
	if err := c.d.Notifier.Notify(ctx, kind, ride); err != nil {
		observability.DeliveryFailures.Inc()
		c.logger.Error("operator notification failed", "ride_id", ride.ID, "kind", kind, "error", err)
	}
}

// reply sends a message; delivery failures are logged and dropped.
func (c *Controller) reply(ctx context.Context, to, text string) {
	if err := c.d.Sender.Send(ctx, to, text); err != nil {
		observability.DeliveryFailures.Inc()
		c.logger.Error("failed to deliver reply", "to", to, "error", err)
	}
}

func newRide(id string, d session.Data, status models.RideStatus, at *time.Time) ledger.NewRide {
	return ledger.NewRide{
		ClientIdentity: id,
		Origin:         *d.Origin,
		Destination:    *d.Destination,
		Route:          *d.Route,
		Price:          *d.Price,
		VehicleType:    d.VehicleType,
		Status:         status,
		ScheduledTime:  at,
	}
}
