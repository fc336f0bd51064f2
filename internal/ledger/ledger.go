package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/observability"
)

var (
	ErrRideNotFound      = errors.New("ride not found")
	ErrInvalidTransition = errors.New("invalid ride status transition")
)

// Sink mirrors ledger writes somewhere else (audit table, event stream).
// Sink failures are logged and never undo the in-memory write.
type Sink interface {
	SaveRide(ctx context.Context, r models.Ride) error
	UpdateRide(ctx context.Context, r models.Ride) error
}

// NewRide carries the fields fixed at booking time.
type NewRide struct {
	ClientIdentity string
	Origin         models.Place
	Destination    models.Place
	Route          models.Route
	Price          models.Price
	VehicleType    models.VehicleType
	Status         models.RideStatus
	ScheduledTime  *time.Time
}

// Ledger is the append-only list of committed rides. Ids start at 1 and are
// assigned under the write lock so they never repeat or skip.
type Ledger struct {
	mu     sync.RWMutex
	rides  []models.Ride
	sinks  []Sink
	now    func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger, now func() time.Time, sinks ...Sink) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{sinks: sinks, now: now, logger: logger.With("component", "ledger")}
}

func (l *Ledger) Create(ctx context.Context, in NewRide) models.Ride {
	l.mu.Lock()
	ts := l.now()
	r := models.Ride{
		ID:             int64(len(l.rides)) + 1,
		ClientIdentity: in.ClientIdentity,
		Origin:         in.Origin,
		Destination:    in.Destination,
		Route:          in.Route,
		Price:          in.Price,
		VehicleType:    in.VehicleType,
		Status:         in.Status,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if in.ScheduledTime != nil {
		st := *in.ScheduledTime
		r.ScheduledTime = &st
	}
	l.rides = append(l.rides, r)
	l.mu.Unlock()

	observability.RidesCreated.WithLabelValues(string(r.Status)).Inc()
	l.logger.Info("ride created", "ride_id", r.ID, "client", r.ClientIdentity, "status", r.Status)
	for _, s := range l.sinks {
		if err := s.SaveRide(ctx, r); err != nil {
			l.logger.Error("sink save failed", "ride_id", r.ID, "error", err)
		}
	}
	return copyRide(r)
}

// UpdateStatus changes the status of a ride, rejecting transitions the
// status table does not allow.
func (l *Ledger) UpdateStatus(ctx context.Context, id int64, status models.RideStatus) (models.Ride, error) {
	l.mu.Lock()
	if id < 1 || id > int64(len(l.rides)) {
		l.mu.Unlock()
		return models.Ride{}, ErrRideNotFound
	}
	r := &l.rides[id-1]
	if !CanTransition(r.Status, status) {
		from := r.Status
		l.mu.Unlock()
		l.logger.Warn("rejected status change", "ride_id", id, "from", from, "to", status)
		return models.Ride{}, ErrInvalidTransition
	}
	r.Status = status
	r.UpdatedAt = l.now()
	out := copyRide(*r)
	l.mu.Unlock()

	for _, s := range l.sinks {
		if err := s.UpdateRide(ctx, out); err != nil {
			l.logger.Error("sink update failed", "ride_id", id, "error", err)
		}
	}
	return out, nil
}

func (l *Ledger) Get(id int64) (models.Ride, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if id < 1 || id > int64(len(l.rides)) {
		return models.Ride{}, false
	}
	return copyRide(l.rides[id-1]), true
}

// Query returns copies of every ride matching pred, in id order. A nil pred matches all.
func (l *Ledger) Query(pred func(models.Ride) bool) []models.Ride {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Ride, 0)
	for _, r := range l.rides {
		if pred == nil || pred(r) {
			out = append(out, copyRide(r))
		}
	}
	return out
}

func ByStatus(status models.RideStatus) func(models.Ride) bool {
	return func(r models.Ride) bool { return r.Status == status }
}

func ByClient(id string) func(models.Ride) bool {
	return func(r models.Ride) bool { return r.ClientIdentity == id }
}

// All combines predicates with AND.
func All(preds ...func(models.Ride) bool) func(models.Ride) bool {
	return func(r models.Ride) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func copyRide(r models.Ride) models.Ride {
	if r.ScheduledTime != nil {
		st := *r.ScheduledTime
		r.ScheduledTime = &st
	}
	return r
}
