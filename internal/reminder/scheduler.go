package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/ride-booking-bot/internal/chat"
	"github.com/example/ride-booking-bot/internal/dispatch"
	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/observability"
	"github.com/example/ride-booking-bot/internal/session"
)

// StatusUpdater is the part of the ride ledger the scheduler writes to.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id int64, status models.RideStatus) (models.Ride, error)
}

// OperatorNotifier delivers ride details to the operator.
type OperatorNotifier interface {
	Notify(ctx context.Context, kind dispatch.Kind, ride models.Ride) error
}

// Scheduler polls the reminder index on a fixed period. For each live
// reminder it sends the one-hour notice once, then on the scheduled time
// tells requester and operator the ride is starting and drops the reminder.
type Scheduler struct {
	Index    *Index
	Ledger   StatusUpdater
	Sender   chat.Sender
	Operator OperatorNotifier
	Locks    *session.KeyedMutex
	Period   time.Duration
	Lead     time.Duration
	Now      func() time.Time
	Logger   *slog.Logger
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()
	s.Logger.Info("reminder scheduler started", "period", s.Period.String(), "lead", s.Lead.String())
	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("reminder scheduler stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx, s.Now())
		}
	}
}

// Tick processes every live reminder once against now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	items := s.Index.Snapshot()
	if len(items) > 0 {
		s.Logger.Debug("checking scheduled rides", "count", len(items))
	}
	for _, r := range items {
		s.process(ctx, now, r.Identity, r.Ride.ID)
	}
}

func (s *Scheduler) process(ctx context.Context, now time.Time, identity string, rideID int64) {
	unlock := s.Locks.Lock(identity)
	defer unlock()

	// the reminder may have been replaced or dropped since the snapshot
	r, ok := s.Index.Get(identity)
	if !ok || r.Ride.ID != rideID {
		return
	}
	log := s.Logger.With("client", identity, "ride_id", rideID)
	remaining := r.ScheduledTime.Sub(now)

	switch {
	case remaining <= 0:
		log.Info("scheduled ride due")
		s.deliver(ctx, log, identity, RideStartingMessage)
		ride := r.Ride
		if updated, err := s.Ledger.UpdateStatus(ctx, rideID, models.RideConfirmed); err != nil {
			log.Error("failed to advance ride status", "error", err)
		} else {
			ride = updated
		}
		if err := s.Operator.Notify(ctx, dispatch.KindDue, ride); err != nil {
			observability.DeliveryFailures.Inc()
			log.Error("operator notification failed", "error", err)
		}
		s.Index.Remove(identity, rideID)
		observability.RemindersSent.WithLabelValues("dispatch").Inc()
	case remaining <= s.Lead && !r.ReminderSent():
		if !s.Index.MarkReminderSent(identity, rideID, now) {
			return
		}
		log.Info("sending one-hour reminder", "minutes_left", minutesLeft(remaining))
		s.deliver(ctx, log, identity, ReminderMessage(r.Ride, remaining))
		observability.RemindersSent.WithLabelValues("reminder").Inc()
	}
}

func (s *Scheduler) deliver(ctx context.Context, log *slog.Logger, to, text string) {
	if err := s.Sender.Send(ctx, to, text); err != nil {
		observability.DeliveryFailures.Inc()
		log.Error("failed to deliver message", "error", err)
	}
}

const RideStartingMessage = "🚗 Your scheduled ride is starting! The driver has been notified."

func ReminderMessage(r models.Ride, remaining time.Duration) string {
	return fmt.Sprintf("⏰ *Ride reminder*\n\nYour ride is scheduled in %d minutes.\n\n📍 Origin: %s\n📍 Destination: %s\n💰 Price: %s",
		minutesLeft(remaining), r.Origin.Address, r.Destination.Address, r.Price.FormattedTotal)
}

func minutesLeft(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
