package reminder

import (
	"sort"
	"sync"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/observability"
)

// Reminder tracks the notices owed for one scheduled ride.
type Reminder struct {
	Identity      string
	Ride          models.Ride
	ScheduledTime time.Time
	// set once the one-hour notice went out; never cleared
	ReminderSentAt *time.Time
}

func (r Reminder) ReminderSent() bool { return r.ReminderSentAt != nil }

// Index holds at most one live reminder per requester identity.
type Index struct {
	mu    sync.Mutex
	items map[string]*Reminder
}

func NewIndex() *Index {
	return &Index{items: make(map[string]*Reminder)}
}

// Add registers a reminder, replacing any live one for the same identity.
// It reports whether a previous reminder was replaced.
func (x *Index) Add(r Reminder) (replaced bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, replaced = x.items[r.Identity]
	rc := r
	x.items[r.Identity] = &rc
	observability.ScheduledReminders.Set(float64(len(x.items)))
	return replaced
}

func (x *Index) Get(identity string) (Reminder, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	r, ok := x.items[identity]
	if !ok {
		return Reminder{}, false
	}
	return *r, true
}

// Remove drops the identity's reminder if it still belongs to rideID.
func (x *Index) Remove(identity string, rideID int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	r, ok := x.items[identity]
	if !ok || r.Ride.ID != rideID {
		return false
	}
	delete(x.items, identity)
	observability.ScheduledReminders.Set(float64(len(x.items)))
	return true
}

// MarkReminderSent records the one-hour notice. It returns false when the
// notice was already recorded or the reminder is gone.
func (x *Index) MarkReminderSent(identity string, rideID int64, at time.Time) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	r, ok := x.items[identity]
	if !ok || r.Ride.ID != rideID || r.ReminderSentAt != nil {
		return false
	}
	t := at
	r.ReminderSentAt = &t
	return true
}

// Snapshot returns copies of all live reminders ordered by scheduled time.
func (x *Index) Snapshot() []Reminder {
	x.mu.Lock()
	out := make([]Reminder, 0, len(x.items))
	for _, r := range x.items {
		out = append(out, *r)
	}
	x.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledTime.Equal(out[j].ScheduledTime) {
			return out[i].Identity < out[j].Identity
		}
		return out[i].ScheduledTime.Before(out[j].ScheduledTime)
	})
	return out
}

func (x *Index) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.items)
}
