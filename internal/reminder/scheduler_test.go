package reminder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/example/ride-booking-bot/internal/dispatch"
	"github.com/example/ride-booking-bot/internal/logging"
	"github.com/example/ride-booking-bot/internal/models"
	"github.com/example/ride-booking-bot/internal/session"
)

type sent struct{ to, text string }

type recordingSender struct {
	mu   sync.Mutex
	msgs []sent
	fail map[string]bool
}

func (r *recordingSender) Send(ctx context.Context, to, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{to, text})
	if r.fail[to] {
		return errors.New("undeliverable")
	}
	return nil
}

type fakeLedger struct {
	updates []int64
}

func (f *fakeLedger) UpdateStatus(ctx context.Context, id int64, status models.RideStatus) (models.Ride, error) {
	f.updates = append(f.updates, id)
	return models.Ride{ID: id, Status: status}, nil
}

type fakeOperator struct {
	kinds []dispatch.Kind
}

func (f *fakeOperator) Notify(ctx context.Context, kind dispatch.Kind, ride models.Ride) error {
	f.kinds = append(f.kinds, kind)
	return nil
}

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newScheduler() (*Scheduler, *recordingSender, *fakeLedger, *fakeOperator) {
	s := &recordingSender{fail: map[string]bool{}}
	l := &fakeLedger{}
	op := &fakeOperator{}
	return &Scheduler{
		Index:    NewIndex(),
		Ledger:   l,
		Sender:   s,
		Operator: op,
		Locks:    session.NewKeyedMutex(),
		Period:   5 * time.Minute,
		Lead:     time.Hour,
		Now:      func() time.Time { return base },
		Logger:   logging.Discard(),
	}, s, l, op
}

func ride(id int64, at time.Time) models.Ride {
	return models.Ride{
		ID:            id,
		Origin:        models.Place{Address: "Rua A"},
		Destination:   models.Place{Address: "Rua B"},
		Price:         models.Price{FormattedTotal: "R$ 20,00"},
		Status:        models.RideScheduled,
		ScheduledTime: &at,
	}
}

func TestReminderThenDispatchExactlyOnce(t *testing.T) {
	sch, s, l, op := newScheduler()
	at := base.Add(3 * time.Hour)
	sch.Index.Add(Reminder{Identity: "u1", Ride: ride(1, at), ScheduledTime: at})
	ctx := context.Background()

	// tick every 5 minutes (and an odd 3 minute offset) past the ride time
	for now := base; !now.After(at.Add(15 * time.Minute)); now = now.Add(3 * time.Minute) {
		sch.Tick(ctx, now)
	}

	if len(s.msgs) != 2 {
		t.Fatalf("expected reminder + start notice, got %d: %+v", len(s.msgs), s.msgs)
	}
	if !strings.Contains(s.msgs[0].text, "Ride reminder") || !strings.Contains(s.msgs[0].text, "R$ 20,00") {
		t.Fatalf("first message must be the reminder, got %q", s.msgs[0].text)
	}
	if s.msgs[1].text != RideStartingMessage {
		t.Fatalf("second message must be the start notice, got %q", s.msgs[1].text)
	}
	if len(op.kinds) != 1 || op.kinds[0] != dispatch.KindDue {
		t.Fatalf("expected one operator dispatch, got %v", op.kinds)
	}
	if len(l.updates) != 1 || l.updates[0] != 1 {
		t.Fatalf("expected ride 1 status update, got %v", l.updates)
	}
	if sch.Index.Len() != 0 {
		t.Fatal("reminder must be removed after dispatch")
	}
}

func TestReminderFiresOnFirstTickInsideLead(t *testing.T) {
	sch, s, _, _ := newScheduler()
	at := base.Add(61 * time.Minute)
	sch.Index.Add(Reminder{Identity: "u1", Ride: ride(1, at), ScheduledTime: at})
	ctx := context.Background()

	sch.Tick(ctx, base)
	if len(s.msgs) != 0 {
		t.Fatal("no reminder expected before the lead window")
	}
	// a coarse period that skips straight to 40 minutes out still sends once
	sch.Tick(ctx, base.Add(21*time.Minute))
	sch.Tick(ctx, base.Add(26*time.Minute))
	if len(s.msgs) != 1 || !strings.Contains(s.msgs[0].text, "40 minutes") {
		t.Fatalf("expected a single 40 minute reminder, got %+v", s.msgs)
	}
	r, _ := sch.Index.Get("u1")
	if !r.ReminderSent() {
		t.Fatal("reminder flag not set")
	}
}

func TestDeliveryFailureStillMarksSentAndContinues(t *testing.T) {
	sch, s, _, op := newScheduler()
	soon := base.Add(30 * time.Minute)
	due := base.Add(-time.Minute)
	s.fail["bad"] = true
	sch.Index.Add(Reminder{Identity: "bad", Ride: ride(1, soon), ScheduledTime: soon})
	sch.Index.Add(Reminder{Identity: "good", Ride: ride(2, due), ScheduledTime: due})

	sch.Tick(context.Background(), base)
	sch.Tick(context.Background(), base.Add(time.Minute))

	var badMsgs int
	for _, m := range s.msgs {
		if m.to == "bad" {
			badMsgs++
		}
	}
	if badMsgs != 1 {
		t.Fatalf("failed reminder must not be retried, got %d attempts", badMsgs)
	}
	if len(op.kinds) != 1 {
		t.Fatalf("the other reminder must still dispatch, got %v", op.kinds)
	}
}

func TestReplacedReminderIsSkipped(t *testing.T) {
	sch, s, _, _ := newScheduler()
	old := base.Add(-time.Minute)
	if sch.Index.Add(Reminder{Identity: "u1", Ride: ride(1, old), ScheduledTime: old}) {
		t.Fatal("first add must not report a replacement")
	}
	later := base.Add(5 * time.Hour)
	if !sch.Index.Add(Reminder{Identity: "u1", Ride: ride(2, later), ScheduledTime: later}) {
		t.Fatal("second add must replace")
	}
	sch.Tick(context.Background(), base)
	if len(s.msgs) != 0 {
		t.Fatalf("only the replacement is live and it is not due, got %+v", s.msgs)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	sch, _, _, _ := newScheduler()
	sch.Period = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sch.Run(ctx) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
