package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/ride-booking-bot/internal/models"
)

type call struct {
	query string
	args  []any
}

type fakeDB struct {
	calls []call
	err   error
}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, call{query, args})
	return nil, f.err
}

func TestSaveAndUpdateRide(t *testing.T) {
	db := &fakeDB{}
	p := &PostgresStore{db: db}
	at := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	r := models.Ride{ID: 4, ClientIdentity: "c", Status: models.RideScheduled, ScheduledTime: &at, Price: models.Price{Total: 30}}

	if err := p.SaveRide(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	r.Status = models.RideConfirmed
	if err := p.UpdateRide(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if len(db.calls) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(db.calls))
	}
	if !strings.HasPrefix(db.calls[0].query, "INSERT INTO rides") || len(db.calls[0].args) != 17 {
		t.Fatalf("unexpected insert %+v", db.calls[0])
	}
	if got := db.calls[1].args[0]; got != "CONFIRMED" {
		t.Fatalf("expected CONFIRMED, got %v", got)
	}
}

func TestMigrateStopsOnError(t *testing.T) {
	db := &fakeDB{err: errors.New("permission denied")}
	p := &PostgresStore{db: db}
	if err := p.Migrate(context.Background()); err == nil {
		t.Fatal("expected migration error")
	}
	if len(db.calls) != 1 || !strings.Contains(db.calls[0].query, "CREATE TABLE IF NOT EXISTS rides") {
		t.Fatalf("unexpected calls %+v", db.calls)
	}
}
