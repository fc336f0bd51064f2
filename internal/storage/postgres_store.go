package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	_ "github.com/lib/pq"

	"github.com/example/ride-booking-bot/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore keeps an audit copy of the ride ledger. It satisfies
// ledger.Sink; the in-memory ledger stays the source of truth.
type PostgresStore struct {
	db     execer
	closer func() error
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{db: db, closer: db.Close}, nil
}

// Migrate applies the embedded schema files in name order. Every file is
// idempotent so it is safe on each start.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, n := range names {
		b, err := migrations.ReadFile(n)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("migration %s: %w", n, err)
		}
	}
	return nil
}

func (p *PostgresStore) SaveRide(ctx context.Context, r models.Ride) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO rides(id, client_identity, origin_address, origin_lat, origin_lon, dest_address, dest_lat, dest_lon,
		pickup_km, ride_km, ride_minutes, vehicle_type, price_total, status, scheduled_time, created_at, updated_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (id) DO NOTHING`,
		r.ID, r.ClientIdentity, r.Origin.Address, r.Origin.Coords.Lat, r.Origin.Coords.Lon,
		r.Destination.Address, r.Destination.Coords.Lat, r.Destination.Coords.Lon,
		r.Route.DriverToClient.DistanceKm, r.Route.ClientToDestination.DistanceKm, r.Route.ClientToDestination.DurationMin,
		string(r.VehicleType), r.Price.Total, string(r.Status), r.ScheduledTime, r.CreatedAt, r.UpdatedAt)
	return err
}

func (p *PostgresStore) UpdateRide(ctx context.Context, r models.Ride) error {
	_, err := p.db.ExecContext(ctx, `UPDATE rides SET status=$1, updated_at=$2 WHERE id=$3`, string(r.Status), r.UpdatedAt, r.ID)
	return err
}

func (p *PostgresStore) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
