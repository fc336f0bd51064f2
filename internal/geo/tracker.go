package geo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/example/ride-booking-bot/internal/geocoding"
	"github.com/example/ride-booking-bot/internal/models"
)

// Tracker answers "where is the operator now" for the booking flow. It falls
// back to a configured default when nothing has been recorded.
type Tracker struct {
	Store      Store
	OperatorID string
	Default    models.Coord
	Logger     *slog.Logger
}

func (t *Tracker) Position(ctx context.Context) (models.Coord, error) {
	loc, err := t.Store.Current(ctx, t.OperatorID)
	if err != nil {
		if !errors.Is(err, ErrUnknownOperator) {
			t.Logger.Warn("operator location lookup failed, using default", "error", err)
		}
		return t.Default, nil
	}
	return loc.Loc, nil
}

// Bootstrap seeds the operator location from a network address ("auto" or ""
// means the host's public address). The default location is stored when the
// lookup fails.
func (t *Tracker) Bootstrap(ctx context.Context, locator geocoding.NetworkLocator, addr string) models.OperatorLocation {
	if addr == "auto" {
		addr = ""
	}
	loc := models.OperatorLocation{OperatorID: t.OperatorID, Loc: t.Default, Source: "default", Updated: time.Now()}
	if locator != nil {
		if nl, err := locator.LocateByNetworkAddress(ctx, addr); err == nil {
			loc.Loc = nl.Coords
			loc.City, loc.Region, loc.Country = nl.City, nl.Region, nl.Country
			loc.Source = "ip"
		} else {
			t.Logger.Warn("operator location from network address failed, using default", "addr", addr, "error", err)
		}
	}
	if err := t.Store.Upsert(ctx, loc); err != nil {
		t.Logger.Error("failed to store operator location", "error", err)
	}
	t.Logger.Info("operator location initialized", "lat", loc.Loc.Lat, "lon", loc.Loc.Lon, "source", loc.Source)
	return loc
}
