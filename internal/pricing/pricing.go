package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/ride-booking-bot/internal/models"
)

// Multipliers scale the per-km rate by vehicle class.
var Multipliers = map[models.VehicleType]float64{
	models.VehicleNormal:  1.0,
	models.VehicleComfort: 1.3,
	models.VehiclePremium: 1.6,
}

type Pricer struct {
	BaseFare    float64
	PerKmRate   float64
	MinimumFare float64
	Currency    string
}

// Price computes max(base + km*rate*multiplier, minimum). Negative distances count as zero
// and unknown classes use the NORMAL multiplier.
func (p Pricer) Price(distanceKm float64, vt models.VehicleType) models.Price {
	if distanceKm < 0 {
		distanceKm = 0
	}
	mult, ok := Multipliers[vt]
	if !ok {
		mult = Multipliers[models.VehicleNormal]
	}
	distanceFare := distanceKm * p.PerKmRate * mult
	total := math.Max(p.BaseFare+distanceFare, p.MinimumFare)
	total = roundCents(total)
	return models.Price{
		DistanceKm:     roundCents(distanceKm),
		VehicleType:    vt,
		BaseFare:       roundCents(p.BaseFare),
		DistanceFare:   roundCents(distanceFare),
		Multiplier:     mult,
		Total:          total,
		FormattedTotal: p.Format(total),
	}
}

// Format renders an amount as "R$ 12,50".
func (p Pricer) Format(amount float64) string {
	s := strings.Replace(fmt.Sprintf("%.2f", amount), ".", ",", 1)
	if p.Currency == "" {
		return s
	}
	return p.Currency + " " + s
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
