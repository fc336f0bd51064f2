package pricing

import (
	"testing"

	"github.com/example/ride-booking-bot/internal/models"
)

func TestPrice(t *testing.T) {
	p := Pricer{BaseFare: 5.0, PerKmRate: 2.5, MinimumFare: 10.0, Currency: "R$"}
	cases := []struct {
		name      string
		km        float64
		vt        models.VehicleType
		wantTotal float64
		wantText  string
	}{
		{"normal ten km", 10, models.VehicleNormal, 30.00, "R$ 30,00"},
		{"minimum floor", 1, models.VehicleNormal, 10.00, "R$ 10,00"},
		{"zero distance", 0, models.VehicleNormal, 10.00, "R$ 10,00"},
		{"negative distance", -4, models.VehicleNormal, 10.00, "R$ 10,00"},
		{"comfort multiplier", 10, models.VehicleComfort, 37.50, "R$ 37,50"},
		{"premium multiplier", 10, models.VehiclePremium, 45.00, "R$ 45,00"},
		{"unknown class", 10, models.VehicleType("BUS"), 30.00, "R$ 30,00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Price(tc.km, tc.vt)
			if got.Total != tc.wantTotal {
				t.Fatalf("expected %.2f got %.2f", tc.wantTotal, got.Total)
			}
			if got.FormattedTotal != tc.wantText {
				t.Fatalf("expected %q got %q", tc.wantText, got.FormattedTotal)
			}
		})
	}
}

func TestPriceIsDeterministic(t *testing.T) {
	p := Pricer{BaseFare: 5.0, PerKmRate: 3.5, MinimumFare: 10.0}
	a := p.Price(7.31, models.VehicleComfort)
	b := p.Price(7.31, models.VehicleComfort)
	if a != b {
		t.Fatalf("expected identical results, got %+v and %+v", a, b)
	}
	if a.BaseFare != 5.0 || a.Multiplier != 1.3 {
		t.Fatalf("unexpected breakdown %+v", a)
	}
}
