package dialogue

import (
	"strings"

	"github.com/example/ride-booking-bot/internal/models"
)

var vehicleKeywords = []struct {
	vt    models.VehicleType
	num   string
	words []string
}{
	{models.VehicleNormal, "1", []string{"normal", "econom", "econôm", "basic", "básico", "basico"}},
	{models.VehicleComfort, "2", []string{"comfort", "conforto"}},
	{models.VehiclePremium, "3", []string{"premium", "luxo", "executivo", "executive"}},
}

// ClassifyVehicle maps a reply to a vehicle class by option number or
// keyword. ok is false when nothing matched and NORMAL was used.
func ClassifyVehicle(text string) (vt models.VehicleType, ok bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, v := range vehicleKeywords {
		if t == v.num {
			return v.vt, true
		}
	}
	for _, v := range vehicleKeywords {
		for _, w := range v.words {
			if strings.Contains(t, w) {
				return v.vt, true
			}
		}
	}
	// unmatched text books the base class
	return models.VehicleNormal, false
}
