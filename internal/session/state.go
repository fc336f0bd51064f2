package session

// State is the dialogue stage of one requester.
type State int

const (
	Idle State = iota
	WaitingOrigin
	ConfirmingOrigin
	WaitingDestination
	ConfirmingDestination
	WaitingVehicleType
	WaitingConfirmation
	WaitingSchedule
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case WaitingOrigin:
		return "waiting_origin"
	case ConfirmingOrigin:
		return "confirming_origin"
	case WaitingDestination:
		return "waiting_destination"
	case ConfirmingDestination:
		return "confirming_destination"
	case WaitingVehicleType:
		return "waiting_vehicle_type"
	case WaitingConfirmation:
		return "waiting_confirmation"
	case WaitingSchedule:
		return "waiting_schedule"
	}
	return "unknown"
}
