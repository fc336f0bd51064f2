package ledger

import "github.com/example/ride-booking-bot/internal/models"

var transitions = map[models.RideStatus]map[models.RideStatus]struct{}{
	models.RidePending:    {models.RideScheduled: {}, models.RideConfirmed: {}, models.RideCancelled: {}},
	models.RideScheduled:  {models.RideConfirmed: {}, models.RideCancelled: {}},
	models.RideConfirmed:  {models.RideInProgress: {}, models.RideCancelled: {}},
	models.RideInProgress: {models.RideCompleted: {}, models.RideCancelled: {}},
	models.RideCompleted:  {},
	models.RideCancelled:  {},
}

// CanTransition reports whether a ride may move from one status to another.
func CanTransition(from, to models.RideStatus) bool {
	if from == to {
		return true
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}
