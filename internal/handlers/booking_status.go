package handlers

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

// invalidTransitionError reports the attempted source/target pair.
type invalidTransitionError struct {
	From models.BookingStatus
	To   models.BookingStatus
}

func (e invalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

// bookingTransitions is the full legality table: for each actor role, the
// states it may move a booking out of and where to. rejected, completed and
// cancelled are terminal for everyone.
var bookingTransitions = map[models.Role]map[models.BookingStatus][]models.BookingStatus{
	models.RoleCustomer: {
		models.BookingPending:  {models.BookingCancelled},
		models.BookingAccepted: {models.BookingCancelled},
	},
	models.RoleProvider: {
		models.BookingPending:    {models.BookingAccepted, models.BookingRejected},
		models.BookingAccepted:   {models.BookingInProgress},
		models.BookingInProgress: {models.BookingCompleted},
	},
}

func transitionAllowed(role models.Role, from, to models.BookingStatus) bool {
	for _, allowed := range bookingTransitions[role][from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// applyTransition validates a status change and returns the $set fields for
// it, including the status-change timestamp the new state requires. The
// stored booking is untouched when the transition is illegal.
func applyTransition(booking *models.Booking, role models.Role, to models.BookingStatus, reason string, now time.Time) (bson.M, error) {
	if !transitionAllowed(role, booking.Status, to) {
		return nil, invalidTransitionError{From: booking.Status, To: to}
	}

	update := bson.M{
		"status":    to,
		"updatedAt": now,
	}

	switch to {
	case models.BookingAccepted:
		update["acceptedAt"] = now
	case models.BookingInProgress:
		update["startedAt"] = now
	case models.BookingCompleted:
		update["completedAt"] = now
	case models.BookingCancelled:
		update["cancelledAt"] = now
		update["cancelledBy"] = role
		if reason != "" {
			update["cancellationReason"] = reason
		}
	}

	return update, nil
}
