package handlers

import (
	"testing"
	"time"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

func TestCustomerCanCancelPendingAndAccepted(t *testing.T) {
	for _, from := range []models.BookingStatus{models.BookingPending, models.BookingAccepted} {
		if !transitionAllowed(models.RoleCustomer, from, models.BookingCancelled) {
			t.Fatalf("expected customer to cancel a %s booking", from)
		}
	}
}

func TestCustomerCannotDriveProviderTransitions(t *testing.T) {
	cases := []struct {
		from, to models.BookingStatus
	}{
		{models.BookingPending, models.BookingAccepted},
		{models.BookingPending, models.BookingRejected},
		{models.BookingAccepted, models.BookingInProgress},
		{models.BookingInProgress, models.BookingCompleted},
	}
	for _, tc := range cases {
		if transitionAllowed(models.RoleCustomer, tc.from, tc.to) {
			t.Fatalf("customer must not move %s to %s", tc.from, tc.to)
		}
	}
}

func TestProviderLifecycleTransitions(t *testing.T) {
	cases := []struct {
		from, to models.BookingStatus
	}{
		{models.BookingPending, models.BookingAccepted},
		{models.BookingPending, models.BookingRejected},
		{models.BookingAccepted, models.BookingInProgress},
		{models.BookingInProgress, models.BookingCompleted},
	}
	for _, tc := range cases {
		if !transitionAllowed(models.RoleProvider, tc.from, tc.to) {
			t.Fatalf("expected provider to move %s to %s", tc.from, tc.to)
		}
	}
}

func TestProviderCannotCancelOrSkipStates(t *testing.T) {
	cases := []struct {
		from, to models.BookingStatus
	}{
		{models.BookingPending, models.BookingCancelled},
		{models.BookingAccepted, models.BookingCancelled},
		{models.BookingPending, models.BookingCompleted},
		{models.BookingAccepted, models.BookingCompleted},
	}
	for _, tc := range cases {
		if transitionAllowed(models.RoleProvider, tc.from, tc.to) {
			t.Fatalf("provider must not move %s to %s", tc.from, tc.to)
		}
	}
}

func TestTerminalStatesAreFrozen(t *testing.T) {
	terminal := []models.BookingStatus{models.BookingRejected, models.BookingCompleted, models.BookingCancelled}
	targets := []models.BookingStatus{
		models.BookingPending, models.BookingAccepted, models.BookingRejected,
		models.BookingInProgress, models.BookingCompleted, models.BookingCancelled,
	}
	for _, role := range []models.Role{models.RoleCustomer, models.RoleProvider} {
		for _, from := range terminal {
			for _, to := range targets {
				if transitionAllowed(role, from, to) {
					t.Fatalf("%s must not move terminal %s to %s", role, from, to)
				}
			}
		}
	}
}

func TestApplyTransitionStampsTimestamps(t *testing.T) {
	now := time.Now()
	cases := []struct {
		role  models.Role
		from  models.BookingStatus
		to    models.BookingStatus
		stamp string
	}{
		{models.RoleProvider, models.BookingPending, models.BookingAccepted, "acceptedAt"},
		{models.RoleProvider, models.BookingAccepted, models.BookingInProgress, "startedAt"},
		{models.RoleProvider, models.BookingInProgress, models.BookingCompleted, "completedAt"},
		{models.RoleCustomer, models.BookingPending, models.BookingCancelled, "cancelledAt"},
	}
	for _, tc := range cases {
		booking := &models.Booking{Status: tc.from}
		update, err := applyTransition(booking, tc.role, tc.to, "", now)
		if err != nil {
			t.Fatalf("transition %s -> %s by %s failed: %v", tc.from, tc.to, tc.role, err)
		}
		if update["status"] != tc.to {
			t.Fatalf("expected status %s in update, got %v", tc.to, update["status"])
		}
		if _, ok := update[tc.stamp]; !ok {
			t.Fatalf("expected %s to be stamped for %s", tc.stamp, tc.to)
		}
	}
}

func TestApplyTransitionRecordsCancellation(t *testing.T) {
	booking := &models.Booking{Status: models.BookingAccepted}
	update, err := applyTransition(booking, models.RoleCustomer, models.BookingCancelled, "changed my mind", time.Now())
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if update["cancelledBy"] != models.RoleCustomer {
		t.Fatalf("expected cancelledBy customer, got %v", update["cancelledBy"])
	}
	if update["cancellationReason"] != "changed my mind" {
		t.Fatalf("expected cancellation reason to be kept, got %v", update["cancellationReason"])
	}
}

func TestApplyTransitionRejectsIllegalMove(t *testing.T) {
	booking := &models.Booking{Status: models.BookingCompleted}
	update, err := applyTransition(booking, models.RoleCustomer, models.BookingCancelled, "", time.Now())
	if err == nil {
		t.Fatal("expected error for completed -> cancelled")
	}
	if update != nil {
		t.Fatalf("expected no update fields on illegal transition, got %v", update)
	}
	if booking.Status != models.BookingCompleted {
		t.Fatalf("booking status must be untouched, got %s", booking.Status)
	}
}
