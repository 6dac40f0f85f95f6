package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingAccepted   BookingStatus = "accepted"
	BookingRejected   BookingStatus = "rejected"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingRejected, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	}
	return false
}

type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Customer      primitive.ObjectID `bson:"customer" json:"customer"`
	Provider      primitive.ObjectID `bson:"provider" json:"provider"`
	Service       primitive.ObjectID `bson:"service" json:"service"`
	ScheduledDate time.Time          `bson:"scheduledDate" json:"scheduledDate"`
	Status        BookingStatus      `bson:"status" json:"status"`

	// TotalPrice is snapshotted from the service at creation time and never
	// follows later price edits.
	TotalPrice float64 `bson:"totalPrice" json:"totalPrice"`

	Notes           string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CustomerAddress Address    `bson:"customerAddress,omitempty" json:"customerAddress"`
	ContactPhone    string     `bson:"contactPhone" json:"contactPhone"`
	CustomerImages  []MediaRef `bson:"customerImages" json:"customerImages"`

	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`

	AcceptedAt         *time.Time `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	StartedAt          *time.Time `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt        *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt        *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy        Role       `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancellationReason string     `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
