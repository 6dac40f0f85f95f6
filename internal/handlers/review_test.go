package handlers

import (
	"testing"

	"github.com/Hemant-G/ServiceSphere/internal/models"
)

func TestValidDetailedRatingsAcceptsNil(t *testing.T) {
	if !validDetailedRatings(nil) {
		t.Fatal("nil detailed ratings must be valid")
	}
}

func TestValidDetailedRatingsAcceptsPartialAspects(t *testing.T) {
	// Unset aspects stay zero and are simply not stored.
	dr := &models.DetailedRatings{Quality: 5, Punctuality: 3}
	if !validDetailedRatings(dr) {
		t.Fatalf("expected partial ratings to be valid: %+v", dr)
	}
}

func TestValidDetailedRatingsRejectsOutOfRange(t *testing.T) {
	cases := []*models.DetailedRatings{
		{Quality: 6},
		{Punctuality: -1},
		{Communication: 99},
	}
	for _, dr := range cases {
		if validDetailedRatings(dr) {
			t.Fatalf("expected %+v to be rejected", dr)
		}
	}
}
