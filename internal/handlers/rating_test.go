package handlers

import "testing"

func TestRecomputeAggregateEmptySetResetsToZero(t *testing.T) {
	got := recomputeAggregate(nil)
	if got.AverageRating != 0 || got.TotalReviews != 0 {
		t.Fatalf("expected zero pair for empty ratings, got %+v", got)
	}
}

func TestRecomputeAggregateRoundsToOneDecimal(t *testing.T) {
	got := recomputeAggregate([]float64{5, 4, 4})
	if got.AverageRating != 4.3 {
		t.Fatalf("expected 4.3, got %v", got.AverageRating)
	}
	if got.TotalReviews != 3 {
		t.Fatalf("expected 3 reviews, got %v", got.TotalReviews)
	}
}

func TestRecomputeAggregateSingleRating(t *testing.T) {
	got := recomputeAggregate([]float64{2})
	if got.AverageRating != 2 || got.TotalReviews != 1 {
		t.Fatalf("expected 2.0/1, got %+v", got)
	}
}

func TestRecomputeAggregateHalfwayRoundsUp(t *testing.T) {
	// mean 4.45 rounds to 4.5
	got := recomputeAggregate([]float64{4.4, 4.5})
	if got.AverageRating != 4.5 {
		t.Fatalf("expected 4.5, got %v", got.AverageRating)
	}
}
