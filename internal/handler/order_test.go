package handler

import (
	"testing"

	"github.com/AntonKrinichnyi/CineFlow/internal/model"
	"github.com/shopspring/decimal"
)

func TestSplitCheckoutItems(t *testing.T) {
	items := []model.CartItemDetail{
		{MovieID: 1, Name: "Heat", Price: decimal.NewFromInt(10), IsAvailable: true},
		{MovieID: 2, Name: "Withdrawn", Price: decimal.NewFromInt(8), IsAvailable: false},
		{MovieID: 3, Name: "Owned", Price: decimal.NewFromInt(12), IsAvailable: true, Purchased: true},
		{MovieID: 4, Name: "Ronin", Price: decimal.NewFromInt(9), IsAvailable: true},
	}

	keep, excluded := SplitCheckoutItems(items)

	if len(keep) != 2 {
		t.Fatalf("len(keep) = %d, want 2", len(keep))
	}
	if keep[0].MovieID != 1 || keep[1].MovieID != 4 {
		t.Errorf("kept ids = %d, %d, want 1, 4", keep[0].MovieID, keep[1].MovieID)
	}

	if len(excluded) != 2 {
		t.Fatalf("len(excluded) = %d, want 2", len(excluded))
	}
	if excluded[0].MovieID != 2 || excluded[0].Reason != "no longer available" {
		t.Errorf("excluded[0] = %+v", excluded[0])
	}
	if excluded[1].MovieID != 3 || excluded[1].Reason != "already purchased" {
		t.Errorf("excluded[1] = %+v", excluded[1])
	}
}

func TestSplitCheckoutItemsPurchasedBeatsUnavailable(t *testing.T) {
	// A title that was bought and later withdrawn reads as already owned.
	items := []model.CartItemDetail{
		{MovieID: 5, Name: "Gone", IsAvailable: false, Purchased: true},
	}
	keep, excluded := SplitCheckoutItems(items)
	if len(keep) != 0 {
		t.Fatalf("len(keep) = %d, want 0", len(keep))
	}
	if len(excluded) != 1 || excluded[0].Reason != "already purchased" {
		t.Fatalf("excluded = %+v, want reason already purchased", excluded)
	}
}

func TestSplitCheckoutItemsAllGood(t *testing.T) {
	items := []model.CartItemDetail{
		{MovieID: 1, Name: "A", IsAvailable: true},
		{MovieID: 2, Name: "B", IsAvailable: true},
	}
	keep, excluded := SplitCheckoutItems(items)
	if len(keep) != 2 || len(excluded) != 0 {
		t.Fatalf("keep = %d, excluded = %d, want 2, 0", len(keep), len(excluded))
	}
}
