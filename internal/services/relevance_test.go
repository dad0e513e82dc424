package services

import (
	"testing"

	"github.com/dealscout/backend/internal/types"
)

func newTestFilter(t *testing.T) RelevanceFilter {
	t.Helper()
	return NewRelevanceFilter(testLogger(t), DefaultRelevanceRules(), []string{"Woolworths", "Coles"})
}

func TestFilterDropsApparelForGroceryQuery(t *testing.T) {
	f := newTestFilter(t)

	offers := []types.Offer{
		{Title: "Full Cream Milk 1L", Source: "Woolworths", Price: "$3.10"},
		{Title: "Nike Running Shoes", Source: "Rebel Sport", Price: "$120.00"},
	}
	got := f.Filter(offers, "milk")
	if len(got) != 1 {
		t.Fatalf("kept %d offers, want 1", len(got))
	}
	if got[0].Title != "Full Cream Milk 1L" {
		t.Fatalf("kept %q, want the milk offer", got[0].Title)
	}
}

func TestFilterDropsPriceOutliers(t *testing.T) {
	f := newTestFilter(t)

	offers := []types.Offer{
		{Title: "Full Cream Milk 1L", Source: "A", Price: "$2.00"},
		{Title: "Full Cream Milk 2L", Source: "B", Price: "$2.50"},
		{Title: "Lite Milk 1L", Source: "C", Price: "$3.00"},
		{Title: "Skim Milk 1L", Source: "D", Price: "$3.20"},
		{Title: "Milk Collector Edition", Source: "E", Price: "$40.00"},
	}
	got := f.Filter(offers, "milk")
	// median 3.00, threshold 12.00
	for _, o := range got {
		if o.Price == "$40.00" {
			t.Fatalf("outlier offer survived the median filter")
		}
	}
	if len(got) != 4 {
		t.Fatalf("kept %d offers, want 4", len(got))
	}
}

func TestFilterKeepsUnparseablePrices(t *testing.T) {
	f := newTestFilter(t)

	offers := []types.Offer{
		{Title: "Full Cream Milk 1L", Source: "A", Price: "$2.00"},
		{Title: "Full Cream Milk 2L", Source: "B", Price: "$2.50"},
		{Title: "Lite Milk 1L", Source: "C", Price: "$3.00"},
		{Title: "Skim Milk 1L", Source: "D", Price: "see site"},
	}
	got := f.Filter(offers, "milk")
	found := false
	for _, o := range got {
		if o.Price == "see site" {
			found = true
		}
	}
	if !found {
		t.Fatalf("offer with unparseable price was dropped")
	}
}

func TestFilterRelaxesThresholdWhenEmpty(t *testing.T) {
	f := newTestFilter(t)

	// One weak-overlap offer: below the strict threshold, above the
	// relaxed one.
	offers := []types.Offer{
		{Title: "milk frother handheld electric foam maker kitchen gadget tool", Source: "gadget depot", Price: "$19.00"},
	}
	got := f.Filter(offers, "organic almond milk unsweetened barista edition")
	if len(got) != 1 {
		t.Fatalf("kept %d offers, want 1 via relaxed threshold", len(got))
	}
}

func TestFilterDeduplicatesTitleAndSource(t *testing.T) {
	f := newTestFilter(t)

	offers := []types.Offer{
		{Title: "Full Cream Milk 1L", Source: "Woolworths", Price: "$3.10"},
		{Title: "Full  Cream Milk 1L!", Source: "woolworths", Price: "$3.50"},
		{Title: "Full Cream Milk 1L", Source: "Coles", Price: "$3.20"},
	}
	got := f.Filter(offers, "milk")
	if len(got) != 2 {
		t.Fatalf("kept %d offers, want 2 after dedupe", len(got))
	}
	if got[0].Price != "$3.10" {
		t.Fatalf("dedupe kept %q, want the first occurrence", got[0].Price)
	}
}

func TestFilterEmptyInput(t *testing.T) {
	f := newTestFilter(t)
	if got := f.Filter(nil, "milk"); len(got) != 0 {
		t.Fatalf("Filter(nil)=%v, want empty", got)
	}
}

func TestMatchesAllowedSource(t *testing.T) {
	cases := []struct {
		name  string
		offer types.Offer
		want  bool
	}{
		{name: "source_match", offer: types.Offer{Source: "Big W"}, want: true},
		{name: "link_match", offer: types.Offer{Source: "Marketplace", Link: "https://www.bigw.com.au/product/1"}, want: true},
		{name: "no_match", offer: types.Offer{Source: "Rebel Sport", Link: "https://rebel.example"}, want: false},
	}
	allowed := []string{"Big W"}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesAllowedSource(tc.offer, allowed); got != tc.want {
				t.Fatalf("matchesAllowedSource=%v, want %v", got, tc.want)
			}
		})
	}
}
