package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/types"
)

func TestExtractQuantityML(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  *int
	}{
		{name: "multipack_ml", title: "Le Snak 6 x 200ml", want: intPtr(1200)},
		{name: "multipack_litres", title: "Milk 2 x 1L", want: intPtr(2000)},
		{name: "decimal_litres", title: "Dairy Farmers 1.5 L", want: intPtr(1500)},
		{name: "litre_word", title: "Full Cream Milk 1 litre", want: intPtr(1000)},
		{name: "plain_ml", title: "Thickened Cream 250 mL", want: intPtr(250)},
		{name: "ml_no_space", title: "Oat Milk 1000ml", want: intPtr(1000)},
		{name: "multipack_wins_over_single", title: "6 x 200ml multipack 1.2L total", want: intPtr(1200)},
		{name: "no_match", title: "Cheese and Bacon Crackers", want: nil},
		{name: "empty", title: "", want: nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractQuantityML(tc.title)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("ExtractQuantityML(%q)=%v, want %v", tc.title, got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("ExtractQuantityML(%q)=%d, want %d", tc.title, *got, *tc.want)
			}
		})
	}
}

func TestExtractVariant(t *testing.T) {
	cases := []struct {
		name  string
		title string
		want  string
	}{
		{name: "full_cream_before_a2", title: "A2 Full Cream Milk 1L", want: "full-cream"},
		{name: "whole", title: "Whole Milk 2L", want: "full-cream"},
		{name: "lactose_free_brand", title: "Zymil Lactose Free 1L", want: "lactose-free"},
		{name: "skim", title: "Skim Milk 1L", want: "skim"},
		{name: "a2", title: "a2 Milk 1L", want: "a2"},
		{name: "organic", title: "Organic Milk 1L", want: "organic"},
		{name: "soy_brand", title: "So Good Original 1L", want: "soy"},
		{name: "almond", title: "Almond Breeze 1L", want: "almond"},
		{name: "oat", title: "Oat Drink Barista", want: "oat"},
		{name: "snack_crackers", title: "Cheese and Bacon Crackers", want: "snack"},
		{name: "snack_chips", title: "Doritos Corn Chips 170g", want: "snack"},
		{name: "default", title: "Dairy Farmers 1L", want: "milk"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVariant(tc.title); got != tc.want {
				t.Fatalf("ExtractVariant(%q)=%q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestNormalizePrice(t *testing.T) {
	cases := []struct {
		name  string
		price string
		want  string
	}{
		{name: "dollar_sign", price: "$4.50", want: "$4.50"},
		{name: "currency_prefix", price: "AUD 12", want: "$12.00"},
		{name: "comma_decimal", price: "3,99", want: "$3.99"},
		{name: "unparseable_passthrough", price: "Call for price", want: "Call for price"},
		{name: "empty_passthrough", price: "", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizePrice(tc.price); got != tc.want {
				t.Fatalf("normalizePrice(%q)=%q, want %q", tc.price, got, tc.want)
			}
		})
	}
}

type fakeVisionClient struct {
	quantities map[string]int
	errURLs    map[string]bool
	calls      int
}

func (f *fakeVisionClient) ExtractQuantityML(ctx context.Context, imageURL string) (*int, error) {
	f.calls++
	if f.errURLs[imageURL] {
		return nil, fmt.Errorf("vision unavailable")
	}
	if ml, ok := f.quantities[imageURL]; ok {
		return &ml, nil
	}
	return nil, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestEnrichTextRulesFirst(t *testing.T) {
	vision := &fakeVisionClient{quantities: map[string]int{}}
	e := NewEnricher(testLogger(t), vision, 2)

	offers := []types.Offer{
		{Title: "Full Cream Milk 1L", Price: "4.50", Image: "img-a"},
	}
	got, err := e.Enrich(context.Background(), offers)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got[0].Variant != "full-cream" {
		t.Fatalf("variant=%q, want full-cream", got[0].Variant)
	}
	if got[0].QuantityMl == nil || *got[0].QuantityMl != 1000 {
		t.Fatalf("quantity=%v, want 1000", got[0].QuantityMl)
	}
	if got[0].Price != "$4.50" {
		t.Fatalf("price=%q, want $4.50", got[0].Price)
	}
	if vision.calls != 0 {
		t.Fatalf("vision called %d times for a title-resolved quantity", vision.calls)
	}
}

func TestEnrichVisionFallback(t *testing.T) {
	vision := &fakeVisionClient{
		quantities: map[string]int{"img-known": 1000},
		errURLs:    map[string]bool{"img-broken": true},
	}
	e := NewEnricher(testLogger(t), vision, 2)

	offers := []types.Offer{
		{Title: "Full Cream Milk", Price: "3.00", Image: "img-known"},
		{Title: "Skim Milk", Price: "2.80", Image: "img-broken"},
		{Title: "Oat Milk", Price: "4.00", Image: "img-unknown"},
	}
	got, err := e.Enrich(context.Background(), offers)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if got[0].QuantityMl == nil || *got[0].QuantityMl != 1000 {
		t.Fatalf("offer 0 quantity=%v, want 1000 from vision", got[0].QuantityMl)
	}
	// Vision failure is isolated to the one offer.
	if got[1].QuantityMl != nil {
		t.Fatalf("offer 1 quantity=%v, want nil after vision error", got[1].QuantityMl)
	}
	if got[2].QuantityMl != nil {
		t.Fatalf("offer 2 quantity=%v, want nil for unsure model", got[2].QuantityMl)
	}
	// Vision never overwrites text-derived fields.
	if got[0].Variant != "full-cream" || got[1].Variant != "skim" {
		t.Fatalf("variants changed by vision pass: %q, %q", got[0].Variant, got[1].Variant)
	}
	if vision.calls != 3 {
		t.Fatalf("vision calls=%d, want 3", vision.calls)
	}
}

func TestEnrichWithoutVisionClient(t *testing.T) {
	e := NewEnricher(testLogger(t), nil, 2)
	got, err := e.Enrich(context.Background(), []types.Offer{{Title: "Milk", Price: "2.00", Image: "img"}})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got[0].QuantityMl != nil {
		t.Fatalf("quantity=%v, want nil with vision disabled", got[0].QuantityMl)
	}
}

func intPtr(v int) *int { return &v }
