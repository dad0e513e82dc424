package services

import (
	"context"
	"testing"

	"github.com/dealscout/backend/internal/types"
)

func TestSuggestReturnsMatches(t *testing.T) {
	repo := newFakeProductRepo(
		seededProduct("Full Cream Milk"),
		seededProduct("Oat Milk"),
		seededProduct("Cheddar Cheese"),
	)
	ps := NewProductService(nil, testLogger(t), repo)

	got, err := ps.Suggest(context.Background(), "milk")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	for _, s := range got {
		if s.ID == nil {
			t.Fatalf("stored product suggestion %q has nil id", s.Name)
		}
		if s.Category != types.DefaultCategory {
			t.Fatalf("suggestion %q category=%q", s.Name, s.Category)
		}
	}
}

func TestSuggestFallbackEchoesQuery(t *testing.T) {
	ps := NewProductService(nil, testLogger(t), newFakeProductRepo())

	got, err := ps.Suggest(context.Background(), "dragonfruit")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1 fallback", len(got))
	}
	s := got[0]
	if s.ID != nil {
		t.Fatalf("fallback suggestion has id %v, want nil", s.ID)
	}
	if s.Name != "dragonfruit" || s.Category != types.DefaultCategory {
		t.Fatalf("fallback suggestion = %+v", s)
	}
}
