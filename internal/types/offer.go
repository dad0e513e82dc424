package types

import "time"

// Offer is one seller's listing for a product, normalized from the search
// provider and later enriched in place with Variant/QuantityMl. Enrichment
// runs to completion before grouping; an offer is never partially enriched.
type Offer struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Image     string    `json:"image"`
	Price     string    `json:"price"`
	Source    string    `json:"source"`
	Rating    *float64  `json:"rating"`
	Reviews   *int      `json:"reviews"`
	FetchedAt time.Time `json:"fetchedAt"`

	// Attached for client-side re-grouping.
	ProductName string `json:"productName,omitempty"`

	// Derived attributes.
	Variant    string `json:"variant,omitempty"`
	QuantityMl *int   `json:"quantityMl,omitempty"`
}

// GroupRef is the synthetic identity of a comparison bucket.
type GroupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Group is a transient response object; only the underlying offers are cached.
type Group struct {
	Product  GroupRef `json:"product"`
	Deals    []Offer  `json:"deals"`
	Source   string   `json:"source"`
	RootName string   `json:"rootName,omitempty"`
}
