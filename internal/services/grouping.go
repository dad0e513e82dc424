package services

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dealscout/backend/internal/types"
)

// Grouper buckets enriched offers by (variant, quantity), orders each bucket
// by ascending price, and produces named, stably-identified groups. Groups
// are recomputed on every request and never persisted.
type Grouper interface {
	Group(offers []types.Offer) []types.Group
}

type grouper struct{}

func NewGrouper() Grouper {
	return &grouper{}
}

// GroupID derives the synthetic group id from the bucket key. Stable across
// runs for the same key.
func GroupID(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:24]
}

// QuantityLabel renders a quantity for display: millilitres below a litre,
// litres with two decimals at or above.
func QuantityLabel(ml *int) string {
	if ml == nil {
		return "unknown size"
	}
	if *ml >= 1000 {
		return fmt.Sprintf("%.2f L", float64(*ml)/1000)
	}
	return fmt.Sprintf("%d mL", *ml)
}

func bucketKey(o types.Offer) string {
	qty := "unknown"
	if o.QuantityMl != nil {
		qty = strconv.Itoa(*o.QuantityMl)
	}
	variant := o.Variant
	if variant == "" {
		variant = defaultVariant
	}
	return variant + "|" + qty
}

func groupName(variant string, ml *int) string {
	label := strings.ReplaceAll(variant, "-", " ")
	return label + " — " + QuantityLabel(ml)
}

func (g *grouper) Group(offers []types.Offer) []types.Group {
	buckets := map[string][]types.Offer{}
	order := []string{}
	for _, o := range offers {
		key := bucketKey(o)
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
		}
		buckets[key] = append(buckets[key], o)
	}

	groups := make([]types.Group, 0, len(buckets))
	for _, key := range order {
		arr := buckets[key]

		// Ascending numeric price; unparseable prices keep their relative
		// order at the end.
		sort.SliceStable(arr, func(i, j int) bool {
			pi, oki := parsePrice(arr[i].Price)
			pj, okj := parsePrice(arr[j].Price)
			if !oki && !okj {
				return false
			}
			if !oki {
				return false
			}
			if !okj {
				return true
			}
			return pi < pj
		})

		parts := strings.SplitN(key, "|", 2)
		variant := parts[0]
		var ml *int
		if parts[1] != "unknown" {
			if v, err := strconv.Atoi(parts[1]); err == nil {
				ml = &v
			}
		}

		groups = append(groups, types.Group{
			Product: types.GroupRef{
				ID:   GroupID(key),
				Name: groupName(variant, ml),
			},
			Deals:  arr,
			Source: "db",
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Product.Name < groups[j].Product.Name
	})
	return groups
}
