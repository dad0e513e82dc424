package services

import (
	"context"
	"math"
	"regexp"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/types"
)

// Enricher derives a variant tag and a normalized quantity (mL) per offer.
// Text rules run first; offers whose quantity is still unknown go through
// the vision client with bounded fan-out. Vision never overwrites the
// text-derived variant or price.
type Enricher interface {
	Enrich(ctx context.Context, offers []types.Offer) ([]types.Offer, error)
}

type enricher struct {
	log           *logger.Logger
	vision        VisionClient
	maxConcurrent int
}

func NewEnricher(log *logger.Logger, vision VisionClient, maxConcurrent int) Enricher {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &enricher{
		log:           log.With("service", "Enricher"),
		vision:        vision,
		maxConcurrent: maxConcurrent,
	}
}

// quantityRules is an ordered cascade; the first matching pattern wins.
type quantityRule struct {
	re      *regexp.Regexp
	extract func(m []string) *int
}

var quantityRules = []quantityRule{
	{
		// "6 x 200ml", "6x200 ml", "4 * 1L"
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:x|\*)\s*(\d+(?:\.\d+)?)\s*(ml|l|liters?|litres?)`),
		extract: func(m []string) *int {
			count, err1 := strconv.ParseFloat(m[1], 64)
			each, err2 := strconv.ParseFloat(m[2], 64)
			if err1 != nil || err2 != nil {
				return nil
			}
			eachMl := each
			if litreUnitRe.MatchString(m[3]) {
				eachMl = each * 1000
			}
			return roundMl(count * eachMl)
		},
	},
	{
		// "1.5L", "2 L", "1 litre"
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(l|liters?|litres?)\b`),
		extract: func(m []string) *int {
			qty, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil
			}
			return roundMl(qty * 1000)
		},
	},
	{
		// "1000ml", "250 ml"
		re: regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*ml\b`),
		extract: func(m []string) *int {
			qty, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil
			}
			return roundMl(qty)
		},
	},
}

var litreUnitRe = regexp.MustCompile(`(?i)^(l|liters?|litres?)$`)

func roundMl(v float64) *int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n := int(math.Round(v))
	return &n
}

// ExtractQuantityML applies the quantity cascade to a title. Unmatched
// titles return nil.
func ExtractQuantityML(title string) *int {
	for _, rule := range quantityRules {
		if m := rule.re.FindStringSubmatch(title); m != nil {
			return rule.extract(m)
		}
	}
	return nil
}

// variantRules is an ordered keyword cascade over the fixed tag set; the
// default tag "milk" doubles as a generic category.
type variantRule struct {
	re  *regexp.Regexp
	tag string
}

var variantRules = []variantRule{
	{regexp.MustCompile(`(?i)(full[\s-]?cream|whole)`), "full-cream"},
	{regexp.MustCompile(`(?i)(lite|light|reduced\s*fat|low[-\s]?fat|smarter\s*white)`), "lite"},
	{regexp.MustCompile(`(?i)\bskim\b`), "skim"},
	{regexp.MustCompile(`(?i)\ba2\b`), "a2"},
	{regexp.MustCompile(`(?i)\borganic\b`), "organic"},
	{regexp.MustCompile(`(?i)(lactose\s*free|zymil|lactosefree)`), "lactose-free"},
	{regexp.MustCompile(`(?i)\bsoy\b|\bso\s?good\b`), "soy"},
	{regexp.MustCompile(`(?i)\balmond\b`), "almond"},
	{regexp.MustCompile(`(?i)\boat\b`), "oat"},
	{regexp.MustCompile(`(?i)\b(biscuits?|crackers?|chips?|snacks?)\b`), "snack"},
}

const defaultVariant = "milk"

// ExtractVariant tags a title with the first matching variant rule.
func ExtractVariant(title string) string {
	for _, rule := range variantRules {
		if rule.re.MatchString(title) {
			return rule.tag
		}
	}
	return defaultVariant
}

func (e *enricher) Enrich(ctx context.Context, offers []types.Offer) ([]types.Offer, error) {
	enriched := make([]types.Offer, len(offers))
	needVision := make([]int, 0, len(offers))

	for i, o := range offers {
		o.Variant = ExtractVariant(o.Title)
		o.QuantityMl = ExtractQuantityML(o.Title)
		o.Price = normalizePrice(o.Price)
		if o.QuantityMl == nil {
			needVision = append(needVision, i)
		}
		enriched[i] = o
	}

	if e.vision != nil && len(needVision) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.maxConcurrent)

		for _, idx := range needVision {
			idx := idx
			g.Go(func() error {
				ml, err := e.vision.ExtractQuantityML(gctx, enriched[idx].Image)
				if err != nil {
					// Failures are isolated to the one offer.
					e.log.Debug("Vision quantity extraction failed", "title", enriched[idx].Title, "error", err)
					return nil
				}
				if ml != nil {
					enriched[idx].QuantityMl = ml
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return enriched, nil
}
