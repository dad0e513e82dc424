package services

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dealscout/backend/internal/logger"
	"github.com/dealscout/backend/internal/types"
)

// RelevanceFilter scores raw offers against a query hint and discards
// off-topic, outlier-priced, and duplicate results.
type RelevanceFilter interface {
	Filter(offers []types.Offer, queryHint string) []types.Offer
}

type relevanceFilter struct {
	log            *logger.Logger
	rules          *RelevanceRules
	stopwords      map[string]struct{}
	allowedSources []string
}

func NewRelevanceFilter(log *logger.Logger, rules *RelevanceRules, allowedSources []string) RelevanceFilter {
	if rules == nil {
		rules = DefaultRelevanceRules()
	}
	stop := make(map[string]struct{}, len(rules.Stopwords))
	for _, w := range rules.Stopwords {
		stop[w] = struct{}{}
	}
	return &relevanceFilter{
		log:            log.With("service", "RelevanceFilter"),
		rules:          rules,
		stopwords:      stop,
		allowedSources: allowedSources,
	}
}

var (
	normalizeRe  = regexp.MustCompile(`[^a-z0-9\s\.\-\+]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	alnumOnlyRe  = regexp.MustCompile(`[^a-z0-9]`)
)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = normalizeRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func (f *relevanceFilter) tokenize(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range strings.Fields(normalizeText(s)) {
		if _, stop := f.stopwords[t]; stop {
			continue
		}
		out[t] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func containsAny(s string, phrases []string) bool {
	norm := normalizeText(s)
	for _, p := range phrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// sanitizeSource collapses a seller name or link down to lowercase
// alphanumerics so "Big W" matches "bigw.com.au".
func sanitizeSource(s string) string {
	return alnumOnlyRe.ReplaceAllString(strings.ToLower(s), "")
}

// matchesAllowedSource reports whether the offer's seller or link matches the
// retailer allow-list.
func matchesAllowedSource(offer types.Offer, allowed []string) bool {
	source := sanitizeSource(offer.Source)
	link := sanitizeSource(offer.Link)
	for _, a := range allowed {
		want := sanitizeSource(a)
		if want == "" {
			continue
		}
		if strings.Contains(source, want) || strings.Contains(link, want) {
			return true
		}
	}
	return false
}

func (f *relevanceFilter) score(offer types.Offer, query string) float64 {
	tSet := f.tokenize(offer.Title + " " + offer.Source)
	qSet := f.tokenize(query)

	score := jaccard(tSet, qSet) * 2

	tNorm := normalizeText(offer.Title)
	qNorm := normalizeText(query)
	if qNorm != "" && strings.Contains(tNorm, qNorm) {
		score += 1.5
	}

	if containsAny(offer.Title, f.rules.BrandPhrases) {
		score += 0.6
	}

	// Wrong-category penalty: apparel hits on a grocery-looking query.
	if containsAny(query, f.rules.GroceryTokens) && containsAny(offer.Title, f.rules.ApparelTokens) {
		score -= 2.5
	}

	if containsAny(offer.Source, f.rules.Retailers) || matchesAllowedSource(offer, f.allowedSources) {
		score += 0.2
	}

	return score
}

func (f *relevanceFilter) Filter(offers []types.Offer, queryHint string) []types.Offer {
	if len(offers) == 0 {
		return []types.Offer{}
	}

	keepAbove := func(threshold float64) []types.Offer {
		kept := make([]types.Offer, 0, len(offers))
		for _, o := range offers {
			if f.score(o, queryHint) >= threshold {
				kept = append(kept, o)
			}
		}
		return kept
	}

	kept := keepAbove(0.15)
	if len(kept) == 0 {
		// Too aggressive for this query; relax slightly.
		kept = keepAbove(0.05)
	}

	kept = dropPriceOutliers(kept)

	seen := map[string]struct{}{}
	deduped := make([]types.Offer, 0, len(kept))
	for _, o := range kept {
		key := normalizeText(o.Title) + "|" + normalizeText(o.Source)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, o)
	}

	return deduped
}

// dropPriceOutliers removes offers priced above 4x the median when at least
// three offers have parseable prices. Unparseable prices are always kept.
func dropPriceOutliers(offers []types.Offer) []types.Offer {
	nums := make([]float64, 0, len(offers))
	for _, o := range offers {
		if p, ok := parsePrice(o.Price); ok {
			nums = append(nums, p)
		}
	}
	if len(nums) < 3 {
		return offers
	}
	sort.Float64s(nums)
	median := nums[len(nums)/2]

	kept := make([]types.Offer, 0, len(offers))
	for _, o := range offers {
		p, ok := parsePrice(o.Price)
		if ok && p > median*4 {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}
