package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RelevanceRules are the keyword tables behind relevance scoring. Defaults
// are compiled in; a deployment can override any table from a YAML file so
// the domain vocabulary can grow without a rebuild.
type RelevanceRules struct {
	Stopwords     []string `yaml:"stopwords"`
	ApparelTokens []string `yaml:"apparel_tokens"`
	GroceryTokens []string `yaml:"grocery_tokens"`
	BrandPhrases  []string `yaml:"brand_phrases"`
	Retailers     []string `yaml:"retailers"`
}

func DefaultRelevanceRules() *RelevanceRules {
	return &RelevanceRules{
		Stopwords: []string{
			"the", "a", "an", "and", "or", "of", "for", "with", "to", "on", "at", "by", "from", "in",
			"pack", "pcs", "each", "new", "set", "box",
		},
		ApparelTokens: []string{
			"shoe", "sneaker", "trainer", "sandals", "boot", "heels", "clog", "flip", "thong",
			"dress", "skirt", "top", "tee", "t-shirt", "shirt", "polo", "jumper", "hoodie", "sweater",
			"jacket", "coat", "jeans", "pants", "shorts", "tracksuit", "activewear", "sock", "belt",
			"cap", "hat", "bag", "wallet", "watch", "ring", "necklace", "earring", "sunglass", "scarf",
			"mens", "women", "kids", "boy", "girl", "size", "colour", "black", "white", "blue", "green",
			"lacoste", "nike", "adidas", "puma", "reebok", "asics", "new balance", "under armour",
		},
		GroceryTokens: []string{
			"milk", "cream", "cheese", "butter", "yoghurt", "yogurt", "bread", "cereal", "chips",
			"snack", "snacks", "biscuits", "biscuit", "cracker", "dip", "chocolate", "chocolates",
			"coffee", "tea", "sugar", "salt", "oil", "olive", "canola", "dishwashing", "detergent",
			"soap", "shampoo", "toothpaste", "juice", "soda", "soft", "drink", "water",
		},
		BrandPhrases: []string{
			"uncle toby", "uncle tobys", "le snak", "le snack", "doritos", "full cream",
			"skim", "lite", "light", "zymil", "farmhouse", "coles", "woolworths",
		},
		Retailers: []string{
			"woolworths", "coles", "aldi", "iga", "harris farm", "big w", "kmart",
			"chemwarehouse", "chemist", "amazon", "costco", "dan murphy",
		},
	}
}

// LoadRelevanceRules reads rule tables from a YAML file, falling back to the
// compiled-in table for any section the file omits.
func LoadRelevanceRules(path string) (*RelevanceRules, error) {
	rules := DefaultRelevanceRules()
	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read relevance rules: %w", err)
	}

	var override RelevanceRules
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse relevance rules: %w", err)
	}

	if len(override.Stopwords) > 0 {
		rules.Stopwords = override.Stopwords
	}
	if len(override.ApparelTokens) > 0 {
		rules.ApparelTokens = override.ApparelTokens
	}
	if len(override.GroceryTokens) > 0 {
		rules.GroceryTokens = override.GroceryTokens
	}
	if len(override.BrandPhrases) > 0 {
		rules.BrandPhrases = override.BrandPhrases
	}
	if len(override.Retailers) > 0 {
		rules.Retailers = override.Retailers
	}
	return rules, nil
}
