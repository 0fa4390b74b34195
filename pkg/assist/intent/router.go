package intent

import (
	"regexp"
	"strings"

	"shopassist-be/pkg/assist/state"
)

// Type is the coarse handling path for a turn.
type Type string

const (
	SalesCoaching    Type = "SALES_COACHING"
	GeneralInfo      Type = "GENERAL_INFO"
	Comparison       Type = "COMPARISON"
	ProductDeepdive  Type = "PRODUCT_DEEPDIVE"
	ProductDiscovery Type = "PRODUCT_DISCOVERY"
)

// Intent is the routing decision for one turn. Computed fresh per turn and
// never persisted.
type Intent struct {
	Type            Type    `json:"type"`
	NeedCompare     bool    `json:"need_compare"`
	AskSpecs        bool    `json:"ask_specs"`
	AskAlternatives bool    `json:"ask_alternatives"`
	AskDetails      bool    `json:"ask_details"`
	NeedsCatalogue  bool    `json:"needs_catalogue"`
	NeedsReviews    bool    `json:"needs_reviews"`
	Confidence      float64 `json:"confidence"`
}

// input is the normalized view of a turn the rules match against.
type input struct {
	text        string // lowercased
	state       *state.ConversationState
	explicitSKU string
}

// rule pairs a predicate with the intent it produces. Rules are evaluated in
// declaration order; the first match wins, so specificity must come before
// generality in the table.
type rule struct {
	name    string
	matches func(in input) bool
	build   func(in input) Intent
}

var (
	skuPattern        = regexp.MustCompile(`(?i)\b(?:sku|item|model)\s*#?\s*:?\s*([a-z0-9][a-z0-9-]{3,})\b|\b(\d{5,8})\b`)
	comparePattern    = regexp.MustCompile(`(?i)\b(vs\.?|versus|compare[ds]?|difference between|better than|or the)\b`)
	specsPattern      = regexp.MustCompile(`(?i)\b(spec|specs|specification|refresh rate|resolution|dimensions?|wattage|weight|ports?|battery)\b`)
	alternativePattern = regexp.MustCompile(`(?i)\b(alternative|instead|similar|something else|other options?)\b`)
	reviewPattern     = regexp.MustCompile(`(?i)\b(review|rating|rated|customers? (say|think)|feedback)\b`)
	budgetPattern     = regexp.MustCompile(`(?i)(\$\s?\d+|\b\d+\s?(dollars|bucks)\b|\bunder\s+\d+|\bbelow\s+\d+|\baround\s+\d+)`)
	// budgetSpanPattern removes money expressions before SKU matching so a
	// phrase like "under 10000" is never mistaken for a bare SKU.
	budgetSpanPattern = regexp.MustCompile(`(?i)(?:under|below|around|over|above|less than|up to)\s+\$?\d+k?\b|\$\s?\d+k?\b|\b\d+\s?(?:dollars|bucks)\b`)
)

var coachingPhrases = []string{
	"what should i say", "how do i respond", "how should i answer",
	"customer is upset", "customer says", "customer thinks", "objection",
	"complaint", "too expensive for them", "they are hesitant", "close the sale",
	"talking point",
}

var definitionalPhrases = []string{
	"what is ", "what does ", "what are ", "explain ", "how does ", "define ",
	"meaning of ", "difference between hdmi", "what's the point of",
}

var deepdivePhrases = []string{
	"tell me more", "more about", "details", "more detail", "spec", "warranty",
	"does it", "is it", "can it", "what about", "how big", "how heavy",
	"nearby store", "in stock",
}

var discoveryPhrases = []string{
	"recommend", "suggest", "looking for", "need a", "need an", "want a",
	"want an", "best ", "good ", "show me", "do you have", "options for",
}

// categoryNouns mirrors the entity tables; the router only needs a cheap
// product-mention signal, full resolution happens later.
var categoryNouns = []string{
	"tv", "television", "laptop", "notebook", "phone", "smartphone", "tablet",
	"soundbar", "headphone", "headphones", "earbuds", "monitor", "camera",
	"fridge", "refrigerator", "washer", "washing machine", "dryer", "vacuum",
	"console", "speaker", "printer", "router", "dishwasher", "microwave",
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func mentionsProduct(text string) bool {
	return containsAny(text, categoryNouns) || hasExplicitSKU(text)
}

func hasExplicitSKU(text string) bool {
	return skuPattern.MatchString(budgetSpanPattern.ReplaceAllString(text, ""))
}

// Router classifies a turn into a coarse handling path using an ordered rule
// table. It is pure, synchronous and deterministic; it must run before any
// retrieval work. The worst case is a low-confidence default route, never an
// error.
type Router struct {
	rules []rule
}

func NewRouter() *Router {
	return &Router{rules: defaultRules()}
}

// defaultRules encodes the priority commitment: explicit signals beat inferred
// ones, and specific routes beat general ones.
func defaultRules() []rule {
	return []rule{
		{
			name: "explicit-sku",
			matches: func(in input) bool {
				return in.explicitSKU != "" || hasExplicitSKU(in.text)
			},
			build: func(in input) Intent {
				return Intent{
					Type:           ProductDeepdive,
					AskDetails:     true,
					AskSpecs:       specsPattern.MatchString(in.text),
					NeedsCatalogue: true,
					NeedsReviews:   reviewPattern.MatchString(in.text),
					Confidence:     0.95,
				}
			},
		},
		{
			name: "sales-coaching",
			matches: func(in input) bool {
				return containsAny(in.text, coachingPhrases)
			},
			build: func(in input) Intent {
				return Intent{
					Type:           SalesCoaching,
					NeedsCatalogue: mentionsProduct(in.text) || in.state.ActiveSKU != "",
					Confidence:     0.85,
				}
			},
		},
		{
			name: "definitional",
			matches: func(in input) bool {
				return containsAny(in.text, definitionalPhrases) && !mentionsProduct(in.text)
			},
			build: func(in input) Intent {
				return Intent{Type: GeneralInfo, Confidence: 0.8}
			},
		},
		{
			name: "comparison",
			matches: func(in input) bool {
				return comparePattern.MatchString(in.text) &&
					(mentionsProduct(in.text) || in.state.ActiveSKU != "")
			},
			build: func(in input) Intent {
				return Intent{
					Type:           Comparison,
					NeedCompare:    true,
					AskSpecs:       specsPattern.MatchString(in.text),
					NeedsCatalogue: true,
					NeedsReviews:   reviewPattern.MatchString(in.text),
					Confidence:     0.85,
				}
			},
		},
		{
			name: "deepdive-active-product",
			matches: func(in input) bool {
				return in.state.ActiveSKU != "" && containsAny(in.text, deepdivePhrases)
			},
			build: func(in input) Intent {
				return Intent{
					Type:            ProductDeepdive,
					AskDetails:      true,
					AskSpecs:        specsPattern.MatchString(in.text),
					AskAlternatives: alternativePattern.MatchString(in.text),
					NeedsCatalogue:  true,
					NeedsReviews:    reviewPattern.MatchString(in.text),
					Confidence:      0.8,
				}
			},
		},
		{
			name: "discovery",
			matches: func(in input) bool {
				return containsAny(in.text, discoveryPhrases) ||
					budgetPattern.MatchString(in.text) ||
					mentionsProduct(in.text)
			},
			build: func(in input) Intent {
				return Intent{
					Type:            ProductDiscovery,
					AskAlternatives: alternativePattern.MatchString(in.text),
					NeedsCatalogue:  true,
					NeedsReviews:    reviewPattern.MatchString(in.text),
					Confidence:      0.7,
				}
			},
		},
	}
}

// Classify routes a turn. explicitSKU is the SKU supplied out-of-band by the
// caller (e.g. a product page context), which overrides everything.
func (r *Router) Classify(text string, st *state.ConversationState, explicitSKU string) Intent {
	if st == nil {
		st = state.New("", "")
	}
	in := input{
		text:        strings.ToLower(strings.TrimSpace(text)),
		state:       st,
		explicitSKU: explicitSKU,
	}

	for _, rl := range r.rules {
		if rl.matches(in) {
			return rl.build(in)
		}
	}

	// Default route: low-confidence general info.
	return Intent{Type: GeneralInfo, Confidence: 0.4}
}

// ExtractSKU returns the explicit SKU token in text, if any. Shared with the
// entity resolver so both stages agree on what counts as an explicit SKU.
func ExtractSKU(text string) string {
	m := skuPattern.FindStringSubmatch(budgetSpanPattern.ReplaceAllString(text, ""))
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return strings.ToUpper(m[1])
	}
	return m[2]
}
