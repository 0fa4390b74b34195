package entity

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/store"
)

// MaxCandidates bounds the candidate fan-out for general recommendations.
const MaxCandidates = 5

// ResolvedEntities is the per-turn extraction result. Derived, never persisted
// directly; the context manager folds it into conversation state.
type ResolvedEntities struct {
	ActiveSKU     string   `json:"active_sku"`
	CandidateSKUs []string `json:"candidate_skus"`
	Category      string   `json:"category"`
	Brand         string   `json:"brand"`
	Budget        *float64 `json:"budget"`
	UseCase       string   `json:"use_case"`
	// GeneralRecommendation marks the category+budget branch where retrieval
	// should fan out across products instead of locking onto one SKU.
	GeneralRecommendation bool `json:"general_recommendation"`
}

// ProductSearcher is the catalog lookup collaborator. Failures degrade to
// conversation-state values and are never surfaced to the caller.
type ProductSearcher interface {
	SearchByText(ctx context.Context, query string, limit int) ([]*store.ProductRecord, error)
	GetBySKU(ctx context.Context, sku string) (*store.ProductRecord, error)
}

var (
	budgetQualified = regexp.MustCompile(`(?i)\b(?:under|below|around|max|up to|less than)\s+\$?\s?(\d+(?:\.\d+)?)(k?)\b`)
	budgetBare      = regexp.MustCompile(`\$\s?(\d+(?:\.\d+)?)(k?)\b`)
)

// Resolver extracts product, category, brand, budget and use-case entities
// from a turn plus conversation state.
type Resolver struct {
	products ProductSearcher
	log      logger.ILogger
}

func NewResolver(products ProductSearcher, log logger.ILogger) *Resolver {
	return &Resolver{products: products, log: log}
}

// Resolve never returns an error: every failure path falls back to
// conversation-state values.
func (r *Resolver) Resolve(ctx context.Context, text string, st *state.ConversationState) *ResolvedEntities {
	if st == nil {
		st = state.New("", "")
	}
	lower := strings.ToLower(text)

	res := &ResolvedEntities{CandidateSKUs: []string{}}

	// (a) budget, falling back to existing state
	res.Budget = extractBudget(lower)
	if res.Budget == nil {
		res.Budget = st.BudgetCap
	}

	// (b) use case
	res.UseCase = lookupKeyword(lower, UseCaseTable)
	if res.UseCase == "" {
		res.UseCase = st.UseCase
	}

	// (c) category and brand
	res.Category = lookupKeyword(lower, CategoryTable)
	res.Brand = lookupKeyword(lower, BrandTable)

	// (d) explicit SKU short-circuits everything else
	if sku := intent.ExtractSKU(text); sku != "" {
		res.ActiveSKU = sku
		r.hydrateFromCatalog(ctx, res)
		return res
	}

	generalShape := r.isGeneralRecommendation(lower, res, st)

	// (e) product mention -> catalog search
	if res.Brand != "" || res.Category != "" || mentionsModelWord(lower) {
		if generalShape {
			res.GeneralRecommendation = true
			r.searchCandidates(ctx, text, res)
		} else {
			r.searchSpecific(ctx, text, res, st)
		}
	}

	// (f) nothing resolved: inherit the active SKU unless the turn itself is a
	// general-recommendation shape.
	if res.ActiveSKU == "" && len(res.CandidateSKUs) == 0 && !generalShape && st.ActiveSKU != "" {
		res.ActiveSKU = st.ActiveSKU
	}

	if res.Category == "" {
		res.Category = st.ActiveCategory
	}
	if res.Brand == "" {
		res.Brand = st.ActiveBrand
	}

	return res
}

// isGeneralRecommendation detects category+budget phrasing with no explicit
// product and no prior focus. This mirrors the observed brittleness of phrase
// heuristics; the table is configuration, not a design boundary.
func (r *Resolver) isGeneralRecommendation(lower string, res *ResolvedEntities, st *state.ConversationState) bool {
	if st.ActiveSKU != "" {
		return false
	}
	if res.Category == "" && res.Brand == "" {
		return false
	}
	if res.Budget != nil && res.Category != "" {
		return true
	}
	for _, p := range generalRecommendationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// searchCandidates populates candidate SKUs and deliberately leaves ActiveSKU
// unset so retrieval fans out across multiple products.
func (r *Resolver) searchCandidates(ctx context.Context, text string, res *ResolvedEntities) {
	records, err := r.products.SearchByText(ctx, text, MaxCandidates)
	if err != nil {
		r.log.Warn("entity", "candidate search failed, keeping state values", map[string]interface{}{"error": err.Error()})
		return
	}
	seen := map[string]bool{}
	for _, rec := range records {
		if rec == nil || rec.SKU == "" || seen[rec.SKU] {
			continue
		}
		seen[rec.SKU] = true
		res.CandidateSKUs = append(res.CandidateSKUs, rec.SKU)
		if len(res.CandidateSKUs) >= MaxCandidates {
			break
		}
	}
}

func (r *Resolver) searchSpecific(ctx context.Context, text string, res *ResolvedEntities, st *state.ConversationState) {
	records, err := r.products.SearchByText(ctx, text, 1)
	if err != nil || len(records) == 0 || records[0] == nil {
		if err != nil {
			r.log.Warn("entity", "specific search failed, keeping state values", map[string]interface{}{"error": err.Error()})
		}
		res.ActiveSKU = st.ActiveSKU
		return
	}
	top := records[0]
	res.ActiveSKU = top.SKU
	if res.Category == "" {
		res.Category = top.Category
	}
	if res.Brand == "" {
		res.Brand = top.Brand
	}
}

// hydrateFromCatalog fills category/brand for an explicitly mentioned SKU.
func (r *Resolver) hydrateFromCatalog(ctx context.Context, res *ResolvedEntities) {
	rec, err := r.products.GetBySKU(ctx, res.ActiveSKU)
	if err != nil || rec == nil {
		return
	}
	if res.Category == "" {
		res.Category = rec.Category
	}
	if res.Brand == "" {
		res.Brand = rec.Brand
	}
}

func extractBudget(lower string) *float64 {
	if m := budgetQualified.FindStringSubmatch(lower); m != nil {
		return parseAmount(m[1], m[2])
	}
	if m := budgetBare.FindStringSubmatch(lower); m != nil {
		return parseAmount(m[1], m[2])
	}
	return nil
}

func parseAmount(number, suffix string) *float64 {
	v, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return nil
	}
	if strings.EqualFold(suffix, "k") {
		v *= 1000
	}
	return &v
}

// lookupKeyword returns the mapped value of the longest matching key so that
// "washing machine" wins over "washer"-style partial overlaps.
func lookupKeyword(lower string, table map[string]string) string {
	best := ""
	bestLen := 0
	for key, val := range table {
		if strings.Contains(lower, key) && len(key) > bestLen {
			best = val
			bestLen = len(key)
		}
	}
	return best
}

var modelWordPattern = regexp.MustCompile(`(?i)\b(bravia|neo qled|qled|the frame|galaxy|pixel|xps|spectre|ideapad|zenbook|aspire|series\s?[a-z0-9]+)\b`)

func mentionsModelWord(lower string) bool {
	return modelWordPattern.MatchString(lower)
}
