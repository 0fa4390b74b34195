package rewrite

import (
	"context"
	"fmt"
	"strings"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/jsonrepair"
	"shopassist-be/pkg/llm"
)

// MaxCompareList bounds the compare fan-out.
const MaxCompareList = 5

// Filters narrow retrieval. All fields are optional.
type Filters struct {
	Category string   `json:"category,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	Size     string   `json:"size,omitempty"`
}

// RewrittenQuery is the fully specified retrieval request for one turn.
type RewrittenQuery struct {
	ResolvedQuery string   `json:"resolved_query"`
	Filters       Filters  `json:"filters"`
	CompareList   []string `json:"compare_list"`
	Constraints   []string `json:"constraints"`
}

// Rewriter produces a retrieval query from the turn, state and entities. The
// primary path is a strict-JSON LLM rewrite; parse failure or call failure
// degrades to a fully deterministic rewrite.
type Rewriter struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewRewriter(provider llm.LLMProvider, log logger.ILogger) *Rewriter {
	return &Rewriter{provider: provider, log: log}
}

// Rewrite never fails: the deterministic path is always available.
func (r *Rewriter) Rewrite(ctx context.Context, text string, st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent) *RewrittenQuery {
	if st == nil {
		st = state.New("", "")
	}

	if r.provider != nil {
		if q := r.rewriteWithLLM(ctx, text, st, ents, in); q != nil {
			r.enforceCompareInvariant(q, st, ents, in)
			return q
		}
	}

	q := r.deterministicRewrite(text, st, ents, in)
	r.enforceCompareInvariant(q, st, ents, in)
	return q
}

func (r *Rewriter) rewriteWithLLM(ctx context.Context, text string, st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent) *RewrittenQuery {
	prompt := r.buildPrompt(text, st, ents, in)

	response, err := r.provider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.log.Warn("rewrite", "llm rewrite failed, using deterministic path", map[string]interface{}{"error": err.Error()})
		return nil
	}

	var q RewrittenQuery
	if err := jsonrepair.Unmarshal(response, &q); err != nil {
		r.log.Warn("rewrite", "rewrite output unparseable after repair", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if strings.TrimSpace(q.ResolvedQuery) == "" {
		return nil
	}
	if len(q.CompareList) > MaxCompareList {
		q.CompareList = q.CompareList[:MaxCompareList]
	}
	if q.Constraints == nil {
		q.Constraints = []string{}
	}
	if q.CompareList == nil {
		q.CompareList = []string{}
	}
	return &q
}

func (r *Rewriter) buildPrompt(text string, st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent) string {
	var b strings.Builder

	b.WriteString("<system>\n")
	b.WriteString("You rewrite retail staff questions into fully specified catalog search queries.\n")
	b.WriteString("You do NOT answer the question. You only rewrite it.\n")
	b.WriteString("</system>\n\n")

	b.WriteString("<conversation_state>\n")
	if st.ActiveSKU != "" {
		b.WriteString(fmt.Sprintf("ACTIVE_SKU: %s\n", st.ActiveSKU))
	}
	if len(st.RecentSKUs) > 0 {
		b.WriteString(fmt.Sprintf("RECENT_SKUS: %s\n", strings.Join(st.RecentSKUs, ", ")))
	}
	if st.ActiveCategory != "" {
		b.WriteString(fmt.Sprintf("CATEGORY: %s\n", st.ActiveCategory))
	}
	if st.ActiveBrand != "" {
		b.WriteString(fmt.Sprintf("BRAND: %s\n", st.ActiveBrand))
	}
	if st.BudgetCap != nil {
		b.WriteString(fmt.Sprintf("BUDGET_CAP: %.0f\n", *st.BudgetCap))
	}
	if st.UseCase != "" {
		b.WriteString(fmt.Sprintf("USE_CASE: %s\n", st.UseCase))
	}
	for _, t := range st.TurnHistory {
		b.WriteString(fmt.Sprintf("PRIOR_TURN: %s\n", t.Question))
	}
	b.WriteString("</conversation_state>\n\n")

	b.WriteString("<resolved_entities>\n")
	if ents.ActiveSKU != "" {
		b.WriteString(fmt.Sprintf("SKU: %s\n", ents.ActiveSKU))
	}
	if len(ents.CandidateSKUs) > 0 {
		b.WriteString(fmt.Sprintf("CANDIDATES: %s\n", strings.Join(ents.CandidateSKUs, ", ")))
	}
	b.WriteString(fmt.Sprintf("INTENT: %s\n", string(in.Type)))
	b.WriteString("</resolved_entities>\n\n")

	b.WriteString("<question>\n")
	b.WriteString(text)
	b.WriteString("\n</question>\n\n")

	b.WriteString("<output_format>\n")
	b.WriteString("Respond with ONLY valid JSON, no prose, no code fences:\n")
	b.WriteString("{\n")
	b.WriteString("  \"resolved_query\": \"self-contained search text\",\n")
	b.WriteString("  \"filters\": {\"category\": \"\", \"brand\": \"\", \"price_max\": null, \"size\": \"\"},\n")
	b.WriteString("  \"compare_list\": [\"SKU\", ...],\n")
	b.WriteString("  \"constraints\": [\"feature keyword\", ...]\n")
	b.WriteString("}\n")
	b.WriteString("</output_format>")

	return b.String()
}

// deterministicRewrite concatenates the question with known context terms and
// copies filters straight from entities/state.
func (r *Rewriter) deterministicRewrite(text string, st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent) *RewrittenQuery {
	parts := []string{strings.TrimSpace(text)}

	category := ents.Category
	if category == "" {
		category = st.ActiveCategory
	}
	brand := ents.Brand
	if brand == "" {
		brand = st.ActiveBrand
	}
	if category != "" {
		parts = append(parts, category)
	}
	if brand != "" {
		parts = append(parts, brand)
	}
	if ents.UseCase != "" {
		parts = append(parts, "for "+ents.UseCase)
	}

	budget := ents.Budget
	if budget == nil {
		budget = st.BudgetCap
	}
	if budget != nil {
		parts = append(parts, fmt.Sprintf("under $%.0f", *budget))
	}

	compare := []string{}
	if st.ActiveSKU != "" {
		compare = append(compare, st.ActiveSKU)
	}
	for _, sku := range ents.CandidateSKUs {
		if sku != st.ActiveSKU {
			compare = append(compare, sku)
		}
	}
	for _, sku := range st.RecentSKUs {
		if len(compare) >= MaxCompareList {
			break
		}
		if !containsString(compare, sku) {
			compare = append(compare, sku)
		}
	}
	if len(compare) > MaxCompareList {
		compare = compare[:MaxCompareList]
	}
	if !in.NeedCompare {
		compare = []string{}
	}

	constraints := append([]string{}, st.Constraints.MustHave...)
	constraints = mergeStrings(constraints, st.Constraints.NiceToHave)

	return &RewrittenQuery{
		ResolvedQuery: strings.Join(parts, " "),
		Filters: Filters{
			Category: category,
			Brand:    brand,
			PriceMax: budget,
			Size:     st.Constraints.Size,
		},
		CompareList: compare,
		Constraints: constraints,
	}
}

// enforceCompareInvariant guarantees the active SKU leads the compare list
// whenever a comparison is requested and candidates exist.
func (r *Rewriter) enforceCompareInvariant(q *RewrittenQuery, st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent) {
	if !in.NeedCompare || st.ActiveSKU == "" {
		return
	}
	if len(q.CompareList) == 0 && len(ents.CandidateSKUs) == 0 {
		return
	}
	list := []string{st.ActiveSKU}
	for _, sku := range q.CompareList {
		if sku != st.ActiveSKU && !containsString(list, sku) {
			list = append(list, sku)
		}
	}
	for _, sku := range ents.CandidateSKUs {
		if len(list) >= MaxCompareList {
			break
		}
		if sku != st.ActiveSKU && !containsString(list, sku) {
			list = append(list, sku)
		}
	}
	if len(list) > MaxCompareList {
		list = list[:MaxCompareList]
	}
	q.CompareList = list
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func mergeStrings(base, add []string) []string {
	for _, v := range add {
		if !containsString(base, v) {
			base = append(base, v)
		}
	}
	return base
}
