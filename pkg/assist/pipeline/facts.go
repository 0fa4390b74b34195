package pipeline

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/retrieval"
	"shopassist-be/pkg/assist/rewrite"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/store"
)

// businessFacts are the deterministic collaborator results overlaid on the
// synthesized answer. Any of them may be nil when the lookup failed or did
// not apply; lookups never fail the turn.
type businessFacts struct {
	product      *store.ProductRecord
	availability *store.Availability
	alternative  *store.ProductRecord
	chunkRecords []*store.ProductRecord
}

// retrieveIfNeeded skips retrieval entirely for turns the router marked as
// not needing the catalogue (pure definitional questions).
func (e *TurnExecutor) retrieveIfNeeded(ctx context.Context, st *state.ConversationState, ents *entity.ResolvedEntities, in intent.Intent, query *rewrite.RewrittenQuery, intentSummary string) []*store.Chunk {
	if !in.NeedsCatalogue {
		return nil
	}

	// A general recommendation or an active compare list fans out across
	// products; otherwise lock onto the active SKU.
	sku := st.ActiveSKU
	if ents.GeneralRecommendation || len(query.CompareList) > 0 {
		sku = ""
	}

	return e.engine.Retrieve(ctx, retrieval.Request{
		SKU:           sku,
		Query:         query.ResolvedQuery,
		Filters:       query.Filters,
		IntentSummary: intentSummary,
		CompareList:   query.CompareList,
	})
}

// fetchBusinessFacts gathers the product record, availability and the batch
// of records for SKUs discovered in retrieved chunks. The three lookups are
// independent network calls and run concurrently.
func (e *TurnExecutor) fetchBusinessFacts(ctx context.Context, st *state.ConversationState, chunks []*store.Chunk, in intent.Intent) businessFacts {
	facts := businessFacts{}
	if e.products == nil {
		return facts
	}

	chunkSKUs := distinctChunkSKUs(chunks, st.ActiveSKU)

	g, gctx := errgroup.WithContext(ctx)

	if st.ActiveSKU != "" {
		sku := st.ActiveSKU
		g.Go(func() error {
			record, err := e.products.GetBySKU(gctx, sku)
			if err != nil {
				e.log.Warn("pipeline", "product lookup failed", map[string]interface{}{"sku": sku, "error": err.Error()})
				return nil
			}
			facts.product = record
			return nil
		})

		if e.availability != nil && st.StoreID != "" {
			storeID := st.StoreID
			g.Go(func() error {
				avail, err := e.availability.GetAvailability(gctx, sku, storeID)
				if err != nil {
					e.log.Warn("pipeline", "availability lookup failed", map[string]interface{}{"sku": sku, "error": err.Error()})
					return nil
				}
				facts.availability = avail
				return nil
			})
		}
	}

	if len(chunkSKUs) > 0 {
		g.Go(func() error {
			records, err := e.products.FindBySKUs(gctx, chunkSKUs)
			if err != nil {
				e.log.Warn("pipeline", "chunk record batch failed", map[string]interface{}{"error": err.Error()})
				return nil
			}
			facts.chunkRecords = records
			return nil
		})
	}

	_ = g.Wait() // goroutines swallow their own errors

	if facts.availability != nil && facts.availability.InStock == 0 {
		facts.alternative = e.pickAlternative(ctx, st, facts)
	} else if in.AskAlternatives {
		facts.alternative = e.pickAlternative(ctx, st, facts)
	}

	return facts
}

// pickAlternative offers an in-stock substitute in the same category when the
// asked-about product is unavailable or alternatives were requested. Candidates
// come from the already-fetched chunk records; availability is verified for the
// first plausible one only, to bound lookups.
func (e *TurnExecutor) pickAlternative(ctx context.Context, st *state.ConversationState, facts businessFacts) *store.ProductRecord {
	if e.availability == nil || st.StoreID == "" {
		return nil
	}

	category := ""
	if facts.product != nil {
		category = facts.product.Category
	}

	for _, record := range facts.chunkRecords {
		if record.SKU == st.ActiveSKU {
			continue
		}
		if category != "" && !strings.EqualFold(record.Category, category) {
			continue
		}
		avail, err := e.availability.GetAvailability(ctx, record.SKU, st.StoreID)
		if err != nil || avail == nil || avail.InStock == 0 {
			continue
		}
		return record
	}
	return nil
}

// buildIntentSummary renders the customer picture carried in state as a short
// free-text hint appended to retrieval queries.
func buildIntentSummary(st *state.ConversationState, in intent.Intent) string {
	parts := []string{}
	if st.UseCase != "" {
		parts = append(parts, "wants it for "+st.UseCase)
	}
	if st.BudgetCap != nil {
		parts = append(parts, fmt.Sprintf("budget up to $%.0f", *st.BudgetCap))
	}
	if len(st.Constraints.MustHave) > 0 {
		parts = append(parts, "must have "+strings.Join(st.Constraints.MustHave, ", "))
	}
	if len(st.Constraints.NiceToHave) > 0 {
		parts = append(parts, "would like "+strings.Join(st.Constraints.NiceToHave, ", "))
	}
	if st.Constraints.Size != "" {
		parts = append(parts, "size "+st.Constraints.Size)
	}
	if in.NeedCompare {
		parts = append(parts, "deciding between products")
	}
	return strings.Join(parts, "; ")
}

func distinctChunkSKUs(chunks []*store.Chunk, exclude string) []string {
	seen := map[string]struct{}{}
	skus := []string{}
	for _, ch := range chunks {
		if ch.SKU == "" || ch.SKU == exclude {
			continue
		}
		if _, ok := seen[ch.SKU]; ok {
			continue
		}
		seen[ch.SKU] = struct{}{}
		skus = append(skus, ch.SKU)
	}
	return skus
}
