package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/assist/rewrite"
	"shopassist-be/pkg/embedding"
	"shopassist-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

// Config encapsulates retrieval parameters.
type Config struct {
	ChunkBudget     int     // final number of chunks returned
	OverfetchFactor int     // retrieve budget*factor before reranking
	MinScore        float64 // combined-score floor
	DBThreshold     float64 // similarity floor applied inside the query
	VectorWeight    float64
	LexicalWeight   float64
	MaxFanOut       int // bound on concurrent per-SKU searches
}

// DefaultConfig returns the production retrieval configuration.
func DefaultConfig() Config {
	return Config{
		ChunkBudget:     10,
		OverfetchFactor: 3,
		MinScore:        0.35,
		DBThreshold:     0.0,
		VectorWeight:    0.7,
		LexicalWeight:   0.3,
		MaxFanOut:       5,
	}
}

// Request describes one retrieval call.
type Request struct {
	SKU           string // single-SKU filter; empty for unfiltered
	Query         string
	Limit         int // overrides Config.ChunkBudget when > 0
	Filters       rewrite.Filters
	IntentSummary string // customer-intent summary appended to the query text
	CompareList   []string
}

// Engine fetches, scores, deduplicates and diversifies knowledge chunks.
type Engine struct {
	chunks   contract.ChunkRepository
	embedder embedding.EmbeddingProvider
	cfg      Config
	log      logger.ILogger
}

func NewEngine(chunks contract.ChunkRepository, embedder embedding.EmbeddingProvider, cfg Config, log logger.ILogger) *Engine {
	if cfg.ChunkBudget <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{chunks: chunks, embedder: embedder, cfg: cfg, log: log}
}

// Retrieve runs the full hybrid pipeline. Any stage failure degrades to a
// plain similarity search; the turn is never aborted from here.
func (e *Engine) Retrieve(ctx context.Context, req Request) []*store.Chunk {
	budget := req.Limit
	if budget <= 0 {
		budget = e.cfg.ChunkBudget
	}

	chunks, err := e.retrieveHybrid(ctx, req, budget)
	if err != nil {
		e.log.Warn("retrieval", "hybrid retrieval failed, falling back to plain search", map[string]interface{}{"error": err.Error()})
		chunks = e.retrievePlain(ctx, req, budget)
	}

	// Never hand downstream an empty context when some signal exists.
	if len(chunks) == 0 && req.IntentSummary != "" {
		chunks = []*store.Chunk{placeholderChunk(req)}
	}
	return chunks
}

func (e *Engine) retrieveHybrid(ctx context.Context, req Request, budget int) ([]*store.Chunk, error) {
	// 1. Augment the query with structured filters and the customer-intent
	// summary; the extra terms improve embedding relevance without a separate
	// field.
	queryText := req.Query
	if req.Filters.Category != "" && !strings.Contains(strings.ToLower(queryText), req.Filters.Category) {
		queryText = queryText + " " + req.Filters.Category
	}
	if req.Filters.Brand != "" && !strings.Contains(strings.ToLower(queryText), strings.ToLower(req.Filters.Brand)) {
		queryText = queryText + " " + req.Filters.Brand
	}
	if req.IntentSummary != "" {
		queryText = queryText + " | customer intent: " + req.IntentSummary
	}

	embRes, err := e.embedder.Generate(queryText, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	vector := embRes.Embedding.Values

	// 2. One search per target, over-fetching to leave room for reranking.
	perTarget := budget * e.cfg.OverfetchFactor
	targets := e.searchTargets(req)

	var mu sync.Mutex
	var scored []*contract.ScoredChunk

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxFanOut)
	for _, sku := range targets {
		g.Go(func() error {
			results, err := e.chunks.SearchHybridWithScore(gctx, vector, queryText, contract.ChunkSearchParams{
				Sku:       sku,
				Limit:     perTarget,
				Threshold: e.cfg.DBThreshold,
			})
			if err != nil {
				return err
			}
			mu.Lock()
			scored = append(scored, results...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 3. Hybrid scoring and threshold filter.
	kept := make([]*store.Chunk, 0, len(scored))
	for _, sc := range scored {
		combined := e.cfg.VectorWeight*sc.Similarity + e.cfg.LexicalWeight*sc.LexicalScore
		// static importance nudges ties without overpowering relevance
		combined *= 0.9 + 0.1*sc.Chunk.ImportanceScore
		if combined < e.cfg.MinScore {
			continue
		}
		c := *sc.Chunk
		c.SearchScore = combined
		kept = append(kept, &c)
	}

	// 4. Deduplicate by (SKU, section-type), keeping the highest score.
	kept = dedupeBySection(kept)

	// 5-6. Diversify, truncate to budget, re-sort by score.
	kept = diversify(kept, req.CompareList, budget)

	return kept, nil
}

// searchTargets returns the SKU filters for fan-out: the compare list when
// present, a single SKU when set, or one unfiltered search for general
// recommendations.
func (e *Engine) searchTargets(req Request) []string {
	if len(req.CompareList) > 0 {
		targets := req.CompareList
		if len(targets) > e.cfg.MaxFanOut {
			targets = targets[:e.cfg.MaxFanOut]
		}
		return targets
	}
	if req.SKU != "" {
		return []string{req.SKU}
	}
	return []string{""} // unfiltered: surface multiple distinct products
}

func (e *Engine) retrievePlain(ctx context.Context, req Request, budget int) []*store.Chunk {
	embRes, err := e.embedder.Generate(req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		e.log.Error("retrieval", "fallback embedding failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	chunks, err := e.chunks.SearchSimilar(ctx, embRes.Embedding.Values, contract.ChunkSearchParams{
		Sku:   req.SKU,
		Limit: budget,
	})
	if err != nil {
		e.log.Error("retrieval", "fallback search failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return chunks
}

func dedupeBySection(chunks []*store.Chunk) []*store.Chunk {
	type key struct{ sku, section string }
	best := make(map[key]*store.Chunk, len(chunks))
	order := make([]key, 0, len(chunks))
	for _, c := range chunks {
		k := key{c.SKU, c.SectionType}
		if existing, ok := best[k]; !ok {
			best[k] = c
			order = append(order, k)
		} else if c.SearchScore > existing.SearchScore {
			best[k] = c
		}
	}
	out := make([]*store.Chunk, 0, len(best))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}

// diversify guarantees, subject to availability, at least one chunk per
// (SKU x section-type) pair across all compared SKUs before filling remaining
// slots by raw score. Without a compare list it spreads across distinct SKUs
// and section types opportunistically, score order breaking ties. The result
// is truncated to budget and re-sorted by score.
func diversify(chunks []*store.Chunk, compareList []string, budget int) []*store.Chunk {
	if len(chunks) <= budget {
		sortByScore(chunks)
		return chunks
	}

	sortByScore(chunks)

	picked := make([]*store.Chunk, 0, budget)
	used := make(map[*store.Chunk]bool)

	if len(compareList) > 0 {
		compared := make(map[string]bool, len(compareList))
		for _, sku := range compareList {
			compared[sku] = true
		}
		// First pass: best chunk per (SKU, section-type) for compared SKUs.
		// Chunks are already score-sorted, so the first hit per pair wins.
		type pair struct{ sku, section string }
		seenPair := map[pair]bool{}
		for _, c := range chunks {
			if len(picked) >= budget {
				break
			}
			if !compared[c.SKU] {
				continue
			}
			p := pair{c.SKU, c.SectionType}
			if seenPair[p] {
				continue
			}
			seenPair[p] = true
			picked = append(picked, c)
			used[c] = true
		}
		// Diversity precedes raw-score greed: ensure every compared SKU is
		// represented before any SKU takes a second slot.
		picked = rebalanceBySKU(picked, chunks, compareList, used, budget)
	} else {
		// Opportunistic spread: one chunk per SKU, then one per section type.
		seenSKU := map[string]bool{}
		for _, c := range chunks {
			if len(picked) >= budget {
				break
			}
			if seenSKU[c.SKU] {
				continue
			}
			seenSKU[c.SKU] = true
			picked = append(picked, c)
			used[c] = true
		}
		seenSection := map[string]bool{}
		for _, c := range picked {
			seenSection[c.SectionType] = true
		}
		for _, c := range chunks {
			if len(picked) >= budget {
				break
			}
			if used[c] || seenSection[c.SectionType] {
				continue
			}
			seenSection[c.SectionType] = true
			picked = append(picked, c)
			used[c] = true
		}
	}

	// Fill remaining slots by raw score.
	for _, c := range chunks {
		if len(picked) >= budget {
			break
		}
		if !used[c] {
			picked = append(picked, c)
			used[c] = true
		}
	}

	sortByScore(picked)
	return picked
}

// rebalanceBySKU drops surplus low-score chunks of over-represented SKUs when
// a compared SKU with available chunks has no slot at all.
func rebalanceBySKU(picked, all []*store.Chunk, compareList []string, used map[*store.Chunk]bool, budget int) []*store.Chunk {
	perSKU := map[string]int{}
	for _, c := range picked {
		perSKU[c.SKU]++
	}
	for _, sku := range compareList {
		if perSKU[sku] > 0 {
			continue
		}
		var candidate *store.Chunk
		for _, c := range all {
			if c.SKU == sku && !used[c] {
				candidate = c
				break
			}
		}
		if candidate == nil {
			continue // genuinely nothing available for this SKU
		}
		if len(picked) < budget {
			picked = append(picked, candidate)
			used[candidate] = true
			perSKU[sku]++
			continue
		}
		// Evict the lowest-scoring chunk of the most-represented SKU.
		evictIdx := -1
		for i := len(picked) - 1; i >= 0; i-- {
			if perSKU[picked[i].SKU] > 1 {
				if evictIdx == -1 || picked[i].SearchScore < picked[evictIdx].SearchScore {
					evictIdx = i
				}
			}
		}
		if evictIdx == -1 {
			continue
		}
		perSKU[picked[evictIdx].SKU]--
		delete(used, picked[evictIdx])
		picked[evictIdx] = candidate
		used[candidate] = true
		perSKU[sku]++
	}
	return picked
}

func sortByScore(chunks []*store.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].SearchScore > chunks[j].SearchScore
	})
}

// placeholderChunk carries the customer-intent summary downstream when
// retrieval produced nothing at all.
func placeholderChunk(req Request) *store.Chunk {
	return &store.Chunk{
		ChunkID:      "intent-summary",
		SKU:          req.SKU,
		SectionTitle: "Customer intent",
		SectionType:  "intent_summary",
		SectionBody:  strings.TrimSpace(req.IntentSummary),
		SearchScore:  0,
	}
}
