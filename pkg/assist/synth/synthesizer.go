package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/state"
	"shopassist-be/pkg/jsonrepair"
	"shopassist-be/pkg/llm"
	"shopassist-be/pkg/store"
)

// Responses shorter than this are treated as near-empty and dropped to the
// context-only tier.
const nearEmptyThreshold = 12

// Input carries everything one synthesis call needs. Optional collaborator
// results (product record, availability, alternative) may be nil.
type Input struct {
	Question       string
	Chunks         []*store.Chunk
	ContextSummary string
	Product        *store.ProductRecord
	Availability   *store.Availability
	Alternative    *store.ProductRecord
	History        []state.TurnRecord
	Intent         intent.Intent
}

// Synthesizer produces the final StructuredAnswer for a turn. The model is
// called at most once; response handling is a downward-only tier ladder and
// every tier emits the full field set.
type Synthesizer struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewSynthesizer(provider llm.LLMProvider, log logger.ILogger) *Synthesizer {
	return &Synthesizer{provider: provider, log: log}
}

// Synthesize never fails; a degraded, labeled answer always beats an error.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) *StructuredAnswer {
	answer := s.runLadder(ctx, in)
	s.applyBusinessFacts(answer, in)
	s.filterCitations(answer, in.Chunks)
	answer.normalize()
	return answer
}

func (s *Synthesizer) runLadder(ctx context.Context, in Input) *StructuredAnswer {
	if s.provider == nil {
		return s.contextOnly(in)
	}

	raw, err := s.provider.Generate(ctx, s.buildPrompt(in),
		llm.WithTemperature(0.2),
		llm.WithMaxTokens(900),
		llm.WithJSONMode(),
	)
	if err != nil {
		s.log.Warn("synth", "model call failed, answering from context", map[string]interface{}{"error": err.Error()})
		return s.contextOnly(in)
	}
	if len(strings.TrimSpace(raw)) < nearEmptyThreshold {
		return s.contextOnly(in)
	}

	if answer := s.parseStrict(raw); answer != nil {
		return answer
	}
	if answer := s.parseHeuristic(raw); answer != nil {
		return answer
	}
	return s.contextOnly(in)
}

// parseStrict is tier one: the response is valid (or repairable) JSON.
func (s *Synthesizer) parseStrict(raw string) *StructuredAnswer {
	var answer StructuredAnswer
	if err := jsonrepair.Unmarshal(raw, &answer); err != nil {
		s.log.Warn("synth", "response not JSON after repair, trying text heuristics", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if strings.TrimSpace(answer.Summary) == "" {
		return nil
	}
	answer.Tier = TierLLMJSON
	return &answer
}

// parseHeuristic is tier two: salvage a summary and bullet points from prose.
func (s *Synthesizer) parseHeuristic(raw string) *StructuredAnswer {
	lines := strings.Split(jsonrepair.StripFences(raw), "\n")

	summary := ""
	points := []string{}
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if point, ok := bulletText(trimmed); ok {
			points = append(points, point)
			continue
		}
		if summary == "" {
			summary = trimmed
		}
	}
	if summary == "" {
		return nil
	}

	return &StructuredAnswer{
		Summary:   summary,
		KeyPoints: points,
		Tier:      TierLLMTextHeuristic,
	}
}

// contextOnly is tier three: built purely from retrieved chunk text via
// keyword triggers. Never calls the model.
func (s *Synthesizer) contextOnly(in Input) *StructuredAnswer {
	if len(in.Chunks) == 0 {
		return &StructuredAnswer{
			Summary: "I couldn't find information about that in the catalog. " +
				"Try rephrasing, or ask about a specific product or SKU.",
			Tier: TierContextOnly,
		}
	}

	var body strings.Builder
	for _, ch := range in.Chunks {
		body.WriteString(strings.ToLower(ch.SectionBody))
		body.WriteString("\n")
	}
	haystack := body.String()

	points := []string{}
	for _, kp := range contextKeywordPoints {
		if strings.Contains(haystack, kp.trigger) {
			points = append(points, kp.point)
		}
	}

	summary := in.ContextSummary
	if summary == "" {
		summary = firstSentence(in.Chunks[0].SectionBody)
	}
	if in.Product != nil {
		summary = fmt.Sprintf("%s (%s): %s", in.Product.Name, in.Product.SKU, summary)
	}

	return &StructuredAnswer{
		Summary:   summary,
		KeyPoints: points,
		Tier:      TierContextOnly,
	}
}

// applyBusinessFacts overlays deterministic facts the model must not be
// trusted to invent: stock, alternatives, attachments, degradation labels.
func (s *Synthesizer) applyBusinessFacts(answer *StructuredAnswer, in Input) {
	if in.Availability != nil {
		answer.Stock = &StockBlock{
			SKU:          in.Availability.SKU,
			StoreID:      in.Availability.StoreID,
			InStock:      in.Availability.InStock,
			NearbyStores: in.Availability.NearbyStock,
		}
		if in.Availability.InStock == 0 {
			answer.ComplianceFlags = appendFlag(answer.ComplianceFlags, "out_of_stock_disclosure")
		}
	}

	if in.Alternative != nil {
		answer.OutOfStockAlternative = &AlternativeBlock{
			SKU:    in.Alternative.SKU,
			Name:   in.Alternative.Name,
			Price:  in.Alternative.Price,
			Reason: "in stock at this store in the same category",
		}
		answer.ComplianceFlags = appendFlag(answer.ComplianceFlags, "alternative_suggested")
	}

	if in.Product != nil && len(answer.Attachments) == 0 {
		if suggestions, ok := attachmentTable[strings.ToLower(in.Product.Category)]; ok {
			answer.Attachments = append([]string{}, suggestions...)
		}
	}

	if in.Intent.Type == intent.SalesCoaching && answer.SentimentNote == "" {
		answer.SentimentNote = "Acknowledge the customer's concern before pivoting to product facts."
	}

	if answer.Tier != TierLLMJSON {
		answer.ComplianceFlags = appendFlag(answer.ComplianceFlags, "degraded_answer")
	}
}

// filterCitations keeps only citations that reference chunks actually passed
// in; non-JSON tiers cite every supplied chunk.
func (s *Synthesizer) filterCitations(answer *StructuredAnswer, chunks []*store.Chunk) {
	known := make(map[string]struct{}, len(chunks))
	for _, ch := range chunks {
		if ch.ChunkID != "" {
			known[ch.ChunkID] = struct{}{}
		}
	}

	if answer.Tier == TierLLMJSON && len(answer.Citations) > 0 {
		kept := answer.Citations[:0]
		for _, id := range answer.Citations {
			if _, ok := known[id]; ok {
				kept = append(kept, id)
			}
		}
		answer.Citations = kept
		if len(answer.Citations) > 0 {
			return
		}
	}

	ids := make([]string, 0, len(known))
	for id := range known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	answer.Citations = ids
}

func (s *Synthesizer) buildPrompt(in Input) string {
	var b strings.Builder

	b.WriteString("<system>\n")
	if in.Intent.Type == intent.SalesCoaching {
		b.WriteString("You coach retail floor staff through live customer objections.\n")
		b.WriteString("Give the staff member concrete phrasing grounded only in the catalog context below.\n")
	} else {
		b.WriteString("You answer retail floor staff questions about products, grounded ONLY in the catalog context below.\n")
		b.WriteString("If the context does not cover something, say so. Never invent specifications.\n")
	}
	b.WriteString("</system>\n\n")

	if len(in.History) > 0 {
		b.WriteString("<conversation_history>\n")
		for _, t := range in.History {
			b.WriteString(fmt.Sprintf("Q: %s\nA: %s\n", t.Question, t.AnswerSummary))
		}
		b.WriteString("</conversation_history>\n\n")
	}

	if in.Product != nil {
		b.WriteString("<product>\n")
		b.WriteString(fmt.Sprintf("SKU: %s\nNAME: %s\nBRAND: %s\nCATEGORY: %s\nPRICE: %.2f\n",
			in.Product.SKU, in.Product.Name, in.Product.Brand, in.Product.Category, in.Product.Price))
		b.WriteString("</product>\n\n")
	}

	if in.Availability != nil {
		b.WriteString("<stock>\n")
		b.WriteString(fmt.Sprintf("IN_STOCK_HERE: %d\n", in.Availability.InStock))
		for _, near := range in.Availability.NearbyStock {
			b.WriteString(fmt.Sprintf("NEARBY: %s has %d\n", near.StoreName, near.InStock))
		}
		b.WriteString("</stock>\n\n")
	}

	if in.Alternative != nil {
		b.WriteString("<in_stock_alternative>\n")
		b.WriteString(fmt.Sprintf("SKU: %s NAME: %s PRICE: %.2f\n",
			in.Alternative.SKU, in.Alternative.Name, in.Alternative.Price))
		b.WriteString("</in_stock_alternative>\n\n")
	}

	b.WriteString("<catalog_context>\n")
	if in.ContextSummary != "" {
		b.WriteString(in.ContextSummary)
	} else {
		for _, ch := range in.Chunks {
			b.WriteString(fmt.Sprintf("[%s] %s\n%s\n\n", ch.ChunkID, ch.SectionTitle, ch.SectionBody))
		}
	}
	b.WriteString("\n</catalog_context>\n\n")

	b.WriteString("<question>\n")
	b.WriteString(in.Question)
	b.WriteString("\n</question>\n\n")

	b.WriteString("<output_format>\n")
	b.WriteString("Respond with ONLY valid JSON, no prose, no code fences:\n")
	b.WriteString("{\n")
	b.WriteString("  \"summary\": \"2-3 sentence answer the staff member can say aloud\",\n")
	b.WriteString("  \"key_points\": [\"short factual point\", ...],\n")
	b.WriteString("  \"attachments\": [\"suggested add-on product\", ...],\n")
	b.WriteString("  \"sentiment_note\": \"one line on customer-facing tone, or empty\",\n")
	b.WriteString("  \"compliance_flags\": [],\n")
	b.WriteString("  \"citations\": [\"chunk id from the [brackets] above\", ...]\n")
	b.WriteString("}\n")
	b.WriteString("</output_format>")

	return b.String()
}

func bulletText(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• ", "– "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}
	// numbered lists: "1. point"
	if len(line) > 2 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return strings.TrimSpace(line[2:]), true
	}
	return "", false
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexAny(text, ".!?"); idx > 0 && idx < len(text)-1 {
		return text[:idx+1]
	}
	if len(text) > 200 {
		cut := 200
		// back off to a rune boundary so a multibyte character is never split
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut]
	}
	return text
}

func appendFlag(flags []string, flag string) []string {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}
