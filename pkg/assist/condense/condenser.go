package condense

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/llm"
	"shopassist-be/pkg/store"
)

// CharsPerToken is the fixed estimation heuristic.
const CharsPerToken = 4

// Condenser compresses retrieved chunks to a token budget while preserving
// facts. One-shot: no multi-pass refinement.
type Condenser struct {
	provider llm.LLMProvider
	log      logger.ILogger
}

func NewCondenser(provider llm.LLMProvider, log logger.ILogger) *Condenser {
	return &Condenser{provider: provider, log: log}
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return (len(text) + CharsPerToken - 1) / CharsPerToken
}

// Condense concatenates chunks verbatim when under budget; otherwise it asks
// the model for a fact-preserving summary, hard-truncating if that call fails.
func (c *Condenser) Condense(ctx context.Context, chunks []*store.Chunk, maxTokens int) string {
	if len(chunks) == 0 {
		return ""
	}
	if maxTokens <= 0 {
		maxTokens = 1500
	}

	full := concatenate(chunks)
	if EstimateTokens(full) <= maxTokens {
		return full
	}

	if c.provider != nil {
		summarized, err := c.summarize(ctx, full, maxTokens)
		if err == nil && strings.TrimSpace(summarized) != "" {
			// The model does not always honor its length instruction; the
			// budget holds either way.
			if EstimateTokens(summarized) > maxTokens {
				c.log.Warn("condense", "summary overran budget, hard truncating", map[string]interface{}{
					"summary_tokens": EstimateTokens(summarized),
					"max_tokens":     maxTokens,
				})
				return truncate(summarized, maxTokens*CharsPerToken)
			}
			return summarized
		}
		if err != nil {
			c.log.Warn("condense", "summarization failed, hard truncating", map[string]interface{}{"error": err.Error()})
		}
	}

	return truncate(full, maxTokens*CharsPerToken)
}

func concatenate(chunks []*store.Chunk) string {
	var b strings.Builder
	for _, ch := range chunks {
		if ch.SectionTitle != "" {
			b.WriteString("## ")
			b.WriteString(ch.SectionTitle)
			b.WriteString("\n")
		}
		b.WriteString(ch.SectionBody)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Condenser) summarize(ctx context.Context, text string, maxTokens int) (string, error) {
	prompt := fmt.Sprintf(
		"Compress the product information below to at most %d tokens.\n"+
			"PRESERVE every factual statement: specifications, measurements, warranty terms, compatibility notes, prices.\n"+
			"DROP only marketing language and repetition.\n"+
			"Do not add information. Keep section headings.\n\n%s",
		maxTokens, text)

	return c.provider.Generate(ctx, prompt,
		llm.WithTemperature(0.0),
		llm.WithMaxTokens(maxTokens),
	)
}

func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	// back off to a rune boundary so a multibyte character is never split
	for maxChars > 0 && !utf8.RuneStart(text[maxChars]) {
		maxChars--
	}
	cut := text[:maxChars]
	// avoid cutting a line in half when a newline is reasonably close
	if idx := strings.LastIndexByte(cut, '\n'); idx > maxChars/2 {
		cut = cut[:idx]
	}
	return cut
}
