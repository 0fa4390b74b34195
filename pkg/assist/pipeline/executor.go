package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"shopassist-be/internal/pkg/logger"
	"shopassist-be/internal/repository/contract"
	"shopassist-be/pkg/assist/condense"
	"shopassist-be/pkg/assist/contextmgr"
	"shopassist-be/pkg/assist/entity"
	"shopassist-be/pkg/assist/intent"
	"shopassist-be/pkg/assist/retrieval"
	"shopassist-be/pkg/assist/rewrite"
	"shopassist-be/pkg/assist/synth"
)

// ErrEmptyQuestion is the only caller-input failure the pipeline surfaces.
var ErrEmptyQuestion = errors.New("user_text is required")

// DefaultMaxContextTokens is the condenser budget for one turn when none is
// configured.
const DefaultMaxContextTokens = 1500

// TurnRequest is the JSON-shaped invocation of the pipeline.
type TurnRequest struct {
	ConversationID string
	StoreID        string
	UserText       string
	SKU            string // optional out-of-band product context
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	ConversationID string
	Intent         intent.Intent
	Answer         *synth.StructuredAnswer
	ChunkCount     int
	Latency        time.Duration
}

// TurnExecutor runs the stage sequence for one turn: classify, resolve,
// update state, rewrite, retrieve, condense, synthesize, persist. Stages are
// sequential; fan-out happens inside retrieval and record fetching. States
// are keyed by conversation id, so concurrent turns on different
// conversations never interfere.
type TurnExecutor struct {
	router       *intent.Router
	resolver     *entity.Resolver
	manager      *contextmgr.Manager
	rewriter     *rewrite.Rewriter
	engine       *retrieval.Engine
	condenser    *condense.Condenser
	synthesizer  *synth.Synthesizer
	products     contract.ProductRepository
	availability contract.AvailabilityRepository
	log          logger.ILogger

	maxContextTokens int
}

func NewTurnExecutor(
	router *intent.Router,
	resolver *entity.Resolver,
	manager *contextmgr.Manager,
	rewriter *rewrite.Rewriter,
	engine *retrieval.Engine,
	condenser *condense.Condenser,
	synthesizer *synth.Synthesizer,
	products contract.ProductRepository,
	availability contract.AvailabilityRepository,
	log logger.ILogger,
	maxContextTokens int,
) *TurnExecutor {
	if maxContextTokens <= 0 {
		maxContextTokens = DefaultMaxContextTokens
	}
	return &TurnExecutor{
		router:       router,
		resolver:     resolver,
		manager:      manager,
		rewriter:     rewriter,
		engine:       engine,
		condenser:    condenser,
		synthesizer:  synthesizer,
		products:     products,
		availability: availability,
		log:          log,

		maxContextTokens: maxContextTokens,
	}
}

// Execute processes one turn end to end. It returns an error only for a
// missing question; every downstream failure degrades inside its stage.
func (e *TurnExecutor) Execute(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.UserText) == "" {
		return nil, ErrEmptyQuestion
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}
	started := time.Now()

	st := e.manager.Load(ctx, req.ConversationID, req.StoreID)

	in := e.router.Classify(req.UserText, st, req.SKU)

	ents := e.resolver.Resolve(ctx, req.UserText, st)
	if req.SKU != "" {
		ents.ActiveSKU = req.SKU
		ents.GeneralRecommendation = false
	}

	st = e.manager.Update(st, ents, in, req.UserText)

	query := e.rewriter.Rewrite(ctx, req.UserText, st, ents, in)

	intentSummary := buildIntentSummary(st, in)

	retrieved := e.retrieveIfNeeded(ctx, st, ents, in, query, intentSummary)

	facts := e.fetchBusinessFacts(ctx, st, retrieved, in)

	condensed := e.condenser.Condense(ctx, retrieved, e.maxContextTokens)

	// History passed to the synthesizer excludes the turn being answered.
	answer := e.synthesizer.Synthesize(ctx, synth.Input{
		Question:       req.UserText,
		Chunks:         retrieved,
		ContextSummary: condensed,
		Product:        facts.product,
		Availability:   facts.availability,
		Alternative:    facts.alternative,
		History:        st.TurnHistory,
		Intent:         in,
	})

	st.PushTurn(req.UserText, answer.Summary, time.Now())
	if err := e.manager.Save(ctx, st); err != nil {
		e.log.Warn("pipeline", "state save failed", map[string]interface{}{
			"conversation_id": req.ConversationID,
			"error":           err.Error(),
		})
	}

	latency := time.Since(started)
	e.log.Info("pipeline", "turn processed", map[string]interface{}{
		"conversation_id": req.ConversationID,
		"intent":          string(in.Type),
		"tier":            string(answer.Tier),
		"chunks":          len(retrieved),
		"latency_ms":      latency.Milliseconds(),
	})

	return &TurnResult{
		ConversationID: req.ConversationID,
		Intent:         in,
		Answer:         answer,
		ChunkCount:     len(retrieved),
		Latency:        latency,
	}, nil
}
