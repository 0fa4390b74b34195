package service

import (
	"context"
	"encoding/json"
	"errors"

	"shopassist-be/internal/dto"
	"shopassist-be/internal/pkg/logger"
	"shopassist-be/pkg/assist/pipeline"
	"shopassist-be/pkg/assist/state"

	"github.com/gofiber/fiber/v2"
)

type IAssistService interface {
	SendTurn(ctx context.Context, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error)
	GetState(ctx context.Context, conversationID string) (*dto.ConversationStateResponse, error)
	ResetState(ctx context.Context, conversationID string) error
}

type assistService struct {
	executor         *pipeline.TurnExecutor
	states           state.Store
	publisherService IPublisherService
	log              logger.ILogger
}

func NewAssistService(
	executor *pipeline.TurnExecutor,
	states state.Store,
	publisherService IPublisherService,
	log logger.ILogger,
) IAssistService {
	return &assistService{
		executor:         executor,
		states:           states,
		publisherService: publisherService,
		log:              log,
	}
}

// SendTurn runs the pipeline for one question. The pipeline degrades inside
// its stages; the only failure surfaced to the caller is a missing question.
func (s *assistService) SendTurn(ctx context.Context, req *dto.SendTurnRequest) (*dto.SendTurnResponse, error) {
	result, err := s.executor.Execute(ctx, pipeline.TurnRequest{
		ConversationID: req.ConversationID,
		StoreID:        req.StoreID,
		UserText:       req.UserText,
		SKU:            req.Sku,
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyQuestion) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "user_text is required")
		}
		return nil, err
	}

	s.publishTurnCompleted(ctx, result)

	return &dto.SendTurnResponse{
		ConversationID: result.ConversationID,
		Intent:         string(result.Intent.Type),
		Confidence:     result.Intent.Confidence,
		Answer:         result.Answer,
		LatencyMs:      result.Latency.Milliseconds(),
	}, nil
}

func (s *assistService) GetState(ctx context.Context, conversationID string) (*dto.ConversationStateResponse, error) {
	st, found := s.states.Get(ctx, conversationID)
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, "Conversation not found")
	}
	return &dto.ConversationStateResponse{State: st}, nil
}

func (s *assistService) ResetState(ctx context.Context, conversationID string) error {
	return s.states.Delete(ctx, conversationID)
}

// publishTurnCompleted emits the audit event on the in-process bus. Best
// effort: a bus failure never fails the turn.
func (s *assistService) publishTurnCompleted(ctx context.Context, result *pipeline.TurnResult) {
	if s.publisherService == nil {
		return
	}

	payload, err := json.Marshal(dto.TurnCompletedMessage{
		ConversationID: result.ConversationID,
		Intent:         string(result.Intent.Type),
		Tier:           string(result.Answer.Tier),
		Citations:      len(result.Answer.Citations),
		LatencyMs:      result.Latency.Milliseconds(),
	})
	if err != nil {
		return
	}

	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.log.Warn("assist_service", "failed to publish turn event", map[string]interface{}{
			"conversation_id": result.ConversationID,
			"error":           err.Error(),
		})
	}
}
