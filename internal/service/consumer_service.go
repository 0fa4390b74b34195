package service

import (
	"context"
	"encoding/json"
	"log"

	"shopassist-be/internal/dto"
	"shopassist-be/pkg/events"
	pkgnats "shopassist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService bridges turn-completed events from the in-process bus onto
// NATS for the durable audit trail.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	natsPub   *pkgnats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	natsPub *pkgnats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		natsPub:   natsPub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.TurnCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal turn event: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.natsPub == nil {
		msg.Ack() // NATS optional; drop silently when not configured
		return
	}

	event := events.NewTurnCompleted(
		payload.ConversationID,
		payload.Intent,
		payload.Tier,
		payload.Citations,
		payload.LatencyMs,
	)

	if err := cs.natsPub.Publish(ctx, event); err != nil {
		log.Printf("[ERROR] Failed to forward turn event to NATS: %v", err)
		msg.Nack() // Nack for retriable errors
		return
	}

	msg.Ack()
}
