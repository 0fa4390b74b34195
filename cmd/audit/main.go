package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"shopassist-be/internal/config"
	"shopassist-be/pkg/events"
	pkgnats "shopassist-be/pkg/nats"
)

// Tails the turn audit stream. Ops tool for watching answer quality live:
// every processed turn shows up with its intent, synthesis tier and latency.
func main() {
	cfg := config.Load()

	sub, err := pkgnats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe("shopassist.turn.completed", "audit-tail", func(_ context.Context, event events.Event) error {
		payload := event.Payload()
		log.Printf("[TURN] conversation=%v intent=%v tier=%v citations=%v latency_ms=%v",
			payload["conversation_id"], payload["intent"], payload["tier"],
			payload["citations"], payload["latency_ms"])
		return nil
	})
	if err != nil {
		log.Fatalf("Error: Failed to subscribe: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
}
