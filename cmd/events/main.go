package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-bookrec-be/pkg/events"
	"ai-bookrec-be/pkg/nats"

	"github.com/joho/godotenv"
)

// Tails pipeline lifecycle events off the bus. Useful for watching an
// ingestion run or recommendation traffic without digging through logs.
func main() {
	subject := flag.String("subject", "events.>", "subject filter, e.g. events.INGEST_COMPLETED")
	durable := flag.String("durable", "event-tail", "durable consumer name")
	flag.Parse()

	_ = godotenv.Load()
	url := os.Getenv("NATS_URL")
	if url == "" {
		url = "nats://localhost:4222"
	}

	sub, err := nats.NewSubscriber(url)
	if err != nil {
		log.Fatalf("connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(*subject, *durable, func(ctx context.Context, event events.Event) error {
		log.Printf("%s %v", event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
