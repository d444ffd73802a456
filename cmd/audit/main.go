package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-docsearch-be/internal/config"
	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/events"
	pktNats "ai-docsearch-be/pkg/nats"
)

var durable = flag.String("durable", "turn-audit", "Durable consumer name")

// Tails turn events from NATS into the audit log.
func main() {
	flag.Parse()

	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		log.Fatal("Error: NATS_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	audit := logger.NewZapLogger("logs/turns-audit.log", cfg.App.Environment == "production")
	defer func() { _ = audit.Sync() }()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, pktNats.Subject(events.TypeTurnCompleted), *durable, func(ctx context.Context, event events.Event) error {
		details := event.Payload()
		details["occurred_at"] = event.Timestamp()
		audit.Info("TurnAudit", event.EventType(), details)
		return nil
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	<-ctx.Done()
	log.Println("Audit consumer stopped")
}
