package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"PokeShop/internal/config"
	"PokeShop/internal/db"
	"PokeShop/internal/events"
	"PokeShop/internal/payments"
	"PokeShop/internal/store"
	"PokeShop/internal/worker"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	pub, err := events.Open(events.Options{
		Driver:       cfg.Events.Driver,
		RabbitURL:    cfg.Events.RabbitURL,
		Exchange:     cfg.Events.Exchange,
		KafkaBrokers: cfg.Events.KafkaBrokers,
		KafkaTopic:   cfg.Events.KafkaTopic,
	})
	if err != nil {
		log.Fatalf("events init failed: %v", err)
	}
	defer pub.Close()

	st := store.New(pool)
	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)

	// Websocket clients live in the api process, so nobody is notified here.
	w := &worker.Worker{
		Store:      st,
		Sessions:   gateway,
		Reconciler: payments.NewReconciler(st, pub, nil),
		Interval:   cfg.WorkerInterval(),
		StaleAfter: cfg.StaleAfter(),
		BatchSize:  cfg.Worker.BatchSize,
	}

	log.Printf("worker started (interval=%s stale_after=%s)", w.Interval, w.StaleAfter)
	w.Run(ctx)
	log.Printf("worker stopped")
}
