package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"PokeShop/internal/auth"
	"PokeShop/internal/cache"
	"PokeShop/internal/catalog"
	"PokeShop/internal/config"
	"PokeShop/internal/db"
	"PokeShop/internal/events"
	internalhttp "PokeShop/internal/http"
	"PokeShop/internal/notify"
	"PokeShop/internal/payments"
	"PokeShop/internal/services"
	"PokeShop/internal/storage"
	"PokeShop/internal/store"
	"PokeShop/internal/tracing"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.Setup(ctx, tracing.Options{
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		log.Fatalf("tracing init failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()
	st := store.New(pool)

	responses, err := newCache(cfg)
	if err != nil {
		log.Fatalf("cache init failed: %v", err)
	}
	// Leave headroom under the request timeout for the cache write and response.
	budget := cfg.RequestTimeout() * 5 / 6
	opts := catalog.Options{APIKey: cfg.Catalog.APIKey, Budget: budget, RatePerSecond: cfg.Catalog.RatePerSecond, Burst: cfg.Catalog.RateBurst}
	var featured *catalog.Client
	if cfg.Catalog.FeaturedBaseURL != "" {
		featured = catalog.NewClient(cfg.Catalog.FeaturedBaseURL, catalog.Options{Budget: budget})
	}
	catalogSvc := catalog.NewService(catalog.NewClient(cfg.Catalog.BaseURL, opts), featured, responses)

	var (
		objects       storage.ObjectStore
		uploadsDir    string
		uploadsPrefix string
	)
	switch cfg.Storage.Driver {
	case "local":
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatalf("storage init failed: %v", err)
		}
		objects, uploadsDir = local, local.Dir()
		if u, err := url.Parse(cfg.Storage.PublicBaseURL); err == nil {
			uploadsPrefix = u.Path
		}
	default:
		objects, err = storage.NewS3Store(ctx, cfg.Storage.Bucket, cfg.Storage.Region, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatalf("storage init failed: %v", err)
		}
	}

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

	hub := notify.NewHub()
	go hub.Run(ctx)
	upgrader := notify.Upgrader(cfg.Server.AllowedOrigins)

	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
	verifier := auth.NewVerifier(auth.Options{
		JWKSURL:   cfg.JWKSURL(),
		Issuer:    cfg.Issuer(),
		Audience:  cfg.Auth.Audience,
		DevSecret: cfg.Auth.DevSecret,
	})

	h := &internalhttp.Handler{
		Auth:       &internalhttp.Authenticator{Verifier: verifier, Users: st},
		Users:      services.NewUserService(st),
		Admin:      services.NewAdminService(st, pub, hub),
		Listings:   services.NewListingService(st, objects),
		Cart:       services.NewCartService(st),
		Checkout:   services.NewCheckoutService(st, gateway, cfg.Server.FrontendURL),
		Orders:     services.NewOrderService(st),
		Catalog:    catalogSvc,
		Payments:   gateway,
		Reconciler: payments.NewReconciler(st, pub, hub),
		Hub:        hub,
		Upgrader:   &upgrader,
		DB:         st,
	}
	srv := internalhttp.NewServer(h, internalhttp.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout(),
		UploadsDir:     uploadsDir,
		UploadsPrefix:  uploadsPrefix,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           otelhttp.NewHandler(srv.Router, cfg.Tracing.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("api listening on %s (storage=%s cache=%s events=%s)",
			cfg.Server.Addr, cfg.Storage.Driver, cfg.Catalog.CacheDriver, cfg.Events.Driver)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func newCache(cfg *config.Config) (cache.Cache, error) {
	if cfg.Catalog.CacheDriver != "redis" {
		return cache.NewTTL(cfg.CacheTTL(), cfg.Catalog.CacheCapacity, time.Now), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Catalog.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return cache.NewRedis(client, cfg.CacheTTL()), nil
}
