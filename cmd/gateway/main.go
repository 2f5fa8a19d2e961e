package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"dmgo/backend/internal/api/client"
	"dmgo/backend/internal/api/handler"
	"dmgo/backend/internal/attachment"
	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/chathub"
	"dmgo/backend/internal/config"
	"dmgo/backend/internal/events"
	"dmgo/backend/internal/server"
	"dmgo/backend/internal/upstream"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	logger, err := server.NewLogger(cfg)
	if err != nil {
		stdlog.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalw("Failed to connect Redis", "addr", cfg.RedisAddr, "error", err)
	}
	defer rdb.Close()

	// 1. Collaborators
	api := client.New(cfg.APIURL, cfg.InternalToken)

	var (
		profiles chathub.ProfileLookup
		resolver chathub.AttachmentResolver
	)
	if cfg.UsersURL != "" {
		profiles = upstream.NewUsersClient(cfg.UsersURL)
	} else {
		log.Warn("USERS_URL not set, connections are accepted without a user lookup")
	}
	if cfg.MediaURL != "" {
		resolver = attachment.NewResolver(upstream.NewMediaClient(cfg.MediaURL), log)
	}

	// 2. Registry, delivery and the event subscriber
	registry := chathub.NewRegistry(log)
	delivery := chathub.NewDelivery(registry, api, resolver, profiles, log)

	bus := events.NewBus(config.EventQueueSize, config.MaxConcurrentDeliveries, log)
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		bus.Run(ctx, delivery.Handle)
	}()

	subscriber := events.NewSubscriber(rdb, bus, log)
	go func() {
		if err := subscriber.Run(ctx); err != nil {
			log.Errorw("Event subscriber stopped", "error", err)
			stop()
		}
	}()

	// 3. WebSocket routing
	gateway := chathub.NewGateway(registry, auth.NewVerifier(cfg.JWTSecret), profiles, api, log)

	r := server.NewRouter(cfg, cfg.CORSOrigins)
	handler.NewGatewayHandler(gateway, registry, cfg.CORSOrigins, log).RegisterRoutes(r)

	if err := server.Serve(ctx, server.NewHTTPServer(cfg.GatewayAddr, r), log); err != nil {
		log.Errorw("HTTP server failed", "error", err)
	}

	stop()
	<-busDone
	log.Info("Gateway stopped.")
}
