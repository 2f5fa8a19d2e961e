package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"dmgo/backend/internal/api/handler"
	"dmgo/backend/internal/attachment"
	"dmgo/backend/internal/auth"
	"dmgo/backend/internal/chat"
	"dmgo/backend/internal/config"
	"dmgo/backend/internal/events"
	"dmgo/backend/internal/server"
	"dmgo/backend/internal/storage"
	"dmgo/backend/internal/upstream"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*gorm.DB, *redis.Client) {
	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalw("Failed to connect database", "driver", cfg.DBDriver, "error", err)
	}

	// Production schemas are owned by the admin migrate command.
	if cfg.IsDevelopment() || cfg.DBDriver == "sqlite" {
		if err := storage.AutoMigrate(db); err != nil {
			log.Fatalw("Failed to run migrations", "error", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalw("Failed to connect Redis", "addr", cfg.RedisAddr, "error", err)
	}

	log.Infow("Database and Redis connections established.", "driver", cfg.DBDriver)
	return db, rdb
}

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

	db, rdb := setupDependencies(ctx, cfg, log)
	defer rdb.Close()

	// 1. Event pipeline: committed writes are queued and forwarded to the gateway.
	bus := events.NewBus(config.EventQueueSize, config.MaxConcurrentDeliveries, log)
	notifier := events.NewNotifier(rdb, log)
	busDone := make(chan struct{})
	go func() {
		defer close(busDone)
		bus.Run(ctx, notifier.Handle)
	}()

	// 2. Upstream collaborators. An unset URL disables the feature.
	var (
		users chat.UserDirectory
		media chat.MediaService
		voice chat.VoiceResolver
	)
	if cfg.UsersURL != "" {
		users = upstream.NewUsersClient(cfg.UsersURL)
	} else {
		log.Warn("USERS_URL not set, recipient existence is not checked")
	}
	if cfg.MediaURL != "" {
		mediaClient := upstream.NewMediaClient(cfg.MediaURL)
		media = mediaClient
		voice = attachment.NewResolver(mediaClient, log)
	} else {
		log.Warn("MEDIA_URL not set, attachments are neither resolved nor deleted")
	}

	svc := chat.NewService(storage.NewStorageService(db), users, media, voice, bus, log)

	// 3. HTTP routing
	r := server.NewRouter(cfg, cfg.CORSOrigins)
	handler.NewHandler(svc, auth.NewVerifier(cfg.JWTSecret), log).RegisterRoutes(r, cfg.InternalToken, cfg.IsDevelopment())

	if err := server.Serve(ctx, server.NewHTTPServer(cfg.HTTPAddr, r), log); err != nil {
		log.Errorw("HTTP server failed", "error", err)
	}

	stop()
	<-busDone
	log.Infow("API stopped.", "pendingEvents", bus.Len())
}
