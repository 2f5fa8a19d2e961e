package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"dmgo/backend/internal/chat"
	"dmgo/backend/internal/config"
	"dmgo/backend/internal/events"
	"dmgo/backend/internal/models"
	"dmgo/backend/internal/server"
	"dmgo/backend/internal/storage"
	"dmgo/backend/migrations"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  migrate [up|down]                          apply or roll back the SQL schema (DB_URL)
  automigrate                                create the schema from the models (DB_DRIVER, DB_DSN)
  chats <user_id>                            list a user's most recent chats
  replay <new|read> <message_id> <user_id>   re-publish a delivery event to the gateway`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	command := os.Args[1]

	switch command {
	case "migrate":
		direction := "up"
		if len(os.Args) > 2 {
			direction = os.Args[2]
		}
		if err := runMigrations(cfg.DBURL, direction); err != nil {
			log.Fatalw("Migration failed", "direction", direction, "error", err)
		}
		fmt.Printf("Migration %s successful\n", direction)
	case "automigrate":
		db := openDB(cfg, log)
		if err := storage.AutoMigrate(db); err != nil {
			log.Fatalw("Failed to run migrations", "error", err)
		}
		fmt.Println("Schema is up to date")
	case "chats":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin chats <user_id>")
			os.Exit(1)
		}
		svc := chat.NewService(storage.NewStorageService(openDB(cfg, log)), nil, nil, nil, nil, log)
		if err := listChats(ctx, svc, os.Args[2], os.Stdout); err != nil {
			log.Fatalw("Error listing chats", "userId", os.Args[2], "error", err)
		}
	case "replay":
		if len(os.Args) != 5 {
			fmt.Println("Usage: admin replay <new|read> <message_id> <user_id>")
			os.Exit(1)
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		ev, err := replayEvent(ctx, events.NewNotifier(rdb, log), os.Args[2], os.Args[3], os.Args[4])
		if err != nil {
			log.Fatalw("Error replaying event", "error", err)
		}
		fmt.Printf("Event %s for message %s published to %s.\n", ev.Kind, ev.MessageID, ev.RecipientID)
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openDB(cfg *config.Config, log *zap.SugaredLogger) *gorm.DB {
	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalw("Failed to connect database", "driver", cfg.DBDriver, "error", err)
	}
	return db
}

func newMigrator(dbURL string) (*migrate.Migrate, error) {
	if dbURL == "" {
		return nil, errors.New("DB_URL environment variable is required")
	}
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, dbURL)
}

func runMigrations(dbURL, direction string) error {
	m, err := newMigrator(dbURL)
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func listChats(ctx context.Context, svc *chat.Service, userID string, out io.Writer) error {
	page, err := svc.ChatsByUser(ctx, models.ChatsByUserQuery{UserID: userID, PageSize: config.MaxPageSize, PageNumber: 1})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d chats for %s\n", page.Total, userID)
	for _, c := range page.Items {
		sender := "them"
		if c.IsMine {
			sender = "me"
		}
		fmt.Fprintf(out, "%s  with %s  last %s by %s: %q\n",
			c.ChatID, c.ParticipantID, c.LastMessage.CreatedAt.Format(time.RFC3339), sender, c.LastMessage.Content)
	}
	return nil
}

func replayEvent(ctx context.Context, n *events.Notifier, kind, messageID, recipientID string) (events.Event, error) {
	var ev events.Event
	switch kind {
	case "new":
		ev = events.NewMessage(messageID, recipientID)
	case "read":
		ev = events.MessageRead(messageID, recipientID)
	default:
		return events.Event{}, fmt.Errorf("unknown event kind %q", kind)
	}
	if err := ev.Validate(); err != nil {
		return events.Event{}, err
	}
	return ev, n.Send(ctx, ev)
}
