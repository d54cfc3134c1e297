// Command cli issues one-time login URLs from the command line. It talks
// to the database directly and acts with full user-management rights, so
// it is meant for operators on trusted hosts.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/loginlink/loginlink/internal/logging"
	"github.com/loginlink/loginlink/internal/server/config"
	"github.com/loginlink/loginlink/internal/server/events"
	"github.com/loginlink/loginlink/internal/server/models"
	"github.com/loginlink/loginlink/internal/server/repositories/repomanager"
	"github.com/loginlink/loginlink/internal/server/services"
)

func main() {

	var (
		user        = flag.String("user", "", "target user id, login or email")
		count       = flag.Int("count", 1, "number of login URLs to issue")
		delayDelete = flag.Bool("delay-delete", false, "keep outstanding tokens valid for the grace window")
	)

	// MustLoad registers -config and parses the flag set.
	cfg := config.MustLoad()

	if *user == "" {
		log.Fatal("missing required -user flag")
	}

	ctx := context.Background()

	urls, err := issue(ctx, cfg, *user, *count, *delayDelete)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for _, u := range urls {
		fmt.Println(u)
	}
}

func issue(ctx context.Context, cfg *config.Config, user string, count int, delayDelete bool) ([]string, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm, err := repomanager.NewPostgresRepositoryManager()
	if err != nil {
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	notifier, err := events.NewNotifier(io.Discard, logger)
	if err != nil {
		return nil, fmt.Errorf("event notifier init error: %w", err)
	}

	scheduler := services.NewScheduler(db, rm, logger)
	ts := services.NewTokenService(db, rm, services.NewPolicy(), scheduler, notifier, logger, cfg)

	actor := &models.Actor{UserID: "cli", ManageUsers: true}

	return ts.Issue(ctx, actor, user, count, delayDelete)
}
