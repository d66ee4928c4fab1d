// Package server wires configuration, storage, services and the HTTP API of
// the chat backend and runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/httpapi"
	"github.com/dmitrijs2005/gophchat/internal/server/replier"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/services"
)

// MemoryDSN selects the non-persistent in-memory storage.
const MemoryDSN = "memory"

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, "json")

	db, rm, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	r := replier.New(c.OpenAIAPIKey, c.OpenAIBaseURL, c.OpenAIModel, logger)
	us := services.NewUserService(db, rm, c)
	cs := services.NewConversationService(db, rm, r, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewHTTPServer(c, logger, us, cs),
	}, nil
}

// openStorage connects to Postgres and applies migrations, or returns the
// in-memory manager with a nil *sql.DB for MemoryDSN.
func openStorage(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn == MemoryDSN {
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, rm, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server error", "error", err)
	}

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error(ctx, "error closing database", "error", cerr)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
