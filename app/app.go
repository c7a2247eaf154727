// Package app assembles the coin price bot: storage, market data, the admin
// conversation engine, and the Telegram wiring.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/coinbot/conversation"
	"github.com/m3rciful/coinbot/core/bootstrap"
	coredatabase "github.com/m3rciful/coinbot/core/database"
	"github.com/m3rciful/coinbot/core/logger"
	coretelegram "github.com/m3rciful/coinbot/core/telegram"
	"github.com/m3rciful/coinbot/core/telegram/router"
	"github.com/m3rciful/coinbot/core/telegram/state"
	"github.com/m3rciful/coinbot/directory"
	"github.com/m3rciful/coinbot/quote"
	"log/slog"
)

// App holds the assembled bot components.
type App struct {
	cfg       *Config
	db        *sqlx.DB
	store     directory.Store
	quotes    *quote.Client
	sessions  state.Manager
	transport *botTransport
	engine    *conversation.Engine
}

// Bootstrap initializes infrastructure and wires the bot components.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	var dbCfg *coredatabase.Config
	if cfg.Storage.Backend == StoragePostgres {
		dbCfg = &cfg.Database
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: dbCfg,
	})
	if err != nil {
		return nil, err
	}

	var store directory.Store
	if res.DB != nil {
		store = directory.NewPostgresStore(res.DB)
	} else {
		store = directory.NewMemoryStore()
	}
	logger.Dir.Info("directory ready",
		slog.String("event", "storage"),
		slog.String("storage", cfg.Storage.Backend),
	)

	quotes := quote.NewClient(quote.Options{
		BaseURL:    cfg.CoinGecko.BaseURL,
		VsCurrency: cfg.CoinGecko.VsCurrency,
		Timeout:    time.Duration(cfg.CoinGecko.TimeoutSeconds) * time.Second,
	})

	sessions := state.NewMemoryManager()
	transport := newBotTransport()
	engine := conversation.NewEngine(store, transport, sessions)

	return &App{
		cfg:       cfg,
		db:        res.DB,
		store:     store,
		quotes:    quotes,
		sessions:  sessions,
		transport: transport,
		engine:    engine,
	}, nil
}

// TelegramRunOptions builds the runtime options for the Telegram adapter.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerHandlers(reg)

	middlewares := coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), coretelegram.ChainOptions{
		Recorder:  a.store,
		Blocklist: a.store,
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs: a.cfg.Core.Telegram.AdminIDs,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoute(a.sessions, reg, router.TextOptions{}))

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: middlewares,
		Routes:      routes,
		OnStart: func(_ context.Context, rt coretelegram.Runtime) error {
			a.transport.Bind(rt.Bot)
			return nil
		},
		OnStop: func(_ context.Context, _ coretelegram.Runtime) error {
			if a.db != nil {
				return a.db.Close()
			}
			return nil
		},
	}, nil
}
