// Package app assembles the client: session store, gateway, repositories
// and workflows, wired the same way for the terminal client, the console
// server and the end-to-end tests.
package app

import (
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/aggregate"
	"github.com/boddenberg/banksim-client-go/internal/config"
	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/guard"
	"github.com/boddenberg/banksim-client-go/internal/handler"
	"github.com/boddenberg/banksim-client-go/internal/infra/cache"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/infra/resilience"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/repository"
	"github.com/boddenberg/banksim-client-go/internal/service"
	"github.com/boddenberg/banksim-client-go/internal/session"
	"github.com/boddenberg/banksim-client-go/internal/transfer"

	"go.uber.org/zap"
)

// App holds every client component.
type App struct {
	Sessions *session.Store
	Gateway  *gateway.Gateway
	Guard    *guard.Guard
	Engine   *aggregate.Engine

	Auth         *service.AuthService
	UserHome     *service.UserDashboard
	Customers    *service.CustomerService
	Accounts     *service.AccountService
	Transactions *service.TransactionService
	Queries      *service.QueryService
	Admin        *service.AdminDashboard
	Transfer     *transfer.Workflow

	Metrics *observability.Metrics
	Logger  *zap.Logger

	collections *cache.InMemory[[]domain.Record]
}

// New wires the client over storage. Failures of interactive calls are
// announced to notifier; background loads (dashboard probe, statistics,
// admin collections) go through the undecorated gateway and only log.
func New(cfg *config.Config, storage session.Storage, notifier notify.Notifier, metrics *observability.Metrics, logger *zap.Logger) *App {
	sessions := session.Open(storage, logger.Named("session"))

	// --- Gateway ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	gw := gateway.New(httpClient, cfg.APIBaseURL, sessions, gateway.NewBreaker(), resilience.Config{
		MaxRetries:     cfg.ProbeRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}, metrics, logger.Named("gateway"))
	api := notify.WrapGateway(gw, notifier)

	// --- Repositories ---
	auth := repository.NewAuthRepo(api)
	customers := repository.NewCustomerRepo(api)
	accounts := repository.NewAccountRepo(api)
	txns := repository.NewTransactionRepo(api)
	queries := repository.NewQueryRepo(api)

	quietCustomers := repository.NewCustomerRepo(gw)
	quiet := aggregate.RepositorySources(
		quietCustomers,
		repository.NewAccountRepo(gw),
		repository.NewTransactionRepo(gw),
		repository.NewQueryRepo(gw),
	)

	// --- Aggregation ---
	collections := cache.New[[]domain.Record](cfg.CollectionCacheTTL)
	engine := aggregate.NewEngine(quiet, collections, metrics, logger.Named("aggregate"))

	// --- Workflows ---
	g := guard.New(sessions, logger.Named("guard"))
	svcLogger := logger.Named("service")

	return &App{
		Sessions: sessions,
		Gateway:  gw,
		Guard:    g,
		Engine:   engine,

		Auth:         service.NewAuthService(auth, sessions, notifier, svcLogger, engine),
		UserHome:     service.NewUserDashboard(g, sessions, quietCustomers, quiet, svcLogger),
		Customers:    service.NewCustomerService(g, sessions, customers, notifier, svcLogger),
		Accounts:     service.NewAccountService(g, accounts, notifier, svcLogger),
		Transactions: service.NewTransactionService(g, txns, notifier, svcLogger),
		Queries:      service.NewQueryService(g, sessions, queries, notifier, svcLogger),
		Admin:        service.NewAdminDashboard(g, engine, notifier, svcLogger),
		Transfer:     transfer.New(g, txns, notifier, metrics, logger.Named("transfer")),

		Metrics: metrics,
		Logger:  logger,

		collections: collections,
	}
}

// Router returns the console server over this client. feed receives the
// notifications drained by GET /notifications; a nil limiter disables rate
// limiting.
func (a *App) Router(feed *notify.Feed, limiter *handler.VisitorLimiter) http.Handler {
	return handler.NewRouter(&handler.Services{
		Auth:         a.Auth,
		UserHome:     a.UserHome,
		Customers:    a.Customers,
		Accounts:     a.Accounts,
		Transactions: a.Transactions,
		Queries:      a.Queries,
		Admin:        a.Admin,
		Transfer:     a.Transfer,
		Feed:         feed,
		Prober:       a.Gateway,
	}, limiter, a.Metrics, a.Logger.Named("console"))
}

// Close stops background work and releases the session storage.
func (a *App) Close() error {
	a.collections.Close()
	return a.Sessions.Close()
}
