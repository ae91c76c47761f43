// Package handler exposes the client workflows as a local console server.
// Each route mirrors a view; guard denials answer 303 with the role's login
// route in Location.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/service"
	"github.com/boddenberg/banksim-client-go/internal/transfer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Prober checks that the remote API answers.
type Prober interface {
	Probe(ctx context.Context) *gateway.ProbeResult
}

// Services bundles the workflows served by the console.
type Services struct {
	Auth         *service.AuthService
	UserHome     *service.UserDashboard
	Customers    *service.CustomerService
	Accounts     *service.AccountService
	Transactions *service.TransactionService
	Queries      *service.QueryService
	Admin        *service.AdminDashboard
	Transfer     *transfer.Workflow
	Feed         *notify.Feed
	Prober       Prober
}

// NewRouter creates the HTTP router with all routes and middleware.
// A nil limiter disables rate limiting.
func NewRouter(svc *Services, limiter *VisitorLimiter, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(svc.Prober, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/v1/metrics/client", clientMetricsHandler(metrics))

	// --- Views ---
	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter, logger))
		}

		r.Get("/notifications", notificationsHandler(svc.Feed))
		r.Get("/session", sessionHandler(svc.Auth))
		r.Post("/logout", logoutHandler(svc.Auth, logger))

		r.Route("/user", func(r chi.Router) {
			r.Post("/login", userLoginHandler(svc.Auth, logger))
			r.Get("/dashboard", userDashboardHandler(svc.UserHome, logger))

			r.Post("/transaction", transferHandler(svc.Transfer, logger))
			r.Get("/transactions/{accountNumber}", searchTransactionsHandler(svc.Transactions, logger))
			r.Get("/transactions/{accountNumber}/download", downloadTransactionsHandler(svc.Transactions, logger))

			r.Post("/customer", createCustomerHandler(svc.Customers, logger))
			r.Get("/customer/{aadhar}", getCustomerHandler(svc.Customers, logger))
			r.Put("/customer/{aadhar}", updateCustomerHandler(svc.Customers, logger))

			r.Post("/account", createAccountHandler(svc.Accounts, logger))
			r.Get("/account/{accountNumber}", getAccountHandler(svc.Accounts, logger))
			r.Put("/account/{accountNumber}", updateAccountHandler(svc.Accounts, logger))
			r.Delete("/account/{accountNumber}", deleteAccountHandler(svc.Accounts, logger))

			r.Get("/query", queryPrefillHandler(svc.Queries, logger))
			r.Post("/query", submitQueryHandler(svc.Queries, logger))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminLoginHandler(svc.Auth, logger))
			r.Get("/dashboard", adminDashboardHandler(svc.Admin, logger))
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}

type readinessResponse struct {
	Status    string `json:"status"`
	Reachable bool   `json:"reachable"`
	APIStatus int    `json:"apiStatus,omitempty"`
	Attempts  int    `json:"attempts"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// readyzHandler reports ready only when the remote API answers.
func readyzHandler(prober Prober, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if prober == nil {
			writeJSON(w, http.StatusOK, readinessResponse{Status: "ready"})
			return
		}

		res := prober.Probe(r.Context())
		resp := readinessResponse{
			Status:    "ready",
			Reachable: res.Reachable,
			APIStatus: res.Status,
			Attempts:  res.Attempts,
			LatencyMs: res.Latency.Milliseconds(),
		}
		if !res.Reachable {
			resp.Status = "unavailable"
			if res.Err != nil {
				resp.Error = res.Err.Error()
			}
			logger.Warn("api not reachable", zap.Int("attempts", res.Attempts), zap.Error(res.Err))
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func clientMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}

// notificationsHandler hands over and forgets everything announced since
// the previous call.
func notificationsHandler(feed *notify.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if feed == nil {
			writeJSON(w, http.StatusOK, []notify.Notification{})
			return
		}
		writeJSON(w, http.StatusOK, feed.Drain())
	}
}
