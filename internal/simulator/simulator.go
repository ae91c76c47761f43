// Package simulator is an in-memory stand-in for the Banking Simulator
// remote API. It serves the same routes under /bank-simulator/api, issues
// HS256 session tokens and keeps balances as decimals. It backs local
// development (cmd/banksim) and the end-to-end tests.
package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BasePath is where the API is mounted.
const BasePath = "/bank-simulator/api"

// Config configures a simulator.
type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassword string
}

// Server serves the simulated API.
type Server struct {
	cfg       Config
	secret    []byte
	adminHash []byte
	store     *Store
	logger    *zap.Logger
}

// New creates a simulator over an empty store.
func New(cfg Config, logger *zap.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("simulator: JWT secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Server{
		cfg:       cfg,
		secret:    []byte(cfg.JWTSecret),
		adminHash: hash,
		store:     NewStore(),
		logger:    logger,
	}, nil
}

// Store exposes the bank behind the server.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP handler of the simulated API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route(BasePath, func(r chi.Router) {
		r.Get("/", s.handleStatus)

		r.Post("/user/signup", s.handleSignup)
		r.Post("/user/login", s.handleUserLogin)
		r.Post("/admin/login", s.handleAdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken())

			r.Post("/customer/create", s.handleCreateCustomer)
			r.Get("/customer/get/{aadhar}", s.handleGetCustomer)
			r.Put("/customer/update/{aadhar}", s.handleUpdateCustomer)
			r.Get("/customer/getAll", s.handleListCustomers)
			r.Get("/customer/user/{userId}", s.handleCustomerByUser)

			r.Post("/account/create", s.handleCreateAccount)
			r.Get("/account/get/{accountNumber}", s.handleGetAccount)
			r.Put("/account/update/{accountNumber}", s.handleUpdateAccount)
			r.Delete("/account/delete/{accountNumber}", s.handleDeleteAccount)
			r.Get("/account/getAll", s.handleListAccounts)

			r.Post("/transaction/create", s.handleTransfer)
			r.Get("/transaction/get/{accountNumber}", s.handleAccountTransactions)
			r.Get("/transaction/{accountNumber}/download", s.handleDownload)
			r.Get("/transaction/getAll", s.handleListTransactions)

			r.Post("/admin/query", s.handleCreateQuery)
		})

		r.With(s.requireToken(domain.RoleAdmin)).Get("/admin/queries", s.handleListQueries)
	})

	return r
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeStoreError maps store failures to statuses.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	var se *storeError
	if !errors.As(err, &se) {
		s.logger.Error("simulator: internal error", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	switch {
	case errors.Is(err, errNotFound):
		writeMessage(w, http.StatusNotFound, se.msg)
	case errors.Is(err, errConflict):
		writeMessage(w, http.StatusConflict, se.msg)
	case errors.Is(err, errBadSecret):
		writeMessage(w, http.StatusUnauthorized, se.msg)
	default:
		writeMessage(w, http.StatusBadRequest, se.msg)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
