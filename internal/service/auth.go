// Package service provides the workflows behind each view: login and
// logout, the user dashboard, the customer/account/transaction/query forms
// and the admin dashboard. Every protected workflow asks the access guard
// first and issues no call when it is refused.
package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// Guard is the access check every protected workflow runs first.
type Guard interface {
	Require(role domain.Role) error
}

// Invalidator drops client-side caches that belong to a session.
type Invalidator interface {
	Invalidate()
}

// LoginOutcome is what a successful login hands back to the view.
type LoginOutcome struct {
	Session  *domain.Session `json:"session"`
	Redirect string          `json:"redirect"`
}

// AuthService logs actors in and out.
type AuthService struct {
	auth     port.AuthRepository
	sessions port.SessionStore
	notifier notify.Notifier
	caches   []Invalidator
	logger   *zap.Logger
}

// NewAuthService creates an AuthService. caches are dropped on every
// login and logout.
func NewAuthService(auth port.AuthRepository, sessions port.SessionStore, notifier notify.Notifier, logger *zap.Logger, caches ...Invalidator) *AuthService {
	return &AuthService{
		auth:     auth,
		sessions: sessions,
		notifier: notifier,
		caches:   caches,
		logger:   logger,
	}
}

// LoginUser logs a staff user in. On failure the session is unchanged.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*LoginOutcome, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.LoginUser")
	defer span.End()

	res, err := s.auth.LoginUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, domain.RoleUser, res, "Login Successful!", "Welcome back to Banking Simulator")
}

// LoginAdmin logs an administrator in. On failure the session is unchanged.
func (s *AuthService) LoginAdmin(ctx context.Context, username, password string) (*LoginOutcome, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.LoginAdmin")
	defer span.End()

	res, err := s.auth.LoginAdmin(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return s.establish(ctx, domain.RoleAdmin, res, "Admin Login Successful!", "Welcome to the Admin Dashboard")
}

func (s *AuthService) establish(ctx context.Context, role domain.Role, res *port.LoginResult, title, text string) (*LoginOutcome, error) {
	token := res.Token
	if token == "" {
		// The server authenticated the actor but issued no token. Calls
		// will go out with an opaque local one.
		token = "local-" + uuid.NewString()
		s.logger.Warn("login response carried no token; using a local session token",
			zap.String("role", string(role)),
		)
	}

	if err := s.sessions.Set(token, role, res.Profile); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.invalidate()

	sess, ok := s.sessions.Get()
	if !ok {
		return nil, &domain.ErrSession{Message: "The session could not be stored. Please log in again."}
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("role", string(role)))
	s.logger.Info("logged in", zap.String("role", string(role)), zap.String("name", sess.DisplayName()))

	s.notifier.Notify(ctx, notify.Success(title, text))
	return &LoginOutcome{Session: sess, Redirect: role.HomePath()}, nil
}

// Logout ends the current session. It succeeds even when nobody is logged in.
func (s *AuthService) Logout(ctx context.Context) (string, error) {
	_, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	sess, had := s.sessions.Get()
	if err := s.sessions.Clear(); err != nil {
		return "", fmt.Errorf("clear session: %w", err)
	}
	s.invalidate()

	if had {
		s.logger.Info("logged out", zap.String("role", string(sess.Role)))
		s.notifier.Notify(ctx, notify.Success("Logged Out", "You have been successfully logged out."))
	}
	return "/", nil
}

// Current returns the current session, if any.
func (s *AuthService) Current() (*domain.Session, bool) {
	return s.sessions.Get()
}

func (s *AuthService) invalidate() {
	for _, c := range s.caches {
		c.Invalidate()
	}
}
