// Package session is the single source of truth for "is anyone logged in,
// and as what role". Call sites depend on Store, never on the storage
// medium behind it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Storage slots. Kept independent so a half-written session is detectable.
const (
	KeyToken   = "authToken"
	KeyRole    = "userType"
	KeyProfile = "userData"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("session store is closed")

// Store reads and writes the current session.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	logger  *zap.Logger
	closed  bool
}

// Open starts a Store over storage. Whatever session the storage already
// holds becomes the current session.
func Open(storage Storage, logger *zap.Logger) *Store {
	s := &Store{storage: storage, logger: logger}
	if sess, ok := s.Get(); ok {
		logger.Debug("session restored", sessionFields(sess)...)
	}
	return s
}

// Set replaces the current session. Token and role are required together.
// The token slot is written last so an interrupted write reads as "no session".
func (s *Store) Set(token string, role domain.Role, profile map[string]any) error {
	if token == "" {
		return &domain.ErrValidation{Field: "token", Message: "is required"}
	}
	if !role.Valid() {
		return &domain.ErrValidation{Field: "role", Message: fmt.Sprintf("unknown role %q", role)}
	}

	blob := []byte("null")
	if profile != nil {
		var err error
		if blob, err = json.Marshal(profile); err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := s.storage.Delete(KeyToken); err != nil {
		return fmt.Errorf("reset token slot: %w", err)
	}
	if err := s.storage.Set(KeyProfile, string(blob)); err != nil {
		return fmt.Errorf("write profile slot: %w", err)
	}
	if err := s.storage.Set(KeyRole, string(role)); err != nil {
		return fmt.Errorf("write role slot: %w", err)
	}
	if err := s.storage.Set(KeyToken, token); err != nil {
		return fmt.Errorf("write token slot: %w", err)
	}

	s.logger.Info("session started", sessionFields(&domain.Session{Token: token, Role: role})...)
	return nil
}

// Clear destroys the current session. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	var errs []error
	for _, key := range []string{KeyToken, KeyRole, KeyProfile} {
		if err := s.storage.Delete(key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s slot: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("session cleared")
	return nil
}

// Get returns the current session. A missing token or role (or an unknown
// role tag) reads as no session at all.
func (s *Store) Get() (*domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.storage.Get(KeyToken)
	if !ok || token == "" {
		return nil, false
	}
	tag, ok := s.storage.Get(KeyRole)
	if !ok {
		s.logger.Warn("session: token present without role, treating as logged out")
		return nil, false
	}
	role, ok := domain.ParseRole(tag)
	if !ok {
		s.logger.Warn("session: unknown role tag", zap.String("role", tag))
		return nil, false
	}

	sess := &domain.Session{Token: token, Role: role}
	if blob, ok := s.storage.Get(KeyProfile); ok && blob != "" {
		if err := json.Unmarshal([]byte(blob), &sess.Profile); err != nil {
			s.logger.Warn("session: unreadable profile", zap.Error(err))
			sess.Profile = nil
		}
	}
	return sess, true
}

// Close ends the store's lifecycle. Later writes fail with ErrClosed;
// reads keep working so in-flight workflows can finish.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// sessionFields describes a session for logs without leaking the token.
// Tokens issued as JWTs contribute their subject and expiry.
func sessionFields(sess *domain.Session) []zap.Field {
	fields := []zap.Field{zap.String("role", string(sess.Role))}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.Token, &claims); err == nil {
		if claims.Subject != "" {
			fields = append(fields, zap.String("subject", claims.Subject))
		}
		if claims.ExpiresAt != nil {
			fields = append(fields, zap.Time("token_expires_at", claims.ExpiresAt.Time))
		}
	}
	return fields
}
