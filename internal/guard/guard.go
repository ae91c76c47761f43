// Package guard decides whether the current session may enter a protected
// workflow. Every protected workflow asks the guard before doing anything
// else, so a denied workflow never reaches the network.
package guard

import (
	"fmt"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.uber.org/zap"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	Target  string
	Reason  string
}

// Guard checks sessions against the role a workflow requires.
type Guard struct {
	sessions port.SessionReader
	logger   *zap.Logger
}

// New creates a Guard over sessions.
func New(sessions port.SessionReader, logger *zap.Logger) *Guard {
	return &Guard{sessions: sessions, logger: logger}
}

// Check allows entry when a session exists and its role is role. Otherwise
// it targets role's login view.
func (g *Guard) Check(role domain.Role) Decision {
	sess, ok := g.sessions.Get()
	switch {
	case !ok:
		return g.deny(role, "not logged in")
	case sess.Role != role:
		return g.deny(role, fmt.Sprintf("logged in as %s", sess.Role))
	}
	return Decision{Allowed: true}
}

// Require is Check as an error: nil when allowed, *domain.ErrRedirect otherwise.
func (g *Guard) Require(role domain.Role) error {
	d := g.Check(role)
	if d.Allowed {
		return nil
	}
	return &domain.ErrRedirect{Target: d.Target, Reason: d.Reason}
}

func (g *Guard) deny(role domain.Role, reason string) Decision {
	d := Decision{Target: role.LoginPath(), Reason: reason}
	g.logger.Debug("access denied",
		zap.String("required_role", string(role)),
		zap.String("reason", reason),
		zap.String("target", d.Target),
	)
	return d
}
