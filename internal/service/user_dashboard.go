package service

import (
	"context"

	"github.com/boddenberg/banksim-client-go/internal/aggregate"
	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashTracer = otel.Tracer("service/dashboard")

// UserDashboardView is what the user dashboard shows.
type UserDashboardView struct {
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Profile     map[string]any `json:"profile"`
	HasCustomer bool           `json:"hasCustomer"`
	Stats       domain.Stats   `json:"stats"`
}

// UserDashboard loads the staff user's landing view. The customer probe and
// the statistics are background information: their failures are logged,
// never shown to the user, so wire them to quiet (undecorated) repositories.
type UserDashboard struct {
	guard     Guard
	sessions  port.SessionReader
	customers port.CustomerRepository
	stats     aggregate.Sources
	logger    *zap.Logger
}

// NewUserDashboard creates a UserDashboard. stats needs the customers,
// accounts and transactions sources.
func NewUserDashboard(guard Guard, sessions port.SessionReader, customers port.CustomerRepository, stats aggregate.Sources, logger *zap.Logger) *UserDashboard {
	return &UserDashboard{
		guard:     guard,
		sessions:  sessions,
		customers: customers,
		stats:     stats,
		logger:    logger,
	}
}

// Load runs the guard, probes for the user's customer record and counts
// the three collections concurrently.
func (d *UserDashboard) Load(ctx context.Context) (*UserDashboardView, error) {
	ctx, span := dashTracer.Start(ctx, "UserDashboard.Load")
	defer span.End()

	if err := d.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	sess, ok := d.sessions.Get()
	if !ok {
		return nil, &domain.ErrRedirect{Target: domain.RoleUser.LoginPath(), Reason: "session ended"}
	}
	userID, err := sess.UserID()
	if err != nil {
		return nil, err
	}

	view := &UserDashboardView{
		Name:    sess.DisplayName(),
		Email:   sess.Email(),
		Profile: sess.Profile,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, found, err := d.customers.FindByUser(gCtx, userID)
		if err != nil {
			d.logger.Error("customer probe failed", zap.String("user_id", userID), zap.Error(err))
			return nil
		}
		view.HasCustomer = found
		return nil
	})
	g.Go(func() error {
		stats, err := d.loadStats(gCtx)
		if err != nil {
			d.logger.Error("failed to fetch dashboard stats", zap.Error(err))
			return nil
		}
		view.Stats = *stats
		return nil
	})
	_ = g.Wait()

	span.SetAttributes(
		attribute.Bool("customer.exists", view.HasCustomer),
		attribute.Int("stats.accounts", view.Stats.Accounts),
	)
	return view, nil
}

// loadStats issues the three collection loads concurrently and waits for
// all of them. Any failure discards the whole result.
func (d *UserDashboard) loadStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	targets := map[domain.EntityType]*int{
		domain.EntityCustomers:    &stats.Customers,
		domain.EntityAccounts:     &stats.Accounts,
		domain.EntityTransactions: &stats.Transactions,
	}

	g, gCtx := errgroup.WithContext(ctx)
	for t, dst := range targets {
		list, ok := d.stats[t]
		if !ok {
			continue
		}
		g.Go(func() error {
			recs, err := list(gCtx)
			if err != nil {
				return err
			}
			*dst = len(recs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}
