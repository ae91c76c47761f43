package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/boddenberg/banksim-client-go/internal/aggregate"
	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AdminView is one rendering of the admin dashboard.
type AdminView struct {
	Tab     domain.EntityType `json:"tab"`
	Term    string            `json:"term"`
	Total   int               `json:"total"`
	Records []domain.Record   `json:"records"`
}

// AdminDashboard is the administrator's tabbed view over the four
// collections. Collections come from the aggregation engine's cache, so
// switching back to a tab does not refetch it.
type AdminDashboard struct {
	guard    Guard
	engine   port.CollectionLoader
	notifier notify.Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	tab     domain.EntityType
	term    string
	current []domain.Record
}

// NewAdminDashboard creates an AdminDashboard.
func NewAdminDashboard(guard Guard, engine port.CollectionLoader, notifier notify.Notifier, logger *zap.Logger) *AdminDashboard {
	return &AdminDashboard{
		guard:    guard,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		tab:      domain.EntityCustomers,
	}
}

// Mount runs the guard and opens the customers tab.
func (d *AdminDashboard) Mount(ctx context.Context) (*AdminView, error) {
	if err := d.guard.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	return d.SwitchTab(ctx, domain.EntityCustomers)
}

// SwitchTab opens tab and clears the filter term.
func (d *AdminDashboard) SwitchTab(ctx context.Context, tab domain.EntityType) (*AdminView, error) {
	return d.show(ctx, tab, false, true)
}

// Refresh reloads the current tab from the server.
func (d *AdminDashboard) Refresh(ctx context.Context) (*AdminView, error) {
	d.mu.Lock()
	tab := d.tab
	d.mu.Unlock()
	return d.show(ctx, tab, true, false)
}

// SetFilter changes the filter term of the current tab. It issues no call.
func (d *AdminDashboard) SetFilter(term string) *AdminView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.term = term
	return d.viewLocked()
}

// Visible returns the current tab's records that match the filter term.
func (d *AdminDashboard) Visible() []domain.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return aggregate.Filter(d.current, d.term)
}

// Show is a one-shot rendering: open tab (reloading when refresh is set)
// and apply term.
func (d *AdminDashboard) Show(ctx context.Context, tab domain.EntityType, term string, refresh bool) (*AdminView, error) {
	if err := d.guard.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, err := d.show(ctx, tab, refresh, true); err != nil {
		return nil, err
	}
	return d.SetFilter(term), nil
}

func (d *AdminDashboard) show(ctx context.Context, tab domain.EntityType, refresh, resetTerm bool) (*AdminView, error) {
	ctx, span := dashTracer.Start(ctx, "AdminDashboard.show")
	defer span.End()
	span.SetAttributes(attribute.String("tab", string(tab)), attribute.Bool("refresh", refresh))

	if err := d.guard.Require(domain.RoleAdmin); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseEntityType(string(tab)); !ok {
		return nil, &domain.ErrValidation{Field: "tab", Message: fmt.Sprintf("unknown tab %q", tab)}
	}

	load := d.engine.LoadCollection
	if refresh {
		load = d.engine.Refresh
	}
	recs, err := load(ctx, tab)

	d.mu.Lock()
	defer d.mu.Unlock()
	if resetTerm || d.tab != tab {
		d.term = ""
	}
	d.tab = tab
	if err != nil {
		d.current = nil
		d.logger.Error("admin dashboard load failed", zap.String("tab", string(tab)), zap.Error(err))
		d.notifier.Notify(ctx, notify.Error("Error Loading "+string(tab), loadFailureMessage(err)))
		return nil, err
	}
	d.current = recs
	return d.viewLocked(), nil
}

func (d *AdminDashboard) viewLocked() *AdminView {
	return &AdminView{
		Tab:     d.tab,
		Term:    d.term,
		Total:   len(d.current),
		Records: aggregate.Filter(d.current, d.term),
	}
}

// loadFailureMessage prefers the classified message of a failed call.
func loadFailureMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Failed to fetch data from the server."
}
