package repository

import (
	"context"
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/port"
)

// AccountRepo handles /account endpoints.
type AccountRepo struct {
	api port.Requester
}

// NewAccountRepo creates an AccountRepo.
func NewAccountRepo(api port.Requester) *AccountRepo {
	return &AccountRepo{api: api}
}

// Create opens an account.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "AccountRepo.Create")
	defer span.End()

	if err := domain.Validate(a); err != nil {
		return nil, err
	}
	resp, err := r.api.Do(ctx, http.MethodPost, "/account/create", a, gateway.Operation("account.create"))
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// Get fetches an account by number.
func (r *AccountRepo) Get(ctx context.Context, accountNumber string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "AccountRepo.Get")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/account/get/"+seg(accountNumber), nil, gateway.Operation("account.get"))
	if err != nil {
		return nil, err
	}
	return decodeInto[domain.Account](resp)
}

// Update replaces an account's editable fields.
func (r *AccountRepo) Update(ctx context.Context, accountNumber string, a *domain.Account) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "AccountRepo.Update")
	defer span.End()

	if err := domain.Validate(a); err != nil {
		return nil, err
	}
	resp, err := r.api.Do(ctx, http.MethodPut, "/account/update/"+seg(accountNumber), a, gateway.Operation("account.update"))
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// Delete closes an account.
func (r *AccountRepo) Delete(ctx context.Context, accountNumber string) error {
	ctx, span := tracer.Start(ctx, "AccountRepo.Delete")
	defer span.End()

	_, err := r.api.Do(ctx, http.MethodDelete, "/account/delete/"+seg(accountNumber), nil, gateway.Operation("account.delete"))
	return err
}

// List returns every account.
func (r *AccountRepo) List(ctx context.Context) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "AccountRepo.List")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/account/getAll", nil, gateway.Operation("account.list"))
	if err != nil {
		return nil, err
	}
	return decodeRecords(resp)
}
