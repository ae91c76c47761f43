package repository

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
)

// CustomerRepo handles /customer endpoints.
type CustomerRepo struct {
	api port.Requester
}

// NewCustomerRepo creates a CustomerRepo.
func NewCustomerRepo(api port.Requester) *CustomerRepo {
	return &CustomerRepo{api: api}
}

// Create registers a new customer. The PIN is required on create only.
func (r *CustomerRepo) Create(ctx context.Context, c *domain.Customer) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "CustomerRepo.Create")
	defer span.End()

	if c.CustomerPin == "" {
		return nil, &domain.ErrValidation{Field: "customerPin", Message: "is required"}
	}
	if err := domain.Validate(c); err != nil {
		return nil, err
	}

	resp, err := r.api.Do(ctx, http.MethodPost, "/customer/create", c, gateway.Operation("customer.create"))
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// Get fetches a customer by Aadhar number.
func (r *CustomerRepo) Get(ctx context.Context, aadhar string) (*domain.Customer, error) {
	ctx, span := tracer.Start(ctx, "CustomerRepo.Get")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/customer/get/"+seg(aadhar), nil, gateway.Operation("customer.get"))
	if err != nil {
		return nil, err
	}
	c, err := decodeInto[domain.Customer](resp)
	if err != nil {
		return nil, err
	}
	normalizeDOB(c)
	return c, nil
}

// Update replaces a customer's editable fields.
func (r *CustomerRepo) Update(ctx context.Context, aadhar string, c *domain.Customer) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "CustomerRepo.Update")
	defer span.End()

	normalizeDOB(c)
	if err := domain.Validate(c); err != nil {
		return nil, err
	}

	resp, err := r.api.Do(ctx, http.MethodPut, "/customer/update/"+seg(aadhar), c, gateway.Operation("customer.update"))
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// List returns every customer.
func (r *CustomerRepo) List(ctx context.Context) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "CustomerRepo.List")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/customer/getAll", nil, gateway.Operation("customer.list"))
	if err != nil {
		return nil, err
	}
	return decodeRecords(resp)
}

// FindByUser looks up the customer owned by userID. A 404 is a valid
// negative answer: it returns (nil, false, nil) and is never reported as an
// error.
func (r *CustomerRepo) FindByUser(ctx context.Context, userID string) (*domain.Customer, bool, error) {
	ctx, span := tracer.Start(ctx, "CustomerRepo.FindByUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	resp, err := r.api.Do(ctx, http.MethodGet, "/customer/user/"+seg(userID), nil,
		gateway.Expect(http.StatusNotFound), gateway.Operation("customer.find_by_user"))
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		span.SetAttributes(attribute.Bool("customer.exists", false))
		return nil, false, nil
	}

	c, err := decodeInto[domain.Customer](resp)
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.Bool("customer.exists", true))
	return c, true, nil
}

// normalizeDOB drops a time component some servers append to dob.
func normalizeDOB(c *domain.Customer) {
	c.DOB, _, _ = strings.Cut(c.DOB, "T")
}
