package repository

import (
	"context"
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/port"
)

// QueryRepo handles support queries. Queries are write-once; only
// administrators list them.
type QueryRepo struct {
	api port.Requester
}

// NewQueryRepo creates a QueryRepo.
func NewQueryRepo(api port.Requester) *QueryRepo {
	return &QueryRepo{api: api}
}

func (r *QueryRepo) Create(ctx context.Context, q *domain.Query) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "QueryRepo.Create")
	defer span.End()

	if err := domain.Validate(q); err != nil {
		return nil, err
	}
	resp, err := r.api.Do(ctx, http.MethodPost, "/admin/query", q, gateway.Operation("query.create"))
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

func (r *QueryRepo) List(ctx context.Context) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "QueryRepo.List")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/admin/queries", nil, gateway.Operation("query.list"))
	if err != nil {
		return nil, err
	}
	return decodeRecords(resp)
}
