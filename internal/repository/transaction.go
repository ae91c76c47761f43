package repository

import (
	"context"
	"mime"
	"net/http"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
)

const spreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TransactionRepo handles /transaction endpoints. Transactions are
// immutable: there is no update or delete.
type TransactionRepo struct {
	api port.Requester
}

// NewTransactionRepo creates a TransactionRepo.
func NewTransactionRepo(api port.Requester) *TransactionRepo {
	return &TransactionRepo{api: api}
}

// Create submits a transfer. The server is the only judge of PIN, balance
// and sender/receiver rules.
func (r *TransactionRepo) Create(ctx context.Context, req *domain.TransferRequest) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "TransactionRepo.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("transfer.sender", req.SenderAccountNumber),
		attribute.String("transfer.receiver", req.ReceiverAccountNumber),
		attribute.Float64("transfer.amount", req.Amount),
	)

	resp, err := r.api.Do(ctx, http.MethodPost, "/transaction/create", req, gateway.Operation("transaction.create"))
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// ListByAccount returns the transactions an account sent or received.
func (r *TransactionRepo) ListByAccount(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "TransactionRepo.ListByAccount")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/transaction/get/"+seg(accountNumber), nil, gateway.Operation("transaction.list_by_account"))
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return []domain.Transaction{}, nil
	}
	var out []domain.Transaction
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Transaction{}
	}
	return out, nil
}

// Download fetches the account's transaction report.
func (r *TransactionRepo) Download(ctx context.Context, accountNumber string) (*domain.Export, error) {
	ctx, span := tracer.Start(ctx, "TransactionRepo.Download")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/transaction/"+seg(accountNumber)+"/download", nil, gateway.Operation("transaction.download"))
	if err != nil {
		return nil, err
	}

	ct := spreadsheetType
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mt != "" {
		ct = mt
	}
	span.SetAttributes(attribute.Int("export.bytes", len(resp.Body)))
	return &domain.Export{AccountNumber: accountNumber, ContentType: ct, Data: resp.Body}, nil
}

// List returns every transaction.
func (r *TransactionRepo) List(ctx context.Context) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "TransactionRepo.List")
	defer span.End()

	resp, err := r.api.Do(ctx, http.MethodGet, "/transaction/getAll", nil, gateway.Operation("transaction.list"))
	if err != nil {
		return nil, err
	}
	return decodeRecords(resp)
}
