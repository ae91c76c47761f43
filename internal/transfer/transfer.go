// Package transfer implements the money-transfer workflow:
//
//	Idle -> Submitting -> Settled
//	                   -> Rejected -> Idle
//
// The workflow checks only the form's syntax. Whether the sender differs
// from the receiver, whether the PIN matches and whether the balance covers
// the amount are decided by the server alone.
package transfer

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/infra/observability"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("transfer")

// State of the workflow.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSettled    State = "settled"
	StateRejected   State = "rejected"
)

// Form is what the user typed. Amount stays a string until it is parsed.
type Form struct {
	SenderAccountNumber   string `json:"senderAccountNumber" validate:"required,max=12"`
	ReceiverAccountNumber string `json:"receiverAccountNumber" validate:"required,max=12"`
	Amount                string `json:"amount" validate:"required"`
	Pin                   string `json:"pin" validate:"required,max=6"`
	Description           string `json:"description"`
}

// Outcome reports how a submission ended.
type Outcome struct {
	State    State           `json:"state"`
	Amount   decimal.Decimal `json:"amount"`
	Message  string          `json:"message,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
	Record   domain.Record   `json:"transaction,omitempty"`
}

// Guard is the access check the workflow runs before anything else.
type Guard interface {
	Require(role domain.Role) error
}

// Workflow submits transfers. One Workflow serves one actor; its gate
// allows a single submission in flight.
type Workflow struct {
	mu    sync.Mutex
	state State

	guard    Guard
	txns     port.TransactionRepository
	notifier notify.Notifier
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// New creates an idle Workflow.
func New(guard Guard, txns port.TransactionRepository, notifier notify.Notifier, metrics *observability.Metrics, logger *zap.Logger) *Workflow {
	return &Workflow{
		state:    StateIdle,
		guard:    guard,
		txns:     txns,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Submit validates form and, if it is well formed and no other submission
// is in flight, issues exactly one create-transaction call.
//
// Errors: *domain.ErrRedirect when the guard refuses, *domain.ErrValidation
// for a malformed form, domain.ErrSubmitInFlight while Submitting, or the
// gateway's error (already announced) when the server rejects the transfer.
func (w *Workflow) Submit(ctx context.Context, form Form) (*Outcome, error) {
	ctx, span := tracer.Start(ctx, "Workflow.Submit")
	defer span.End()

	if err := w.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}

	req, amount, err := w.prepare(form)
	if err != nil {
		w.metrics.IncrTransfer("invalid")
		w.logger.Debug("transfer form rejected", zap.Error(err))
		return nil, err
	}

	if !w.begin() {
		w.metrics.IncrTransfer("in_flight")
		return nil, domain.ErrSubmitInFlight
	}

	span.SetAttributes(
		attribute.String("transfer.sender", req.SenderAccountNumber),
		attribute.String("transfer.receiver", req.ReceiverAccountNumber),
		attribute.String("transfer.amount", amount.StringFixed(2)),
	)

	rec, err := w.txns.Create(ctx, req)
	if err != nil {
		w.finish(StateIdle)
		w.metrics.IncrTransfer("rejected")
		span.SetStatus(codes.Error, err.Error())
		w.logger.Warn("transfer rejected",
			zap.String("sender", req.SenderAccountNumber),
			zap.String("receiver", req.ReceiverAccountNumber),
			zap.Error(err),
		)
		return &Outcome{State: StateRejected, Amount: amount}, err
	}

	w.finish(StateSettled)
	w.metrics.IncrTransfer("settled")

	msg := fmt.Sprintf("Transaction of %s has been processed", domain.FormatINR(amount.InexactFloat64()))
	w.notifier.Notify(ctx, notify.Success("Transaction Successful!", msg))
	w.logger.Info("transfer settled",
		zap.String("sender", req.SenderAccountNumber),
		zap.String("receiver", req.ReceiverAccountNumber),
		zap.String("amount", amount.StringFixed(2)),
	)

	return &Outcome{
		State:    StateSettled,
		Amount:   amount,
		Message:  msg,
		Redirect: domain.RoleUser.HomePath(),
		Record:   rec,
	}, nil
}

// prepare checks the form and builds the request body. The amount is
// coerced to float64 only here, after decimal parsing.
func (w *Workflow) prepare(form Form) (*domain.TransferRequest, decimal.Decimal, error) {
	form.SenderAccountNumber = strings.TrimSpace(form.SenderAccountNumber)
	form.ReceiverAccountNumber = strings.TrimSpace(form.ReceiverAccountNumber)

	if err := domain.Validate(&form); err != nil {
		return nil, decimal.Zero, err
	}
	amount, err := domain.ParseAmount(form.Amount)
	if err != nil {
		return nil, decimal.Zero, err
	}
	// A positive decimal can still round to 0 or overflow to +Inf.
	wire := amount.InexactFloat64()
	if !(wire > 0) || math.IsInf(wire, 0) {
		return nil, decimal.Zero, &domain.ErrValidation{Field: "amount", Message: "is out of range"}
	}

	return &domain.TransferRequest{
		SenderAccountNumber:   form.SenderAccountNumber,
		ReceiverAccountNumber: form.ReceiverAccountNumber,
		Amount:                wire,
		Pin:                   form.Pin,
		Description:           form.Description,
	}, amount, nil
}

// begin moves to Submitting unless a submission is already in flight.
func (w *Workflow) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return false
	}
	w.state = StateSubmitting
	return true
}

func (w *Workflow) finish(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}
