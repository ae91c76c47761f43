package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/notify"
	"github.com/boddenberg/banksim-client-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var recTracer = otel.Tracer("service/records")

// Result is a completed form submission: what the server returned and
// where the view goes next.
type Result struct {
	Record   domain.Record `json:"record,omitempty"`
	Message  string        `json:"message"`
	Redirect string        `json:"redirect,omitempty"`
}

// required reports a blank search field as a warning and a validation error.
func required(ctx context.Context, n notify.Notifier, field, value, title, text string) error {
	if strings.TrimSpace(value) != "" {
		return nil
	}
	n.Notify(ctx, notify.Warning(title, text))
	return &domain.ErrValidation{Field: field, Message: "is required"}
}

// ============================================================
// Customers
// ============================================================

// CustomerService runs the create and edit customer forms.
type CustomerService struct {
	guard     Guard
	sessions  port.SessionReader
	customers port.CustomerRepository
	notifier  notify.Notifier
	logger    *zap.Logger
}

// NewCustomerService creates a CustomerService.
func NewCustomerService(guard Guard, sessions port.SessionReader, customers port.CustomerRepository, notifier notify.Notifier, logger *zap.Logger) *CustomerService {
	return &CustomerService{guard: guard, sessions: sessions, customers: customers, notifier: notifier, logger: logger}
}

// Create registers c as the current user's customer. It needs the user id
// from the session profile, and refuses when the user already has one.
func (s *CustomerService) Create(ctx context.Context, c *domain.Customer) (*Result, error) {
	ctx, span := recTracer.Start(ctx, "CustomerService.Create")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}

	userID, err := s.ownerID()
	if err != nil {
		s.notifier.Notify(ctx, notify.Error("Session Error", err.Error()))
		return nil, err
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	_, exists, err := s.customers.FindByUser(ctx, strconv.Itoa(userID))
	if err != nil {
		return nil, err
	}
	if exists {
		conflict := &domain.ErrConflict{Message: "A customer record already exists for your user."}
		s.notifier.Notify(ctx, notify.Warning("Customer Exists", conflict.Message))
		return nil, conflict
	}

	c.UserID = userID
	rec, err := s.customers.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.Int("user_id", userID), zap.String("aadhar", c.AadharNumber))
	msg := "Customer has been successfully added to the system."
	s.notifier.Notify(ctx, notify.Success("Customer Created!", msg))
	return &Result{Record: rec, Message: msg, Redirect: domain.RoleUser.HomePath()}, nil
}

// Get loads a customer for the edit form.
func (s *CustomerService) Get(ctx context.Context, aadhar string) (*domain.Customer, error) {
	ctx, span := recTracer.Start(ctx, "CustomerService.Get")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	return s.customers.Get(ctx, aadhar)
}

// Update saves the edit form.
func (s *CustomerService) Update(ctx context.Context, aadhar string, c *domain.Customer) (*Result, error) {
	ctx, span := recTracer.Start(ctx, "CustomerService.Update")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	rec, err := s.customers.Update(ctx, aadhar, c)
	if err != nil {
		return nil, err
	}

	msg := "Customer information has been successfully updated."
	s.notifier.Notify(ctx, notify.Success("Customer Updated!", msg))
	return &Result{Record: rec, Message: msg, Redirect: "/user/customer/search"}, nil
}

func (s *CustomerService) ownerID() (int, error) {
	sess, ok := s.sessions.Get()
	if !ok {
		return 0, &domain.ErrSession{Message: "Your session data was not found. Please log in again."}
	}
	raw, err := sess.UserID()
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, &domain.ErrSession{Message: "Could not find your user ID in the session data. Please log in again."}
	}
	return id, nil
}

// ============================================================
// Accounts
// ============================================================

// AccountService runs the account forms and search.
type AccountService struct {
	guard    Guard
	accounts port.AccountRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewAccountService creates an AccountService.
func NewAccountService(guard Guard, accounts port.AccountRepository, notifier notify.Notifier, logger *zap.Logger) *AccountService {
	return &AccountService{guard: guard, accounts: accounts, notifier: notifier, logger: logger}
}

// Create opens an account.
func (s *AccountService) Create(ctx context.Context, a *domain.Account) (*Result, error) {
	ctx, span := recTracer.Start(ctx, "AccountService.Create")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	rec, err := s.accounts.Create(ctx, a)
	if err != nil {
		return nil, err
	}

	number, _ := rec["accountNumber"].(string)
	if number == "" {
		number = "Generated"
	}
	msg := fmt.Sprintf("Account has been successfully created. Account Number: %s", number)
	s.notifier.Notify(ctx, notify.Success("Account Created!", msg))
	return &Result{Record: rec, Message: msg, Redirect: domain.RoleUser.HomePath()}, nil
}

// Get searches an account by number.
func (s *AccountService) Get(ctx context.Context, accountNumber string) (*domain.Account, error) {
	ctx, span := recTracer.Start(ctx, "AccountService.Get")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	if err := required(ctx, s.notifier, "accountNumber", accountNumber,
		"Account Number Required", "Please enter an account number to search."); err != nil {
		return nil, err
	}

	acc, err := s.accounts.Get(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Success("Account Found!", "Account details retrieved successfully."))
	return acc, nil
}

// Update saves the edit form.
func (s *AccountService) Update(ctx context.Context, accountNumber string, a *domain.Account) (*Result, error) {
	ctx, span := recTracer.Start(ctx, "AccountService.Update")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	rec, err := s.accounts.Update(ctx, accountNumber, a)
	if err != nil {
		return nil, err
	}

	msg := "Account information has been successfully updated."
	s.notifier.Notify(ctx, notify.Success("Account Updated!", msg))
	return &Result{Record: rec, Message: msg, Redirect: "/user/account/search"}, nil
}

// Delete closes an account.
func (s *AccountService) Delete(ctx context.Context, accountNumber string) (*Result, error) {
	ctx, span := recTracer.Start(ctx, "AccountService.Delete")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	if err := s.accounts.Delete(ctx, accountNumber); err != nil {
		return nil, err
	}

	s.logger.Info("account deleted", zap.String("account", accountNumber))
	msg := "Account has been successfully removed from the system."
	s.notifier.Notify(ctx, notify.Success("Account Deleted!", msg))
	return &Result{Message: msg}, nil
}

// ============================================================
// Transactions
// ============================================================

// TransactionService runs the transaction search and report download.
// Transfers go through the transfer workflow.
type TransactionService struct {
	guard    Guard
	txns     port.TransactionRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(guard Guard, txns port.TransactionRepository, notifier notify.Notifier, logger *zap.Logger) *TransactionService {
	return &TransactionService{guard: guard, txns: txns, notifier: notifier, logger: logger}
}

// Search lists an account's transactions.
func (s *TransactionService) Search(ctx context.Context, accountNumber string) ([]domain.Transaction, error) {
	ctx, span := recTracer.Start(ctx, "TransactionService.Search")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	if err := required(ctx, s.notifier, "accountNumber", accountNumber,
		"Account Number Required", "Please enter an account number to search."); err != nil {
		return nil, err
	}

	txs, err := s.txns.ListByAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Success("Transactions Found!",
		fmt.Sprintf("Found %d transaction(s) for this account.", len(txs))))
	return txs, nil
}

// Download fetches the account's transaction report.
func (s *TransactionService) Download(ctx context.Context, accountNumber string) (*domain.Export, error) {
	ctx, span := recTracer.Start(ctx, "TransactionService.Download")
	defer span.End()

	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	exp, err := s.txns.Download(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, notify.Success("Download Successful!", "Transaction report is downloaded."))
	return exp, nil
}

// ============================================================
// Queries
// ============================================================

// QueryService runs the support query form.
type QueryService struct {
	guard    Guard
	sessions port.SessionReader
	queries  port.QueryRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(guard Guard, sessions port.SessionReader, queries port.QueryRepository, notifier notify.Notifier, logger *zap.Logger) *QueryService {
	return &QueryService{guard: guard, sessions: sessions, queries: queries, notifier: notifier, logger: logger}
}

// Prefill returns a form with name and email taken from the profile.
func (s *QueryService) Prefill() (*domain.Query, error) {
	if err := s.guard.Require(domain.RoleUser); err != nil {
		return nil, err
	}
	q := &domain.Query{}
	if sess, ok := s.sessions.Get(); ok {
		q.Name = sess.DisplayName()
		q.Email = sess.Email()
	}
	return q, nil
}

// Submit sends the query to the administrators. Blank name and email are
// filled from the profile.
func (s *QueryService) Submit(ctx context.Context, q *domain.Query) (*Result, error) {
	ctx, span := recTracer.Start(ctx, "QueryService.Submit")
	defer span.End()

	pre, err := s.Prefill()
	if err != nil {
		return nil, err
	}
	if q.Name == "" {
		q.Name = pre.Name
	}
	if q.Email == "" {
		q.Email = pre.Email
	}

	rec, err := s.queries.Create(ctx, q)
	if err != nil {
		return nil, err
	}

	msg := "Your query has been sent to the admin. You will receive a response via email."
	s.notifier.Notify(ctx, notify.Success("Query Sent Successfully!", msg))
	return &Result{Record: rec, Message: msg, Redirect: domain.RoleUser.HomePath()}, nil
}
