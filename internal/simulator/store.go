package simulator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/banksim-client-go/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// Store errors, mapped to statuses by the handlers.
var (
	errNotFound  = errors.New("not found")
	errConflict  = errors.New("conflict")
	errRejected  = errors.New("rejected")
	errBadSecret = errors.New("bad secret")
)

// storeError carries the message returned to the caller.
type storeError struct {
	kind error
	msg  string
}

func (e *storeError) Error() string { return e.msg }
func (e *storeError) Unwrap() error { return e.kind }

func fail(kind error, format string, args ...any) error {
	return &storeError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

type user struct {
	ID           int
	FullName     string
	Email        string
	PasswordHash []byte
}

type customer struct {
	domain.Customer
	PinHash []byte
}

type account struct {
	domain.Account
	Balance decimal.Decimal
}

// Store is the simulator's in-memory bank. All balance changes happen under
// one lock, so a transfer is applied to both accounts or to neither.
type Store struct {
	mu sync.Mutex

	users        map[int]*user
	usersByEmail map[string]*user
	customers    map[string]*customer // by aadhar
	accounts     map[string]*account  // by account number
	transactions []domain.Transaction
	queries      []domain.Query

	nextUser, nextCustomer, nextAccount, nextTransaction, nextQuery int

	now func() time.Time
}

// NewStore returns an empty bank.
func NewStore() *Store {
	return &Store{
		users:        make(map[int]*user),
		usersByEmail: make(map[string]*user),
		customers:    make(map[string]*customer),
		accounts:     make(map[string]*account),
		now:          time.Now,
	}
}

// ============================================================
// Users
// ============================================================

// Signup registers a staff user.
func (s *Store) Signup(fullName, email, password string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(email)
	if _, ok := s.usersByEmail[key]; ok {
		return nil, fail(errConflict, "Email already registered")
	}
	s.nextUser++
	u := &user{ID: s.nextUser, FullName: fullName, Email: email, PasswordHash: hash}
	s.users[u.ID] = u
	s.usersByEmail[key] = u
	return u, nil
}

// Authenticate checks a staff user's password.
func (s *Store) Authenticate(email, password string) (*user, error) {
	s.mu.Lock()
	u, ok := s.usersByEmail[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return nil, fail(errNotFound, "User not found")
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, fail(errBadSecret, "Invalid password")
	}
	return u, nil
}

// ============================================================
// Customers
// ============================================================

// CreateCustomer stores c. The PIN is kept only as a bcrypt hash.
func (s *Store) CreateCustomer(c domain.Customer) (domain.Customer, error) {
	if c.CustomerPin == "" {
		return domain.Customer{}, fail(errRejected, "Customer PIN is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.CustomerPin), bcryptCost)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("hash pin: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[c.AadharNumber]; ok {
		return domain.Customer{}, fail(errConflict, "Customer with this Aadhar number already exists")
	}
	if c.UserID > 0 {
		if s.customerByUserLocked(c.UserID) != nil {
			return domain.Customer{}, fail(errConflict, "A customer already exists for this user")
		}
	}

	s.nextCustomer++
	c.CustomerID = s.nextCustomer
	c.CustomerPin = ""
	if c.Status == "" {
		c.Status = "Active"
	}
	s.customers[c.AadharNumber] = &customer{Customer: c, PinHash: hash}
	return c, nil
}

// Customer returns the customer with the given Aadhar number.
func (s *Store) Customer(aadhar string) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[aadhar]
	if !ok {
		return domain.Customer{}, fail(errNotFound, "Customer not found")
	}
	return c.Customer, nil
}

// CustomerByUser returns the customer owned by a staff user.
func (s *Store) CustomerByUser(userID int) (domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.customerByUserLocked(userID)
	if c == nil {
		return domain.Customer{}, fail(errNotFound, "No customer found for this user")
	}
	return c.Customer, nil
}

func (s *Store) customerByUserLocked(userID int) *customer {
	for _, c := range s.customers {
		if c.UserID == userID {
			return c
		}
	}
	return nil
}

// UpdateCustomer replaces the editable fields. The Aadhar number, owner and
// id never change; the PIN changes only when a new one is given.
func (s *Store) UpdateCustomer(aadhar string, in domain.Customer) (domain.Customer, error) {
	var hash []byte
	if in.CustomerPin != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(in.CustomerPin), bcryptCost)
		if err != nil {
			return domain.Customer{}, fmt.Errorf("hash pin: %w", err)
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[aadhar]
	if !ok {
		return domain.Customer{}, fail(errNotFound, "Customer not found")
	}
	c.Name = in.Name
	c.PhoneNumber = in.PhoneNumber
	c.Email = in.Email
	c.Address = in.Address
	c.DOB = in.DOB
	if in.Status != "" {
		c.Status = in.Status
	}
	if hash != nil {
		c.PinHash = hash
	}
	return c.Customer, nil
}

// Customers lists all customers ordered by id.
func (s *Store) Customers() []domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c.Customer)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

// ============================================================
// Accounts
// ============================================================

// CreateAccount opens an account for an existing customer.
func (s *Store) CreateAccount(a domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[a.AadharNumber]
	if !ok {
		return domain.Account{}, fail(errRejected, "No customer found with Aadhar number %s", a.AadharNumber)
	}
	if _, ok := s.accounts[a.AccountNumber]; ok {
		return domain.Account{}, fail(errRejected, "Account number %s already exists", a.AccountNumber)
	}

	s.nextAccount++
	now := s.now().UTC().Format(time.RFC3339)
	a.AccountID = s.nextAccount
	a.CustomerID = c.CustomerID
	a.CreatedAt, a.ModifiedAt = now, now
	if a.Status == "" {
		a.Status = "Active"
	}
	row := &account{Account: a, Balance: decimal.NewFromFloat(a.Balance)}
	s.accounts[a.AccountNumber] = row
	return row.view(), nil
}

// Account returns one account.
func (s *Store) Account(number string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[number]
	if !ok {
		return domain.Account{}, fail(errNotFound, "Account with number %s not found", number)
	}
	return a.view(), nil
}

// UpdateAccount replaces the descriptive fields. Balance is left alone:
// it only moves through transfers.
func (s *Store) UpdateAccount(number string, in domain.Account) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[number]
	if !ok {
		return domain.Account{}, fail(errNotFound, "Account with number %s not found or not updated", number)
	}
	a.AccountType = in.AccountType
	a.AccountName = in.AccountName
	a.BankName = in.BankName
	a.IFSCCode = in.IFSCCode
	a.PhoneNumberLinked = in.PhoneNumberLinked
	if in.Status != "" {
		a.Status = in.Status
	}
	a.ModifiedAt = s.now().UTC().Format(time.RFC3339)
	return a.view(), nil
}

// DeleteAccount removes an account.
func (s *Store) DeleteAccount(number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[number]; !ok {
		return fail(errNotFound, "Account with number %s not found", number)
	}
	delete(s.accounts, number)
	return nil
}

// Accounts lists all accounts ordered by id.
func (s *Store) Accounts() []domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

func (a *account) view() domain.Account {
	v := a.Account
	v.Balance = a.Balance.InexactFloat64()
	return v
}

// ============================================================
// Transactions
// ============================================================

// Transfer moves amount between two accounts after checking the sender's
// customer PIN. Both balances change together or not at all.
func (s *Store) Transfer(req domain.TransferRequest) (domain.Transaction, error) {
	if req.SenderAccountNumber == req.ReceiverAccountNumber {
		return domain.Transaction{}, fail(errRejected, "Sender and receiver account numbers must be different")
	}
	amount := decimal.NewFromFloat(req.Amount).Round(2)
	if !amount.IsPositive() {
		return domain.Transaction{}, fail(errRejected, "Amount must be greater than zero")
	}

	pinHash, err := s.senderPin(req.SenderAccountNumber)
	if err != nil {
		return domain.Transaction{}, err
	}
	if bcrypt.CompareHashAndPassword(pinHash, []byte(req.Pin)) != nil {
		return domain.Transaction{}, fail(errRejected, "Incorrect PIN")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.accounts[req.SenderAccountNumber]
	if !ok {
		return domain.Transaction{}, fail(errNotFound, "Account with number %s not found", req.SenderAccountNumber)
	}
	receiver, ok := s.accounts[req.ReceiverAccountNumber]
	if !ok {
		return domain.Transaction{}, fail(errNotFound, "Account with number %s not found", req.ReceiverAccountNumber)
	}
	if sender.Balance.LessThan(amount) {
		return domain.Transaction{}, fail(errRejected, "Insufficient balance in sender account")
	}

	now := s.now().UTC()
	sender.Balance = sender.Balance.Sub(amount)
	receiver.Balance = receiver.Balance.Add(amount)
	sender.ModifiedAt = now.Format(time.RFC3339)
	receiver.ModifiedAt = sender.ModifiedAt

	s.nextTransaction++
	tx := domain.Transaction{
		TransactionID:         s.nextTransaction,
		SenderAccountNumber:   req.SenderAccountNumber,
		ReceiverAccountNumber: req.ReceiverAccountNumber,
		Amount:                amount.InexactFloat64(),
		Description:           req.Description,
		TransactionTime:       now.Format(time.RFC3339),
	}
	s.transactions = append(s.transactions, tx)
	return tx, nil
}

// senderPin returns the PIN hash of the customer owning an account.
func (s *Store) senderPin(number string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[number]
	if !ok {
		return nil, fail(errNotFound, "Account with number %s not found", number)
	}
	owner, ok := s.customers[a.AadharNumber]
	if !ok {
		return nil, fail(errRejected, "Incorrect PIN")
	}
	return owner.PinHash, nil
}

// TransactionsFor lists the transactions an account sent or received,
// newest first.
func (s *Store) TransactionsFor(number string) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Transaction{}
	for i := len(s.transactions) - 1; i >= 0; i-- {
		tx := s.transactions[i]
		if tx.SenderAccountNumber == number || tx.ReceiverAccountNumber == number {
			out = append(out, tx)
		}
	}
	return out
}

// Transactions lists every transaction in commit order.
func (s *Store) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Transaction{}, s.transactions...)
}

// ============================================================
// Queries
// ============================================================

// CreateQuery stores a support query.
func (s *Store) CreateQuery(q domain.Query) domain.Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextQuery++
	q.QueryID = s.nextQuery
	s.queries = append(s.queries, q)
	return q
}

// Queries lists all support queries.
func (s *Store) Queries() []domain.Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Query{}, s.queries...)
}

// TotalBalance sums every account balance.
func (s *Store) TotalBalance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, a := range s.accounts {
		total = total.Add(a.Balance)
	}
	return total
}
