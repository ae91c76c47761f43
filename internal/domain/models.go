// Package domain defines the entities exchanged with the Banking Simulator
// API and the typed errors shared by every layer of the client.
// The remote service is authoritative for all of them; the client only
// carries transient copies.
package domain

// ============================================================
// Customers
// ============================================================

// Customer is a bank customer owned by the staff user that created it.
type Customer struct {
	CustomerID   int    `json:"customerId,omitempty"`
	UserID       int    `json:"userId,omitempty"`
	AadharNumber string `json:"aadharNumber" validate:"required,len=12,numeric"`
	Name         string `json:"name" validate:"required"`
	PhoneNumber  string `json:"phoneNumber" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Address      string `json:"address" validate:"required"`
	DOB          string `json:"dob" validate:"required,datetime=2006-01-02"`
	CustomerPin  string `json:"customerPin,omitempty" validate:"omitempty,len=6,numeric"`
	Status       string `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
}

// ============================================================
// Accounts
// ============================================================

// Account types accepted by the remote service.
const (
	AccountSavings = "savings"
	AccountCurrent = "current"
)

// Account is a bank account linked to a customer by Aadhar number.
type Account struct {
	AccountID         int     `json:"accountId,omitempty"`
	CustomerID        int     `json:"customerId,omitempty"`
	AccountNumber     string  `json:"accountNumber" validate:"required,len=12,numeric"`
	AadharNumber      string  `json:"aadharNumber" validate:"required,len=12,numeric"`
	AccountType       string  `json:"accountType" validate:"required,oneof=savings current"`
	AccountName       string  `json:"accountName" validate:"required"`
	BankName          string  `json:"bankName" validate:"required"`
	IFSCCode          string  `json:"ifscCode" validate:"required"`
	PhoneNumberLinked string  `json:"phoneNumberLinked" validate:"required"`
	Balance           float64 `json:"balance" validate:"gte=0"`
	Status            string  `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
	CreatedAt         string  `json:"createdAt,omitempty"`
	ModifiedAt        string  `json:"modifiedAt,omitempty"`
}

// ============================================================
// Transactions
// ============================================================

// Transaction is a committed money movement between two accounts.
type Transaction struct {
	TransactionID         int     `json:"transactionId,omitempty"`
	SenderAccountNumber   string  `json:"senderAccountNumber"`
	ReceiverAccountNumber string  `json:"receiverAccountNumber"`
	Amount                float64 `json:"amount"`
	Description           string  `json:"description,omitempty"`
	TransactionTime       string  `json:"transactionTime,omitempty"`
}

// TransferRequest is the body of POST /transaction/create.
// The PIN travels only inside this request and is never stored.
type TransferRequest struct {
	SenderAccountNumber   string  `json:"senderAccountNumber"`
	ReceiverAccountNumber string  `json:"receiverAccountNumber"`
	Amount                float64 `json:"amount"`
	Pin                   string  `json:"pin"`
	Description           string  `json:"description"`
}

// Export is a downloaded transaction report.
type Export struct {
	AccountNumber string
	ContentType   string
	Data          []byte
}

// FileName returns the name the report is saved under.
func (e *Export) FileName() string {
	if e.ContentType == "text/csv" {
		return "transactions_" + e.AccountNumber + ".csv"
	}
	return "transactions_" + e.AccountNumber + ".xlsx"
}

// ============================================================
// Queries
// ============================================================

// Query is a support message sent by a staff user to the administrators.
type Query struct {
	QueryID int    `json:"queryId,omitempty"`
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=150"`
	Message string `json:"message" validate:"required"`
}

// ============================================================
// Auth
// ============================================================

// UserCredentials is the body of POST /user/login.
type UserCredentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AdminCredentials is the body of POST /admin/login.
type AdminCredentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ============================================================
// Collections
// ============================================================

// Record is one loosely typed row of a collection, as decoded from JSON.
type Record map[string]any

// EntityType names a collection the admin dashboard can load.
type EntityType string

const (
	EntityCustomers    EntityType = "customers"
	EntityAccounts     EntityType = "accounts"
	EntityTransactions EntityType = "transactions"
	EntityQueries      EntityType = "queries"
)

// EntityTypes lists the dashboard tabs in display order.
var EntityTypes = []EntityType{EntityCustomers, EntityAccounts, EntityTransactions, EntityQueries}

// ParseEntityType validates a tab name.
func ParseEntityType(s string) (EntityType, bool) {
	for _, t := range EntityTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Stats are the collection counts shown on the user dashboard.
type Stats struct {
	Customers    int `json:"customers"`
	Accounts     int `json:"accounts"`
	Transactions int `json:"transactions"`
}
