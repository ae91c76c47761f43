// Package port defines the interfaces (ports) between the workflows and the
// infrastructure behind them. Services depend on these, never on the
// gateway, the session storage or a concrete repository.
package port

import (
	"context"

	"github.com/boddenberg/banksim-client-go/internal/domain"
	"github.com/boddenberg/banksim-client-go/internal/gateway"
)

// Requester issues calls against the remote API. Implemented by
// *gateway.Gateway and by the notify.Gateway decorator.
type Requester interface {
	Do(ctx context.Context, method, path string, body any, opts ...gateway.CallOption) (*gateway.Response, error)
}

// SessionReader reads the current session.
type SessionReader interface {
	Get() (*domain.Session, bool)
}

// SessionStore reads and writes the current session.
type SessionStore interface {
	SessionReader
	Set(token string, role domain.Role, profile map[string]any) error
	Clear() error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Clear()
}

// LoginResult is what a successful login returns before it becomes a session.
type LoginResult struct {
	Token   string
	Profile map[string]any
	Message string
}

// AuthRepository logs actors in.
type AuthRepository interface {
	LoginUser(ctx context.Context, email, password string) (*LoginResult, error)
	LoginAdmin(ctx context.Context, username, password string) (*LoginResult, error)
}

// CustomerRepository handles customer records.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) (domain.Record, error)
	Get(ctx context.Context, aadhar string) (*domain.Customer, error)
	Update(ctx context.Context, aadhar string, c *domain.Customer) (domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
	// FindByUser is an existence probe: a missing customer is (nil, false, nil).
	FindByUser(ctx context.Context, userID string) (*domain.Customer, bool, error)
}

// AccountRepository handles account records.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) (domain.Record, error)
	Get(ctx context.Context, accountNumber string) (*domain.Account, error)
	Update(ctx context.Context, accountNumber string, a *domain.Account) (domain.Record, error)
	Delete(ctx context.Context, accountNumber string) error
	List(ctx context.Context) ([]domain.Record, error)
}

// TransactionRepository handles transactions. There is no update or delete.
type TransactionRepository interface {
	Create(ctx context.Context, req *domain.TransferRequest) (domain.Record, error)
	ListByAccount(ctx context.Context, accountNumber string) ([]domain.Transaction, error)
	Download(ctx context.Context, accountNumber string) (*domain.Export, error)
	List(ctx context.Context) ([]domain.Record, error)
}

// QueryRepository handles support queries.
type QueryRepository interface {
	Create(ctx context.Context, q *domain.Query) (domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
}

// CollectionLoader loads and caches whole collections for the admin views.
type CollectionLoader interface {
	LoadCollection(ctx context.Context, t domain.EntityType) ([]domain.Record, error)
	Refresh(ctx context.Context, t domain.EntityType) ([]domain.Record, error)
}
