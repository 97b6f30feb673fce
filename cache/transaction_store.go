package cache

import (
	"context"
	"errors"
	"time"

	"go.pilab.hu/idp/domain"
)

// ErrTransactionNotFound is returned on a miss. An expired entry behaves
// identically to one that never existed.
var ErrTransactionNotFound = errors.New("transaction not found")

// AuthTransactionStore holds in-flight authorization transactions. The
// orchestrator owns the entries; nothing else persists them.
type AuthTransactionStore interface {
	Set(ctx context.Context, txn *domain.AuthorizationTransaction, ttl time.Duration) error
	Get(ctx context.Context, transactionID string) (*domain.AuthorizationTransaction, error)
	Invalidate(ctx context.Context, transactionID string) error
}

// BindingTransactionStore exposes binding transactions produced by a prior
// authentication flow. The binding orchestrator only reads them; Set exists
// for the flow that publishes them and for tests.
type BindingTransactionStore interface {
	SetBindingTransaction(ctx context.Context, txn *domain.BindingTransaction, ttl time.Duration) error
	GetBindingTransaction(ctx context.Context, transactionID string) (*domain.BindingTransaction, error)
}
