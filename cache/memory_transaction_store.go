package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"go.pilab.hu/idp/domain"
)

// MemoryTransactionStore implements AuthTransactionStore and
// BindingTransactionStore using ttlcache. Entries are dropped automatically
// once their TTL elapses.
type MemoryTransactionStore struct {
	authTxns    *ttlcache.Cache[string, *domain.AuthorizationTransaction]
	bindingTxns *ttlcache.Cache[string, *domain.BindingTransaction]
}

// NewMemoryTransactionStore creates a new in-memory transaction store with
// automatic expiry.
func NewMemoryTransactionStore() *MemoryTransactionStore {
	authTxns := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.AuthorizationTransaction](),
	)
	bindingTxns := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.BindingTransaction](),
	)

	// Start the cleanup processes
	go authTxns.Start()
	go bindingTxns.Start()

	return &MemoryTransactionStore{
		authTxns:    authTxns,
		bindingTxns: bindingTxns,
	}
}

// Set implements AuthTransactionStore.Set. Callers always pass the absolute
// TTL they want; re-setting an entry restarts its lifetime.
func (s *MemoryTransactionStore) Set(_ context.Context, txn *domain.AuthorizationTransaction, ttl time.Duration) error {
	s.authTxns.Set(txn.ID, txn, ttl)
	return nil
}

// Get implements AuthTransactionStore.Get.
func (s *MemoryTransactionStore) Get(_ context.Context, transactionID string) (*domain.AuthorizationTransaction, error) {
	item := s.authTxns.Get(transactionID)
	if item == nil || item.IsExpired() {
		return nil, ErrTransactionNotFound
	}
	return item.Value(), nil
}

// Invalidate implements AuthTransactionStore.Invalidate.
func (s *MemoryTransactionStore) Invalidate(_ context.Context, transactionID string) error {
	s.authTxns.Delete(transactionID)
	return nil
}

// SetBindingTransaction implements BindingTransactionStore.
func (s *MemoryTransactionStore) SetBindingTransaction(_ context.Context, txn *domain.BindingTransaction, ttl time.Duration) error {
	s.bindingTxns.Set(txn.ID, txn, ttl)
	return nil
}

// GetBindingTransaction implements BindingTransactionStore.
func (s *MemoryTransactionStore) GetBindingTransaction(_ context.Context, transactionID string) (*domain.BindingTransaction, error) {
	item := s.bindingTxns.Get(transactionID)
	if item == nil || item.IsExpired() {
		return nil, ErrTransactionNotFound
	}
	return item.Value(), nil
}

// Close stops the cleanup goroutines.
func (s *MemoryTransactionStore) Close() error {
	s.authTxns.Stop()
	s.bindingTxns.Stop()
	return nil
}

var (
	_ AuthTransactionStore    = (*MemoryTransactionStore)(nil)
	_ BindingTransactionStore = (*MemoryTransactionStore)(nil)
)
