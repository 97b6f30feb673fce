package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go.pilab.hu/idp/cache"
	"go.pilab.hu/idp/domain"
)

// TransactionStore implements the transaction store interfaces on Redis so
// multiple provider instances can share one set of in-flight transactions.
type TransactionStore struct {
	client *redis.Client
	prefix string // Optional prefix for keys
}

// NewTransactionStore creates a new [TransactionStore] instance.
func NewTransactionStore(client *redis.Client, prefix string) *TransactionStore {
	return &TransactionStore{
		client: client,
		prefix: prefix,
	}
}

func (r *TransactionStore) authKey(id string) string {
	return fmt.Sprintf("%s:auth_txn:%s", r.prefix, id)
}

func (r *TransactionStore) bindingKey(id string) string {
	return fmt.Sprintf("%s:binding_txn:%s", r.prefix, id)
}

// Set stores an authorization transaction as JSON with the given TTL.
func (r *TransactionStore) Set(ctx context.Context, txn *domain.AuthorizationTransaction, ttl time.Duration) error {
	payload, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if err := r.client.Set(ctx, r.authKey(txn.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set transaction in Redis: %w", err)
	}
	return nil
}

// Get retrieves an authorization transaction. Expired keys are gone from
// Redis, so the miss path covers both absent and expired.
func (r *TransactionStore) Get(ctx context.Context, transactionID string) (*domain.AuthorizationTransaction, error) {
	payload, err := r.client.Get(ctx, r.authKey(transactionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction from Redis: %w", err)
	}

	var txn domain.AuthorizationTransaction
	if err := json.Unmarshal(payload, &txn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &txn, nil
}

// Invalidate removes an authorization transaction.
func (r *TransactionStore) Invalidate(ctx context.Context, transactionID string) error {
	if err := r.client.Del(ctx, r.authKey(transactionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete transaction from Redis: %w", err)
	}
	return nil
}

// SetBindingTransaction stores a binding transaction as JSON with the given TTL.
func (r *TransactionStore) SetBindingTransaction(ctx context.Context, txn *domain.BindingTransaction, ttl time.Duration) error {
	payload, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to marshal binding transaction: %w", err)
	}
	if err := r.client.Set(ctx, r.bindingKey(txn.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set binding transaction in Redis: %w", err)
	}
	return nil
}

// GetBindingTransaction retrieves a binding transaction.
func (r *TransactionStore) GetBindingTransaction(ctx context.Context, transactionID string) (*domain.BindingTransaction, error) {
	payload, err := r.client.Get(ctx, r.bindingKey(transactionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get binding transaction from Redis: %w", err)
	}

	var txn domain.BindingTransaction
	if err := json.Unmarshal(payload, &txn); err != nil {
		return nil, fmt.Errorf("failed to unmarshal binding transaction: %w", err)
	}
	return &txn, nil
}

var (
	_ cache.AuthTransactionStore    = (*TransactionStore)(nil)
	_ cache.BindingTransactionStore = (*TransactionStore)(nil)
)
