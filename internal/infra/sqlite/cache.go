package sqlite

import (
	"context"
	"errors"
	"sync"

	"github.com/dvloznov/finance-ledger/internal/domain"
)

// NameCache is a read-through cache over the account and currency name
// lookups. It replaces the eagerly warmed module-global caches of the
// original system: write paths that touch accounts or currencies must call
// Invalidate so renames never serve stale ids.
type NameCache struct {
	store *Store

	mu         sync.Mutex
	accounts   map[string]int64
	currencies map[string]int64
}

// NewNameCache creates an empty cache backed by the store.
func NewNameCache(store *Store) *NameCache {
	c := &NameCache{store: store}
	c.reset()
	return c
}

func (c *NameCache) reset() {
	c.accounts = make(map[string]int64)
	c.currencies = make(map[string]int64)
}

// Invalidate drops every cached entry. Call after any write to the accounts
// or currency tables.
func (c *NameCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// AccountID resolves an account name, consulting the store on a miss. The
// boolean is false when no such account exists; only real lookup failures
// return an error.
func (c *NameCache) AccountID(ctx context.Context, name string) (int64, bool, error) {
	c.mu.Lock()
	if id, ok := c.accounts[name]; ok {
		c.mu.Unlock()
		return id, true, nil
	}
	c.mu.Unlock()

	id, err := c.store.AccountIDByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	c.mu.Lock()
	c.accounts[name] = id
	c.mu.Unlock()
	return id, true, nil
}

// CurrencyID resolves a currency name, consulting the store on a miss.
func (c *NameCache) CurrencyID(ctx context.Context, name string) (int64, bool, error) {
	c.mu.Lock()
	if id, ok := c.currencies[name]; ok {
		c.mu.Unlock()
		return id, true, nil
	}
	c.mu.Unlock()

	id, err := c.store.CurrencyIDByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}

	c.mu.Lock()
	c.currencies[name] = id
	c.mu.Unlock()
	return id, true, nil
}
