// Package memory provides an in-memory key-value backend for
// development and testing.
package memory

import (
	"context"
	"sync"
)

// KV implements news.KV with a plain map.
type KV struct {
	mu   sync.RWMutex
	data map[string]string
}

// New constructs an empty KV.
func New() *KV {
	return &KV{data: make(map[string]string)}
}

// Get returns the stored value and whether the key exists.
func (k *KV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	val, ok := k.data[key]
	return val, ok, nil
}

// Put stores a value under key.
func (k *KV) Put(_ context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.data[key] = value
	return nil
}

// Delete removes a key; deleting an absent key is not an error.
func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.data, key)
	return nil
}
