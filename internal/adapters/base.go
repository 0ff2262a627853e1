package adapters

import (
	"fmt"
	"sync"
)

// BaseAdapter provides common functionality for platform adapters
type BaseAdapter struct {
	mu            sync.RWMutex
	authenticated bool
	platformName  string
}

// NewBaseAdapter creates a new BaseAdapter
func NewBaseAdapter(platformName string) BaseAdapter {
	return BaseAdapter{platformName: platformName}
}

// SetAuthenticated updates the authentication status
func (b *BaseAdapter) SetAuthenticated(status bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.authenticated = status
}

// IsAuthenticated checks if the adapter is authenticated
func (b *BaseAdapter) IsAuthenticated() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.authenticated
}

// CheckAuth ensures the adapter is authenticated before making API calls
func (b *BaseAdapter) CheckAuth() error {
	if !b.IsAuthenticated() {
		return fmt.Errorf("%s: %w, call Authenticate first", b.platformName, ErrNotAuthenticated)
	}
	return nil
}

// PlatformName returns the name of the platform
func (b *BaseAdapter) PlatformName() string {
	return b.platformName
}
