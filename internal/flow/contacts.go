package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/baseer-ai/baseer/internal/models"
	"github.com/baseer-ai/baseer/internal/store"
)

// DefaultContactRefreshCron is the default schedule for reloading the
// contact directory.
const DefaultContactRefreshCron = "*/5 * * * *"

// ContactCache holds a snapshot of the shared contact directory behind an
// atomic pointer. Readers always see a complete snapshot, never a directory
// mid-update; the snapshot preserves the store's deterministic iteration
// order.
type ContactCache struct {
	st       store.Store
	snapshot atomic.Pointer[[]models.Contact]
}

// NewContactCache creates an unloaded cache. Call Refresh before serving.
func NewContactCache(st store.Store) *ContactCache {
	return &ContactCache{st: st}
}

// Refresh reloads the directory from the store and swaps the snapshot in
// atomically.
func (c *ContactCache) Refresh(ctx context.Context) error {
	contacts, err := c.st.ListContacts(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh contact directory: %w", err)
	}
	c.snapshot.Store(&contacts)
	slog.Debug("ContactCache.Refresh: directory reloaded", "count", len(contacts))
	return nil
}

// Contacts returns the current snapshot. An unloaded cache falls back to a
// direct store read without populating the snapshot.
func (c *ContactCache) Contacts(ctx context.Context) ([]models.Contact, error) {
	if snap := c.snapshot.Load(); snap != nil {
		return *snap, nil
	}
	slog.Debug("ContactCache.Contacts: cache not primed, reading store directly")
	return c.st.ListContacts(ctx)
}
