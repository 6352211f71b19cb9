// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package settings

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardinalhq/tenantsettings/settingdb"
)

type nowFunc func() time.Time

type ownerLoadFunc func(ctx context.Context, ownerID uuid.UUID) ([]settingdb.Setting, error)

// ownerSettings is one owner's stored-override map together with its expiry
// deadline. All field access happens under mu.
type ownerSettings struct {
	mu        sync.Mutex
	values    map[string]settingdb.Setting
	loaded    bool
	expiresAt time.Time
}

// scopedCache maps an owner id to its lazily loaded, expiring override map.
// The outer RWMutex only guards the owner->entry map; each entry has its own
// lock so population or mutation for one owner never serializes another.
// Holding the entry lock across the bulk load is what guarantees at most one
// store query in flight per owner.
type scopedCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*ownerSettings

	ttl  time.Duration
	now  nowFunc
	load ownerLoadFunc
}

func newScopedCache(ttl time.Duration, now nowFunc, load ownerLoadFunc) *scopedCache {
	return &scopedCache{
		entries: make(map[uuid.UUID]*ownerSettings),
		ttl:     ttl,
		now:     now,
		load:    load,
	}
}

// entry returns the live entry for ownerID, inserting an empty one if needed.
func (c *scopedCache) entry(ownerID uuid.UUID) *ownerSettings {
	c.mu.RLock()
	e := c.entries[ownerID]
	c.mu.RUnlock()
	if e != nil {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e = c.entries[ownerID]; e == nil {
		e = &ownerSettings{}
		c.entries[ownerID] = e
	}
	return e
}

// refreshLocked reloads the entry from the store when it has never been
// populated or its expiry has passed. Caller must hold e.mu.
func (c *scopedCache) refreshLocked(ctx context.Context, ownerID uuid.UUID, e *ownerSettings) error {
	if e.loaded && c.now().Before(e.expiresAt) {
		return nil
	}

	rows, err := c.load(ctx, ownerID)
	if err != nil {
		return err
	}
	values := make(map[string]settingdb.Setting, len(rows))
	for _, row := range rows {
		values[row.Name] = row
	}
	e.values = values
	e.loaded = true
	e.expiresAt = c.now().Add(c.ttl)
	return nil
}

// lookup returns the stored override for (ownerID, name), populating the
// owner's entry first if necessary.
func (c *scopedCache) lookup(ctx context.Context, ownerID uuid.UUID, name string) (settingdb.Setting, bool, error) {
	e := c.entry(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := c.refreshLocked(ctx, ownerID, e); err != nil {
		return settingdb.Setting{}, false, err
	}
	s, ok := e.values[name]
	return s, ok, nil
}

// snapshot returns a copy of the owner's override map taken under the entry
// lock, so callers never observe a torn read racing a single-key mutation.
func (c *scopedCache) snapshot(ctx context.Context, ownerID uuid.UUID) (map[string]settingdb.Setting, error) {
	e := c.entry(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := c.refreshLocked(ctx, ownerID, e); err != nil {
		return nil, err
	}
	out := make(map[string]settingdb.Setting, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out, nil
}

// put inserts or replaces a single override within the owner's entry.
func (c *scopedCache) put(ctx context.Context, ownerID uuid.UUID, s settingdb.Setting) error {
	e := c.entry(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := c.refreshLocked(ctx, ownerID, e); err != nil {
		return err
	}
	e.values[s.Name] = s
	return nil
}

// remove drops a single override from the owner's entry.
func (c *scopedCache) remove(ctx context.Context, ownerID uuid.UUID, name string) error {
	e := c.entry(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := c.refreshLocked(ctx, ownerID, e); err != nil {
		return err
	}
	delete(e.values, name)
	return nil
}
