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

	"github.com/cardinalhq/tenantsettings/settingdb"
)

type appLoadFunc func(ctx context.Context) ([]settingdb.Setting, error)

// appCache holds the application-scope overrides. It is populated once per
// process lifetime and never expires; the only invalidation path is a write
// through the Manager, which mutates it under the same lock.
type appCache struct {
	mu     sync.Mutex
	values map[string]settingdb.Setting
	load   appLoadFunc
}

func newAppCache(load appLoadFunc) *appCache {
	return &appCache{load: load}
}

// refreshLocked populates the cache on first use. Caller must hold c.mu.
func (c *appCache) refreshLocked(ctx context.Context) error {
	if c.values != nil {
		return nil
	}
	rows, err := c.load(ctx)
	if err != nil {
		return err
	}
	values := make(map[string]settingdb.Setting, len(rows))
	for _, row := range rows {
		values[row.Name] = row
	}
	c.values = values
	return nil
}

func (c *appCache) lookup(ctx context.Context, name string) (settingdb.Setting, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(ctx); err != nil {
		return settingdb.Setting{}, false, err
	}
	s, ok := c.values[name]
	return s, ok, nil
}

func (c *appCache) snapshot(ctx context.Context) (map[string]settingdb.Setting, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]settingdb.Setting, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out, nil
}

func (c *appCache) put(ctx context.Context, s settingdb.Setting) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(ctx); err != nil {
		return err
	}
	c.values[s.Name] = s
	return nil
}

func (c *appCache) remove(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.refreshLocked(ctx); err != nil {
		return err
	}
	delete(c.values, name)
	return nil
}
