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

package apikey

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cardinalhq/tenantsettings/settingdb"
)

// DefaultCacheTTL bounds how long a validation result is reused before
// the database is consulted again.
const DefaultCacheTTL = 5 * time.Minute

// cacheValue holds a cached lookup result or error.
type cacheValue struct {
	key *settingdb.ApiKey
	err error
}

type dbProvider struct {
	db    Querier
	cache *ttlcache.Cache[string, cacheValue]
}

var _ Provider = (*dbProvider)(nil)

// NewDBProvider creates a Provider backed by the settings database.
// Validation results, including misses, are cached for ttl.
func NewDBProvider(db Querier, ttl time.Duration) Provider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, cacheValue](ttl),
	)
	go cache.Start()
	return &dbProvider{
		db:    db,
		cache: cache,
	}
}

// Close stops the cache background goroutine and releases resources.
func (p *dbProvider) Close() {
	p.cache.Stop()
}

func (p *dbProvider) ValidateAPIKey(ctx context.Context, apiKey string) (*settingdb.ApiKey, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidAPIKey)
	}

	keyHash := HashKey(apiKey)

	// The loader is created fresh for each call, capturing the current
	// context. ttlcache only invokes it synchronously on cache miss.
	loader := ttlcache.LoaderFunc[string, cacheValue](
		func(cache *ttlcache.Cache[string, cacheValue], hash string) *ttlcache.Item[string, cacheValue] {
			row, err := p.db.GetApiKeyByHash(ctx, hash)
			return cache.Set(hash, cacheValue{
				key: row,
				err: err,
			}, ttlcache.DefaultTTL)
		},
	)

	cached := p.cache.Get(keyHash, ttlcache.WithLoader(loader)).Value()
	if cached.err != nil {
		return nil, fmt.Errorf("api key lookup: %w", cached.err)
	}
	if cached.key == nil {
		return nil, fmt.Errorf("%w: unknown key", ErrInvalidAPIKey)
	}
	if !cached.key.Enabled {
		return nil, fmt.Errorf("%w: key disabled", ErrInvalidAPIKey)
	}
	return cached.key, nil
}
