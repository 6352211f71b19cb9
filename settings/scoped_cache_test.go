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
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/tenantsettings/settingdb"
)

func TestScopedCache_LoadsOncePerOwner(t *testing.T) {
	var loads atomic.Int64
	c := newScopedCache(time.Hour, time.Now, func(_ context.Context, ownerID uuid.UUID) ([]settingdb.Setting, error) {
		loads.Add(1)
		return []settingdb.Setting{
			{ID: uuid.New(), TenantID: &ownerID, Name: "a", Value: "1"},
			{ID: uuid.New(), TenantID: &ownerID, Name: "b", Value: "2"},
		}, nil
	})

	owner := uuid.New()
	ctx := context.Background()

	for range 5 {
		s, ok, err := c.lookup(ctx, owner, "a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "1", s.Value)

		_, ok, err = c.lookup(ctx, owner, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, int64(1), loads.Load())

	other := uuid.New()
	_, _, err := c.lookup(ctx, other, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loads.Load(), "owners load independently")
}

func TestScopedCache_ReloadsAfterExpiry(t *testing.T) {
	clock := newFakeClock()
	var loads atomic.Int64
	c := newScopedCache(10*time.Minute, clock.Now, func(context.Context, uuid.UUID) ([]settingdb.Setting, error) {
		loads.Add(1)
		return nil, nil
	})

	owner := uuid.New()
	ctx := context.Background()

	_, _, err := c.lookup(ctx, owner, "a")
	require.NoError(t, err)

	clock.Advance(9 * time.Minute)
	_, _, err = c.lookup(ctx, owner, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loads.Load(), "not yet expired")

	clock.Advance(2 * time.Minute)
	_, _, err = c.lookup(ctx, owner, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), loads.Load(), "expired entry reloads")
}

func TestScopedCache_SingleFlightPerOwner(t *testing.T) {
	var loads atomic.Int64
	release := make(chan struct{})
	c := newScopedCache(time.Hour, time.Now, func(context.Context, uuid.UUID) ([]settingdb.Setting, error) {
		loads.Add(1)
		<-release
		return nil, nil
	})

	owner := uuid.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.lookup(ctx, owner, "a")
			assert.NoError(t, err)
		}()
	}

	// Let the goroutines pile up on the entry lock, then release the load.
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), loads.Load(), "one store query per owner")
}

func TestScopedCache_LoadErrorNotCached(t *testing.T) {
	var loads atomic.Int64
	fail := errors.New("store down")
	c := newScopedCache(time.Hour, time.Now, func(context.Context, uuid.UUID) ([]settingdb.Setting, error) {
		if loads.Add(1) == 1 {
			return nil, fail
		}
		return nil, nil
	})

	owner := uuid.New()
	ctx := context.Background()

	_, _, err := c.lookup(ctx, owner, "a")
	assert.ErrorIs(t, err, fail)

	_, _, err = c.lookup(ctx, owner, "a")
	assert.NoError(t, err, "next lookup retries the load")
	assert.Equal(t, int64(2), loads.Load())
}

func TestScopedCache_PutAndRemove(t *testing.T) {
	c := newScopedCache(time.Hour, time.Now, func(context.Context, uuid.UUID) ([]settingdb.Setting, error) {
		return nil, nil
	})

	owner := uuid.New()
	ctx := context.Background()

	require.NoError(t, c.put(ctx, owner, settingdb.Setting{Name: "a", Value: "1"}))
	s, ok, err := c.lookup(ctx, owner, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", s.Value)

	snap, err := c.snapshot(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, snap, 1)

	require.NoError(t, c.remove(ctx, owner, "a"))
	_, ok, err = c.lookup(ctx, owner, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScopedCache_SnapshotIsCopy(t *testing.T) {
	c := newScopedCache(time.Hour, time.Now, func(context.Context, uuid.UUID) ([]settingdb.Setting, error) {
		return []settingdb.Setting{{Name: "a", Value: "1"}}, nil
	})

	owner := uuid.New()
	ctx := context.Background()

	snap, err := c.snapshot(ctx, owner)
	require.NoError(t, err)
	snap["a"] = settingdb.Setting{Name: "a", Value: "mutated"}

	s, ok, err := c.lookup(ctx, owner, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", s.Value)
}
