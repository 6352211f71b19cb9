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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() Registry {
	return NewRegistry(
		Definition{Name: "App.Theme", DefaultValue: "light", Scopes: ScopeAll},
		Definition{Name: "App.PageSize", DefaultValue: "25", Scopes: ScopeApplication | ScopeTenant},
		Definition{Name: "App.Motd", DefaultValue: "", Scopes: ScopeApplication},
		Definition{Name: "Mail.Signature", DefaultValue: "regards", Scopes: ScopeUser},
	)
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, *memStore, *fakeClock) {
	t.Helper()
	store := newMemStore()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewManager(testRegistry(), store, opts...), store, clock
}

func sessionCtx(tenantID, userID *uuid.UUID) context.Context {
	return WithSession(context.Background(), Session{TenantID: tenantID, UserID: userID})
}

func TestGetValue_DefaultWhenNothingStored(t *testing.T) {
	m, _, _ := newTestManager(t)

	v, err := m.GetValue(context.Background(), "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestGetValue_UndefinedSetting(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.GetValue(context.Background(), "No.Such")
	assert.ErrorIs(t, err, ErrUndefinedSetting)
}

func TestGetValue_PrecedenceChain(t *testing.T) {
	m, store, _ := newTestManager(t)

	tenantID := uuid.New()
	userID := uuid.New()
	ctx := sessionCtx(&tenantID, &userID)

	v, err := m.GetValue(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v, "default before any override")

	require.NoError(t, m.ChangeForApplication(ctx, "App.Theme", "corporate"))
	v, err = m.GetValue(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "corporate", v, "application override shadows default")

	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))
	v, err = m.GetValue(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "tenant-blue", v, "tenant override shadows application")

	require.NoError(t, m.ChangeForUser(ctx, userID, "App.Theme", "dark"))
	v, err = m.GetValue(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v, "user override shadows tenant")

	assert.Equal(t, 3, store.rowCount())
}

func TestGetValue_FallsThroughOnMiss(t *testing.T) {
	m, store, _ := newTestManager(t)

	store.seed(nil, nil, "App.Theme", "corporate")

	// Session has a tenant and user, but neither has an override: resolution
	// falls through each empty layer to the application value.
	tenantID := uuid.New()
	userID := uuid.New()
	v, err := m.GetValue(sessionCtx(&tenantID, &userID), "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "corporate", v)
}

func TestGetValue_ScopeGatesEligibility(t *testing.T) {
	m, store, _ := newTestManager(t)

	tenantID := uuid.New()
	userID := uuid.New()

	// App.Motd only permits the application scope. Rows seeded at narrower
	// scopes must not be consulted even though the session matches them.
	store.seed(&tenantID, nil, "App.Motd", "tenant says hi")
	store.seed(nil, &userID, "App.Motd", "user says hi")
	store.seed(nil, nil, "App.Motd", "maintenance at noon")

	v, err := m.GetValue(sessionCtx(&tenantID, &userID), "App.Motd")
	require.NoError(t, err)
	assert.Equal(t, "maintenance at noon", v)
}

func TestGetValue_NoSessionIgnoresNarrowScopes(t *testing.T) {
	m, store, _ := newTestManager(t)

	tenantID := uuid.New()
	store.seed(&tenantID, nil, "App.Theme", "tenant-blue")

	v, err := m.GetValue(context.Background(), "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestGetValueForApplication_IgnoresSession(t *testing.T) {
	m, _, _ := newTestManager(t)

	tenantID := uuid.New()
	ctx := sessionCtx(&tenantID, nil)
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))

	v, err := m.GetValueForApplication(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestGetValueForTenant(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	other := uuid.New()
	require.NoError(t, m.ChangeForApplication(ctx, "App.PageSize", "50"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "100"))

	v, err := m.GetValueForTenant(ctx, tenantID, "App.PageSize")
	require.NoError(t, err)
	assert.Equal(t, "100", v)

	v, err = m.GetValueForTenant(ctx, other, "App.PageSize")
	require.NoError(t, err)
	assert.Equal(t, "50", v, "tenant without override inherits application value")
}

func TestGetValueForUser(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))

	v, err := m.GetValueForUser(ctx, &tenantID, userID, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "tenant-blue", v)

	require.NoError(t, m.ChangeForUser(ctx, userID, "App.Theme", "dark"))
	v, err = m.GetValueForUser(ctx, &tenantID, userID, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)

	v, err = m.GetValueForUser(ctx, nil, userID, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestChange_WriteIdempotence(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "100"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "100"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "100"))

	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 0, store.updateCalls)
	assert.Equal(t, 0, store.deleteCalls)
}

func TestChange_UpdateExistingRow(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "100"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "200"))

	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, 1, store.rowCount())

	v, err := m.GetValueForTenant(ctx, tenantID, "App.PageSize")
	require.NoError(t, err)
	assert.Equal(t, "200", v)
}

func TestChange_CollapseToDeclaredDefault(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	// Writing the declared default when nothing is stored is a no-op.
	require.NoError(t, m.ChangeForApplication(ctx, "App.Theme", "light"))
	assert.Equal(t, 0, store.createCalls)
	assert.Equal(t, 0, store.rowCount())

	// Writing the declared default over a stored override deletes the row.
	require.NoError(t, m.ChangeForApplication(ctx, "App.Theme", "corporate"))
	require.Equal(t, 1, store.rowCount())
	require.NoError(t, m.ChangeForApplication(ctx, "App.Theme", "light"))
	assert.Equal(t, 1, store.deleteCalls)
	assert.Equal(t, 0, store.rowCount())

	v, err := m.GetValue(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)
}

func TestChange_CollapseToInheritedValue(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	require.NoError(t, m.ChangeForApplication(ctx, "App.PageSize", "50"))

	// A tenant write equal to the application value it would inherit stores
	// nothing.
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "50"))
	assert.Equal(t, 1, store.rowCount())

	// A diverging write stores a row; converging again deletes it.
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "100"))
	assert.Equal(t, 2, store.rowCount())
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.PageSize", "50"))
	assert.Equal(t, 1, store.rowCount())
}

func TestReset_RemovesOverride(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))
	require.Equal(t, 1, store.rowCount())

	require.NoError(t, m.ResetForTenant(ctx, tenantID, "App.Theme"))
	assert.Equal(t, 0, store.rowCount())

	// Resetting again is a no-op.
	deletes := store.deleteCalls
	require.NoError(t, m.ResetForTenant(ctx, tenantID, "App.Theme"))
	assert.Equal(t, deletes, store.deleteCalls)
}

func TestChange_ScopeViolations(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	userID := uuid.New()

	err := m.ChangeForTenant(ctx, tenantID, "Mail.Signature", "cheers")
	assert.ErrorIs(t, err, ErrInvalidScope)

	err = m.ChangeForUser(ctx, userID, "App.PageSize", "7")
	assert.ErrorIs(t, err, ErrInvalidScope)

	err = m.ChangeForApplication(ctx, "Mail.Signature", "cheers")
	assert.ErrorIs(t, err, ErrInvalidScope)

	// Both owner ids at once is rejected before touching the store.
	err = m.change(ctx, &tenantID, &userID, "App.Theme", "dark", false)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestChange_UndefinedSetting(t *testing.T) {
	m, _, _ := newTestManager(t)

	err := m.ChangeForApplication(context.Background(), "No.Such", "x")
	assert.ErrorIs(t, err, ErrUndefinedSetting)
}

// A user-scope write computes its inherited baseline from the session's
// current tenant, not from any tenant tied to the user being written. The
// asymmetry is longstanding behavior; this test pins it.
func TestChangeForUser_InheritsSessionTenant(t *testing.T) {
	m, store, _ := newTestManager(t)

	tenantID := uuid.New()
	userID := uuid.New()
	ctx := sessionCtx(&tenantID, &userID)

	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))

	// Writing the session tenant's value for the user collapses to
	// inheritance: no user row.
	require.NoError(t, m.ChangeForUser(ctx, userID, "App.Theme", "tenant-blue"))
	assert.Equal(t, 1, store.rowCount())

	// The same write without a session tenant diverges from the application
	// baseline and stores a user row.
	otherUser := uuid.New()
	require.NoError(t, m.ChangeForUser(context.Background(), otherUser, "App.Theme", "tenant-blue"))
	assert.Equal(t, 2, store.rowCount())
}

func TestGetAllValues_LayersAndOrder(t *testing.T) {
	m, _, _ := newTestManager(t)

	tenantID := uuid.New()
	userID := uuid.New()
	ctx := sessionCtx(&tenantID, &userID)

	require.NoError(t, m.ChangeForApplication(ctx, "App.PageSize", "50"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))
	require.NoError(t, m.ChangeForUser(ctx, userID, "Mail.Signature", "cheers"))

	values, err := m.GetAllValues(ctx)
	require.NoError(t, err)
	require.Len(t, values, 4)

	// Ordered by name.
	assert.Equal(t, []Value{
		{Name: "App.Motd", Value: ""},
		{Name: "App.PageSize", Value: "50"},
		{Name: "App.Theme", Value: "tenant-blue"},
		{Name: "Mail.Signature", Value: "cheers"},
	}, values)
}

func TestGetAllValuesForApplication(t *testing.T) {
	m, _, _ := newTestManager(t)

	tenantID := uuid.New()
	ctx := sessionCtx(&tenantID, nil)
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "tenant-blue"))
	require.NoError(t, m.ChangeForApplication(ctx, "App.Motd", "hello"))

	values, err := m.GetAllValuesForApplication(ctx)
	require.NoError(t, err)

	byName := map[string]string{}
	for _, v := range values {
		byName[v.Name] = v.Value
	}
	assert.Equal(t, "light", byName["App.Theme"], "tenant layer not consulted")
	assert.Equal(t, "hello", byName["App.Motd"])
}

func TestCacheExpiry_TenantReloadsAfterTTL(t *testing.T) {
	m, store, clock := newTestManager(t, WithTenantCacheTTL(time.Hour))
	ctx := context.Background()

	tenantID := uuid.New()
	v, err := m.GetValueForTenant(ctx, tenantID, "App.PageSize")
	require.NoError(t, err)
	assert.Equal(t, "25", v)

	// A row added behind the cache's back stays invisible until expiry.
	store.seed(&tenantID, nil, "App.PageSize", "100")
	v, err = m.GetValueForTenant(ctx, tenantID, "App.PageSize")
	require.NoError(t, err)
	assert.Equal(t, "25", v)

	clock.Advance(time.Hour + time.Minute)
	v, err = m.GetValueForTenant(ctx, tenantID, "App.PageSize")
	require.NoError(t, err)
	assert.Equal(t, "100", v)
}

func TestAppCache_ProcessLifetime(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	v, err := m.GetValueForApplication(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	// The application cache never expires on its own.
	store.seed(nil, nil, "App.Theme", "corporate")
	clock.Advance(1000 * time.Hour)
	v, err = m.GetValueForApplication(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v)

	// Writes through the Manager update it immediately.
	require.NoError(t, m.ChangeForApplication(ctx, "App.Theme", "dark"))
	v, err = m.GetValueForApplication(ctx, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
}

func TestCacheConsistentWithStoreAfterWrites(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "a"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "b"))
	require.NoError(t, m.ResetForTenant(ctx, tenantID, "App.Theme"))
	require.NoError(t, m.ChangeForTenant(ctx, tenantID, "App.Theme", "c"))

	listCallsBefore := store.listCalls
	v, err := m.GetValueForTenant(ctx, tenantID, "App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "c", v)
	assert.Equal(t, listCallsBefore, store.listCalls, "served from cache")

	row, err := store.GetSetting(ctx, &tenantID, nil, "App.Theme")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "c", row.Value)
}

func TestConcurrentWriters_DistinctNames(t *testing.T) {
	m, store, _ := newTestManager(t)
	ctx := context.Background()

	tenantID := uuid.New()
	names := []string{"App.Theme", "App.PageSize"}

	var wg sync.WaitGroup
	errs := make(chan error, len(names)*10)
	for range 10 {
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				errs <- m.ChangeForTenant(ctx, tenantID, name, "concurrent-"+name)
			}(name)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 2, store.rowCount())
	for _, name := range names {
		cached, err := m.GetValueForTenant(ctx, tenantID, name)
		require.NoError(t, err)
		row, err := store.GetSetting(ctx, &tenantID, nil, name)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, row.Value, cached)
	}
}

func TestDefinition(t *testing.T) {
	m, _, _ := newTestManager(t)

	def, err := m.Definition("App.Theme")
	require.NoError(t, err)
	assert.Equal(t, "light", def.DefaultValue)

	_, err = m.Definition("No.Such")
	assert.ErrorIs(t, err, ErrUndefinedSetting)
}
