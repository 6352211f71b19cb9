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

// Package settings resolves named configuration values through a layered
// scope hierarchy: a user override shadows a tenant override, which shadows
// an application-wide override, which shadows the declared default. Stored
// overrides live in a settingdb store; per-tenant and per-user override maps
// are cached in-process with expiration, while application overrides are
// cached for the process lifetime and invalidated only by writes.
package settings

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/cardinalhq/tenantsettings/settingdb"
)

const (
	// DefaultTenantCacheTTL is how long a tenant's override map is served
	// from cache before it is reloaded from the store.
	DefaultTenantCacheTTL = 60 * time.Minute

	// DefaultUserCacheTTL is the corresponding horizon for user overrides.
	DefaultUserCacheTTL = 20 * time.Minute
)

// Manager resolves and changes setting values. It is safe for concurrent use.
type Manager struct {
	registry Registry
	store    Store

	appCache    *appCache
	tenantCache *scopedCache
	userCache   *scopedCache
}

type managerOptions struct {
	tenantTTL time.Duration
	userTTL   time.Duration
	now       nowFunc
}

// Option configures a Manager.
type Option func(*managerOptions)

// WithTenantCacheTTL overrides the tenant cache expiration horizon.
func WithTenantCacheTTL(ttl time.Duration) Option {
	return func(o *managerOptions) { o.tenantTTL = ttl }
}

// WithUserCacheTTL overrides the user cache expiration horizon.
func WithUserCacheTTL(ttl time.Duration) Option {
	return func(o *managerOptions) { o.userTTL = ttl }
}

// WithClock injects the time source used for cache expiration. Tests use
// this to simulate expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *managerOptions) { o.now = now }
}

// NewManager creates a Manager over the given definition registry and store.
func NewManager(registry Registry, store Store, opts ...Option) *Manager {
	o := managerOptions{
		tenantTTL: DefaultTenantCacheTTL,
		userTTL:   DefaultUserCacheTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		registry: registry,
		store:    store,
	}
	m.appCache = newAppCache(func(ctx context.Context) ([]settingdb.Setting, error) {
		return store.ListSettings(ctx, nil, nil)
	})
	m.tenantCache = newScopedCache(o.tenantTTL, o.now, func(ctx context.Context, ownerID uuid.UUID) ([]settingdb.Setting, error) {
		return store.ListSettings(ctx, &ownerID, nil)
	})
	m.userCache = newScopedCache(o.userTTL, o.now, func(ctx context.Context, ownerID uuid.UUID) ([]settingdb.Setting, error) {
		return store.ListSettings(ctx, nil, &ownerID)
	})
	return m
}

// Definition returns the declaration for name.
func (m *Manager) Definition(name string) (Definition, error) {
	return m.registry.Get(name)
}

// GetValue resolves name for the identity carried by the context's session.
// A scope is only consulted when the definition permits it; within the
// permitted scopes, user shadows tenant shadows application shadows the
// declared default.
func (m *Manager) GetValue(ctx context.Context, name string) (string, error) {
	def, err := m.registry.Get(name)
	if err != nil {
		return "", err
	}

	sess := SessionFromContext(ctx)

	if def.Scopes.Has(ScopeUser) && sess.UserID != nil {
		s, ok, err := m.userCache.lookup(ctx, *sess.UserID, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.Value, nil
		}
	}

	if def.Scopes.Has(ScopeTenant) && sess.TenantID != nil {
		s, ok, err := m.tenantCache.lookup(ctx, *sess.TenantID, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.Value, nil
		}
	}

	if def.Scopes.Has(ScopeApplication) {
		s, ok, err := m.appCache.lookup(ctx, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.Value, nil
		}
	}

	return def.DefaultValue, nil
}

// GetValueForApplication resolves name using only the application scope and
// the declared default, ignoring any session identity.
func (m *Manager) GetValueForApplication(ctx context.Context, name string) (string, error) {
	def, err := m.registry.Get(name)
	if err != nil {
		return "", err
	}
	if def.Scopes.Has(ScopeApplication) {
		s, ok, err := m.appCache.lookup(ctx, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.Value, nil
		}
	}
	return def.DefaultValue, nil
}

// GetValueForTenant resolves name for an explicit tenant, falling back to
// the application scope and then the declared default.
func (m *Manager) GetValueForTenant(ctx context.Context, tenantID uuid.UUID, name string) (string, error) {
	def, err := m.registry.Get(name)
	if err != nil {
		return "", err
	}
	if def.Scopes.Has(ScopeTenant) {
		s, ok, err := m.tenantCache.lookup(ctx, tenantID, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.Value, nil
		}
	}
	return m.GetValueForApplication(ctx, name)
}

// GetValueForUser resolves name for an explicit user, falling back to the
// given tenant (when non-nil), the application scope, and the declared
// default.
func (m *Manager) GetValueForUser(ctx context.Context, tenantID *uuid.UUID, userID uuid.UUID, name string) (string, error) {
	def, err := m.registry.Get(name)
	if err != nil {
		return "", err
	}
	if def.Scopes.Has(ScopeUser) {
		s, ok, err := m.userCache.lookup(ctx, userID, name)
		if err != nil {
			return "", err
		}
		if ok {
			return s.Value, nil
		}
	}
	if tenantID != nil {
		return m.GetValueForTenant(ctx, *tenantID, name)
	}
	return m.GetValueForApplication(ctx, name)
}

// GetAllValues resolves every declared setting for the identity carried by
// the context's session. Results are ordered by name.
func (m *Manager) GetAllValues(ctx context.Context) ([]Value, error) {
	sess := SessionFromContext(ctx)
	return m.allValues(ctx, sess.TenantID, sess.UserID)
}

// GetAllValuesForApplication resolves every declared setting using only the
// application scope and defaults.
func (m *Manager) GetAllValuesForApplication(ctx context.Context) ([]Value, error) {
	return m.allValues(ctx, nil, nil)
}

// GetAllValuesForTenant resolves every declared setting for an explicit
// tenant (no user layer).
func (m *Manager) GetAllValuesForTenant(ctx context.Context, tenantID uuid.UUID) ([]Value, error) {
	return m.allValues(ctx, &tenantID, nil)
}

// GetAllValuesForUser resolves every declared setting for an explicit user.
// The tenant layer comes from the context's session, mirroring GetValue.
func (m *Manager) GetAllValuesForUser(ctx context.Context, userID uuid.UUID) ([]Value, error) {
	sess := SessionFromContext(ctx)
	return m.allValues(ctx, sess.TenantID, &userID)
}

// allValues seeds every definition's default and overlays stored values in
// widening-to-narrowing order: application, then tenant, then user. A layer
// only contributes values for settings that permit that scope.
func (m *Manager) allValues(ctx context.Context, tenantID, userID *uuid.UUID) ([]Value, error) {
	defs := m.registry.All()

	resolved := make(map[string]string, len(defs))
	for _, def := range defs {
		resolved[def.Name] = def.DefaultValue
	}

	appValues, err := m.appCache.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var tenantValues, userValues map[string]settingdb.Setting
	if tenantID != nil {
		if tenantValues, err = m.tenantCache.snapshot(ctx, *tenantID); err != nil {
			return nil, err
		}
	}
	if userID != nil {
		if userValues, err = m.userCache.snapshot(ctx, *userID); err != nil {
			return nil, err
		}
	}

	for _, def := range defs {
		if def.Scopes.Has(ScopeApplication) {
			if s, ok := appValues[def.Name]; ok {
				resolved[def.Name] = s.Value
			}
		}
		if def.Scopes.Has(ScopeTenant) {
			if s, ok := tenantValues[def.Name]; ok {
				resolved[def.Name] = s.Value
			}
		}
		if def.Scopes.Has(ScopeUser) {
			if s, ok := userValues[def.Name]; ok {
				resolved[def.Name] = s.Value
			}
		}
	}

	out := make([]Value, 0, len(resolved))
	for name, value := range resolved {
		out = append(out, Value{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ChangeForApplication stores an application-wide override for name. Setting
// the declared default collapses any stored override back to inheritance.
func (m *Manager) ChangeForApplication(ctx context.Context, name, value string) error {
	return m.change(ctx, nil, nil, name, value, false)
}

// ChangeForTenant stores a tenant override for name.
func (m *Manager) ChangeForTenant(ctx context.Context, tenantID uuid.UUID, name, value string) error {
	return m.change(ctx, &tenantID, nil, name, value, false)
}

// ChangeForUser stores a user override for name.
func (m *Manager) ChangeForUser(ctx context.Context, userID uuid.UUID, name, value string) error {
	return m.change(ctx, nil, &userID, name, value, false)
}

// ResetForApplication removes any application-wide override for name.
func (m *Manager) ResetForApplication(ctx context.Context, name string) error {
	return m.change(ctx, nil, nil, name, "", true)
}

// ResetForTenant removes any tenant override for name.
func (m *Manager) ResetForTenant(ctx context.Context, tenantID uuid.UUID, name string) error {
	return m.change(ctx, &tenantID, nil, name, "", true)
}

// ResetForUser removes any user override for name.
func (m *Manager) ResetForUser(ctx context.Context, userID uuid.UUID, name string) error {
	return m.change(ctx, nil, &userID, name, "", true)
}

type cacheOp int

const (
	cacheOpNone cacheOp = iota
	cacheOpSet
	cacheOpDelete
)

// change is the single write path. It reads the current durable row directly
// from the store, computes the value the target scope would inherit from the
// wider scopes, and then creates, updates, or deletes the row accordingly —
// all inside one transaction. The matching cache mutation is applied only
// after the transaction commits.
//
// When reset is true the requested value is taken to be the inherited
// default itself, which deletes any stored override.
func (m *Manager) change(ctx context.Context, tenantID, userID *uuid.UUID, name, value string, reset bool) error {
	if tenantID != nil && userID != nil {
		return fmt.Errorf("setting %q: %w", name, ErrInvalidScope)
	}

	def, err := m.registry.Get(name)
	if err != nil {
		return err
	}

	target := ScopeApplication
	switch {
	case userID != nil:
		target = ScopeUser
	case tenantID != nil:
		target = ScopeTenant
	}
	if !def.Scopes.Has(target) {
		return fmt.Errorf("setting %q does not permit %s overrides: %w", name, target, ErrInvalidScope)
	}

	var (
		op     cacheOp
		stored settingdb.Setting
	)
	err = m.store.ExecTx(ctx, func(q settingdb.Querier) error {
		existing, err := q.GetSetting(ctx, tenantID, userID, name)
		if err != nil {
			return err
		}

		inherited, err := m.inheritedDefault(ctx, def, tenantID, userID)
		if err != nil {
			return err
		}
		if reset {
			value = inherited
		}

		switch {
		case value == inherited:
			// The write expresses "use the inherited value": drop any
			// stored row rather than persisting a redundant one.
			if existing == nil {
				op = cacheOpNone
				return nil
			}
			op = cacheOpDelete
			return q.DeleteSetting(ctx, tenantID, userID, name)

		case existing == nil:
			stored = settingdb.Setting{
				ID:       uuid.New(),
				TenantID: tenantID,
				UserID:   userID,
				Name:     name,
				Value:    value,
			}
			op = cacheOpSet
			return q.CreateSetting(ctx, stored)

		case existing.Value == value:
			op = cacheOpNone
			return nil

		default:
			stored = *existing
			stored.Value = value
			op = cacheOpSet
			return q.UpdateSetting(ctx, stored)
		}
	})
	if err != nil {
		return err
	}

	switch op {
	case cacheOpSet:
		return m.cachePut(ctx, tenantID, userID, stored)
	case cacheOpDelete:
		return m.cacheRemove(ctx, tenantID, userID, name)
	default:
		return nil
	}
}

// inheritedDefault computes the value a write at the given scope would
// inherit if no row were stored there. Tenant and user writes inherit the
// application override when one exists. A user write additionally inherits
// the override of the session's current tenant — the session's, not any
// tenant tied to the user being written. That asymmetry matches longstanding
// behavior and is pinned by tests; do not "fix" it here.
func (m *Manager) inheritedDefault(ctx context.Context, def Definition, tenantID, userID *uuid.UUID) (string, error) {
	value := def.DefaultValue
	if tenantID == nil && userID == nil {
		return value, nil
	}

	if s, ok, err := m.appCache.lookup(ctx, def.Name); err != nil {
		return "", err
	} else if ok {
		value = s.Value
	}

	if userID != nil {
		sess := SessionFromContext(ctx)
		if sess.TenantID != nil {
			if s, ok, err := m.tenantCache.lookup(ctx, *sess.TenantID, def.Name); err != nil {
				return "", err
			} else if ok {
				value = s.Value
			}
		}
	}

	return value, nil
}

func (m *Manager) cachePut(ctx context.Context, tenantID, userID *uuid.UUID, s settingdb.Setting) error {
	switch {
	case userID != nil:
		return m.userCache.put(ctx, *userID, s)
	case tenantID != nil:
		return m.tenantCache.put(ctx, *tenantID, s)
	default:
		return m.appCache.put(ctx, s)
	}
}

func (m *Manager) cacheRemove(ctx context.Context, tenantID, userID *uuid.UUID, name string) error {
	switch {
	case userID != nil:
		return m.userCache.remove(ctx, *userID, name)
	case tenantID != nil:
		return m.tenantCache.remove(ctx, *tenantID, name)
	default:
		return m.appCache.remove(ctx, name)
	}
}
