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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardinalhq/tenantsettings/settingdb"
)

type ownerKey struct {
	tenantID uuid.UUID
	userID   uuid.UUID
	name     string
}

func makeOwnerKey(tenantID, userID *uuid.UUID, name string) ownerKey {
	k := ownerKey{name: name}
	if tenantID != nil {
		k.tenantID = *tenantID
	}
	if userID != nil {
		k.userID = *userID
	}
	return k
}

// memStore is an in-memory Store. It counts store operations so tests can
// assert on cache behavior and write suppression.
type memStore struct {
	// txMu serializes ExecTx calls, standing in for database transaction
	// isolation.
	txMu sync.Mutex

	mu   sync.Mutex
	rows map[ownerKey]settingdb.Setting

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{rows: map[ownerKey]settingdb.Setting{}}
}

// seed stores a row directly, bypassing the write path.
func (m *memStore) seed(tenantID, userID *uuid.UUID, name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[makeOwnerKey(tenantID, userID, name)] = settingdb.Setting{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   userID,
		Name:     name,
		Value:    value,
	}
}

func (m *memStore) rowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memStore) GetSetting(_ context.Context, tenantID, userID *uuid.UUID, name string) (*settingdb.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.rows[makeOwnerKey(tenantID, userID, name)]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memStore) ListSettings(_ context.Context, tenantID, userID *uuid.UUID) ([]settingdb.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	want := makeOwnerKey(tenantID, userID, "")
	var out []settingdb.Setting
	for k, s := range m.rows {
		if k.tenantID == want.tenantID && k.userID == want.userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) CreateSetting(_ context.Context, s settingdb.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	k := makeOwnerKey(s.TenantID, s.UserID, s.Name)
	if _, ok := m.rows[k]; ok {
		return fmt.Errorf("setting %s already exists", s.Name)
	}
	m.rows[k] = s
	return nil
}

func (m *memStore) UpdateSetting(_ context.Context, s settingdb.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	k := makeOwnerKey(s.TenantID, s.UserID, s.Name)
	if _, ok := m.rows[k]; !ok {
		return fmt.Errorf("setting %s not found", s.Name)
	}
	m.rows[k] = s
	return nil
}

func (m *memStore) DeleteSetting(_ context.Context, tenantID, userID *uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	delete(m.rows, makeOwnerKey(tenantID, userID, name))
	return nil
}

func (m *memStore) GetApiKeyByHash(context.Context, string) (*settingdb.ApiKey, error) {
	return nil, nil
}
func (m *memStore) CreateApiKey(context.Context, settingdb.ApiKey) error { return nil }
func (m *memStore) ListApiKeys(context.Context) ([]settingdb.ApiKey, error) {
	return nil, nil
}
func (m *memStore) DeleteApiKey(context.Context, uuid.UUID) error { return nil }

func (m *memStore) ExecTx(_ context.Context, fn func(settingdb.Querier) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
