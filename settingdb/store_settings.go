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

package settingdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const getSettingQuery = `
SELECT id, tenant_id, user_id, name, value, created_at, updated_at
FROM settings
WHERE tenant_id IS NOT DISTINCT FROM $1
  AND user_id IS NOT DISTINCT FROM $2
  AND name = $3`

// GetSetting returns the stored override for (tenantID, userID, name), or
// nil when no row exists.
func (store *Store) GetSetting(ctx context.Context, tenantID, userID *uuid.UUID, name string) (*Setting, error) {
	row := store.db.QueryRow(ctx, getSettingQuery, tenantID, userID, name)

	var s Setting
	err := row.Scan(&s.ID, &s.TenantID, &s.UserID, &s.Name, &s.Value, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %q: %w", name, err)
	}
	return &s, nil
}

const listSettingsQuery = `
SELECT id, tenant_id, user_id, name, value, created_at, updated_at
FROM settings
WHERE tenant_id IS NOT DISTINCT FROM $1
  AND user_id IS NOT DISTINCT FROM $2
ORDER BY name`

// ListSettings returns all stored overrides owned by (tenantID, userID).
// Both ids nil selects application-scope rows only.
func (store *Store) ListSettings(ctx context.Context, tenantID, userID *uuid.UUID) ([]Setting, error) {
	rows, err := store.db.Query(ctx, listSettingsQuery, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	defer rows.Close()

	var out []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.ID, &s.TenantID, &s.UserID, &s.Name, &s.Value, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

const createSettingQuery = `
INSERT INTO settings (id, tenant_id, user_id, name, value)
VALUES ($1, $2, $3, $4, $5)`

func (store *Store) CreateSetting(ctx context.Context, s Setting) error {
	_, err := store.db.Exec(ctx, createSettingQuery, s.ID, s.TenantID, s.UserID, s.Name, s.Value)
	if err != nil {
		return fmt.Errorf("failed to create setting %q: %w", s.Name, err)
	}
	return nil
}

const updateSettingQuery = `
UPDATE settings
SET value = $2, updated_at = now()
WHERE id = $1`

func (store *Store) UpdateSetting(ctx context.Context, s Setting) error {
	tag, err := store.db.Exec(ctx, updateSettingQuery, s.ID, s.Value)
	if err != nil {
		return fmt.Errorf("failed to update setting %q: %w", s.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting %q not found for update", s.Name)
	}
	return nil
}

const deleteSettingQuery = `
DELETE FROM settings
WHERE tenant_id IS NOT DISTINCT FROM $1
  AND user_id IS NOT DISTINCT FROM $2
  AND name = $3`

// DeleteSetting removes the stored override for (tenantID, userID, name).
// Deleting a row that does not exist is not an error.
func (store *Store) DeleteSetting(ctx context.Context, tenantID, userID *uuid.UUID, name string) error {
	_, err := store.db.Exec(ctx, deleteSettingQuery, tenantID, userID, name)
	if err != nil {
		return fmt.Errorf("failed to delete setting %q: %w", name, err)
	}
	return nil
}
