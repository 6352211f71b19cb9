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

const getApiKeyByHashQuery = `
SELECT id, key_hash, name, description, enabled, created_at
FROM api_keys
WHERE key_hash = $1`

// GetApiKeyByHash returns the API key with the given hash, or nil when no
// such key exists.
func (store *Store) GetApiKeyByHash(ctx context.Context, keyHash string) (*ApiKey, error) {
	row := store.db.QueryRow(ctx, getApiKeyByHashQuery, keyHash)

	var k ApiKey
	err := row.Scan(&k.ID, &k.KeyHash, &k.Name, &k.Description, &k.Enabled, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get API key by hash: %w", err)
	}
	return &k, nil
}

const createApiKeyQuery = `
INSERT INTO api_keys (id, key_hash, name, description, enabled)
VALUES ($1, $2, $3, $4, $5)`

func (store *Store) CreateApiKey(ctx context.Context, k ApiKey) error {
	_, err := store.db.Exec(ctx, createApiKeyQuery, k.ID, k.KeyHash, k.Name, k.Description, k.Enabled)
	if err != nil {
		return fmt.Errorf("failed to create API key %q: %w", k.Name, err)
	}
	return nil
}

const listApiKeysQuery = `
SELECT id, key_hash, name, description, enabled, created_at
FROM api_keys
ORDER BY created_at`

func (store *Store) ListApiKeys(ctx context.Context) ([]ApiKey, error) {
	rows, err := store.db.Query(ctx, listApiKeysQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}
	defer rows.Close()

	var out []ApiKey
	for rows.Next() {
		var k ApiKey
		if err := rows.Scan(&k.ID, &k.KeyHash, &k.Name, &k.Description, &k.Enabled, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key row: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

const deleteApiKeyQuery = `
DELETE FROM api_keys
WHERE id = $1`

func (store *Store) DeleteApiKey(ctx context.Context, id uuid.UUID) error {
	tag, err := store.db.Exec(ctx, deleteApiKeyQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete API key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("API key %s not found", id)
	}
	return nil
}
