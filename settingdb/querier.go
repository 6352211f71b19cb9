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

	"github.com/google/uuid"
)

// Querier provides all functions to execute db queries. Both owner ids nil
// selects the application scope; setting both is rejected by the schema.
type Querier interface {
	// GetSetting returns the stored override for (tenantID, userID, name),
	// or nil when no row exists.
	GetSetting(ctx context.Context, tenantID, userID *uuid.UUID, name string) (*Setting, error)

	// ListSettings returns all stored overrides owned by (tenantID, userID).
	ListSettings(ctx context.Context, tenantID, userID *uuid.UUID) ([]Setting, error)

	CreateSetting(ctx context.Context, s Setting) error
	UpdateSetting(ctx context.Context, s Setting) error
	DeleteSetting(ctx context.Context, tenantID, userID *uuid.UUID, name string) error

	GetApiKeyByHash(ctx context.Context, keyHash string) (*ApiKey, error)
	CreateApiKey(ctx context.Context, k ApiKey) error
	ListApiKeys(ctx context.Context) ([]ApiKey, error)
	DeleteApiKey(ctx context.Context, id uuid.UUID) error
}

var _ Querier = (*Store)(nil)
