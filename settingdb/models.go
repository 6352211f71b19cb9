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
	"time"

	"github.com/google/uuid"
)

// Setting is one stored override. Exactly one of TenantID/UserID is set, or
// both are nil for an application-wide override; the database enforces this
// with a check constraint. (tenant_id, user_id, name) is the logical key.
type Setting struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ApiKey authenticates callers of the settings HTTP service. Only the
// sha256 hash of the key material is stored.
type ApiKey struct {
	ID          uuid.UUID `json:"id"`
	KeyHash     string    `json:"-"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}
