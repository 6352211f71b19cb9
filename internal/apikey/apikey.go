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

// Package apikey validates API keys against the settings database.
package apikey

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/cardinalhq/tenantsettings/settingdb"
)

// ErrInvalidAPIKey is returned when a key is unknown, disabled, or empty.
var ErrInvalidAPIKey = errors.New("invalid API key")

// Provider validates API keys presented by callers.
type Provider interface {
	// ValidateAPIKey returns the key record for a valid, enabled key,
	// or an error wrapping ErrInvalidAPIKey otherwise.
	ValidateAPIKey(ctx context.Context, apiKey string) (*settingdb.ApiKey, error)
	Close()
}

// Querier defines the minimal database interface required by the provider.
type Querier interface {
	GetApiKeyByHash(ctx context.Context, keyHash string) (*settingdb.ApiKey, error)
}

// HashKey returns the hex-encoded SHA-256 digest of an API key.
// Only the digest is ever stored or compared.
func HashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("%x", h)
}
