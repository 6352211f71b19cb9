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

import "errors"

var (
	// ErrUndefinedSetting is returned when a setting name has no definition
	// in the registry.
	ErrUndefinedSetting = errors.New("setting is not defined")

	// ErrInvalidScope is returned when a write names both a tenant and a
	// user as the owner, or targets a scope the definition does not permit.
	ErrInvalidScope = errors.New("invalid setting scope")

	// ErrTypeConversion is returned by the typed getters when a stored
	// value cannot be converted to the requested type.
	ErrTypeConversion = errors.New("setting value conversion failed")
)
