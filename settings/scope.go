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
	"fmt"
	"strings"
)

// Scope is a bit set of the levels at which a setting may be overridden.
type Scope uint8

const (
	// ScopeApplication allows a single process-wide override.
	ScopeApplication Scope = 1 << iota
	// ScopeTenant allows one override per tenant.
	ScopeTenant
	// ScopeUser allows one override per user.
	ScopeUser
)

// ScopeAll permits overrides at every level.
const ScopeAll = ScopeApplication | ScopeTenant | ScopeUser

// Has reports whether every flag in other is set.
func (s Scope) Has(other Scope) bool {
	return s&other == other
}

func (s Scope) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	if s.Has(ScopeApplication) {
		parts = append(parts, "application")
	}
	if s.Has(ScopeTenant) {
		parts = append(parts, "tenant")
	}
	if s.Has(ScopeUser) {
		parts = append(parts, "user")
	}
	return strings.Join(parts, ",")
}

// ParseScope converts a scope name to its flag. Accepted names are
// "application", "tenant", and "user".
func ParseScope(name string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "application":
		return ScopeApplication, nil
	case "tenant":
		return ScopeTenant, nil
	case "user":
		return ScopeUser, nil
	default:
		return 0, fmt.Errorf("unknown setting scope %q", name)
	}
}
