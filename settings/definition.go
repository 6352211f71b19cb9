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
	"sort"
)

// Definition declares a setting: its unique name, the value used when no
// override is stored anywhere, and the scopes at which overrides are allowed.
type Definition struct {
	Name         string
	DefaultValue string
	Scopes       Scope
}

// Registry resolves setting names to their definitions.
type Registry interface {
	// Get returns the definition for name, or an error wrapping
	// ErrUndefinedSetting when no such setting is declared.
	Get(name string) (Definition, error)

	// All returns every declared definition, ordered by name.
	All() []Definition
}

type mapRegistry struct {
	defs map[string]Definition
}

// NewRegistry builds an immutable in-memory Registry from the given
// definitions. A later definition with the same name replaces an earlier one.
func NewRegistry(defs ...Definition) Registry {
	m := make(map[string]Definition, len(defs))
	for _, def := range defs {
		m[def.Name] = def
	}
	return &mapRegistry{defs: m}
}

func (r *mapRegistry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("setting %q: %w", name, ErrUndefinedSetting)
	}
	return def, nil
}

func (r *mapRegistry) All() []Definition {
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
