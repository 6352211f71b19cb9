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
	"os"

	"gopkg.in/yaml.v3"
)

type fileDefinition struct {
	Name    string   `yaml:"name"`
	Default string   `yaml:"default"`
	Scopes  []string `yaml:"scopes"`
}

type definitionsFile struct {
	Settings []fileDefinition `yaml:"settings"`
}

// LoadRegistryFromFile reads setting definitions from a YAML file and returns
// an in-memory Registry over them. The file has the shape:
//
//	settings:
//	  - name: app.theme
//	    default: light
//	    scopes: [application, tenant, user]
func LoadRegistryFromFile(path string) (Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file %s: %w", path, err)
	}

	var parsed definitionsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse definitions file %s: %w", path, err)
	}
	if len(parsed.Settings) == 0 {
		return nil, fmt.Errorf("definitions file %s declares no settings", path)
	}

	defs := make([]Definition, 0, len(parsed.Settings))
	for _, fd := range parsed.Settings {
		if fd.Name == "" {
			return nil, fmt.Errorf("definitions file %s: setting with empty name", path)
		}
		var scopes Scope
		for _, s := range fd.Scopes {
			flag, err := ParseScope(s)
			if err != nil {
				return nil, fmt.Errorf("definitions file %s: setting %q: %w", path, fd.Name, err)
			}
			scopes |= flag
		}
		if scopes == 0 {
			scopes = ScopeAll
		}
		defs = append(defs, Definition{
			Name:         fd.Name,
			DefaultValue: fd.Default,
			Scopes:       scopes,
		})
	}
	return NewRegistry(defs...), nil
}
