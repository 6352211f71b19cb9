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
	"time"

	"github.com/spf13/cast"
)

// Typed getters resolve a setting like GetValue and convert the string
// result. Conversion failures wrap ErrTypeConversion.

func (m *Manager) GetBool(ctx context.Context, name string) (bool, error) {
	raw, err := m.GetValue(ctx, name)
	if err != nil {
		return false, err
	}
	v, err := cast.ToBoolE(raw)
	if err != nil {
		return false, conversionError(name, raw, "bool", err)
	}
	return v, nil
}

func (m *Manager) GetInt(ctx context.Context, name string) (int, error) {
	raw, err := m.GetValue(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return 0, conversionError(name, raw, "int", err)
	}
	return v, nil
}

func (m *Manager) GetInt64(ctx context.Context, name string) (int64, error) {
	raw, err := m.GetValue(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := cast.ToInt64E(raw)
	if err != nil {
		return 0, conversionError(name, raw, "int64", err)
	}
	return v, nil
}

func (m *Manager) GetFloat64(ctx context.Context, name string) (float64, error) {
	raw, err := m.GetValue(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, conversionError(name, raw, "float64", err)
	}
	return v, nil
}

func (m *Manager) GetDuration(ctx context.Context, name string) (time.Duration, error) {
	raw, err := m.GetValue(ctx, name)
	if err != nil {
		return 0, err
	}
	v, err := cast.ToDurationE(raw)
	if err != nil {
		return 0, conversionError(name, raw, "duration", err)
	}
	return v, nil
}

func conversionError(name, raw, kind string, err error) error {
	return fmt.Errorf("setting %q: cannot convert %q to %s: %w: %w", name, raw, kind, ErrTypeConversion, err)
}
