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

	"github.com/cardinalhq/tenantsettings/settingdb"
)

// Store is the persistence boundary the Manager requires. settingdb.Store
// satisfies it; tests substitute an in-memory implementation.
type Store interface {
	settingdb.Querier

	// ExecTx runs fn inside a single database transaction. The Querier
	// passed to fn operates on the transaction; the whole write is applied
	// or none of it is.
	ExecTx(ctx context.Context, fn func(settingdb.Querier) error) error
}

// Value is a resolved setting value, independent of the scope that produced
// it.
type Value struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
