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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/tenantsettings/internal/dbopen"
	"github.com/cardinalhq/tenantsettings/migrations"
	settingdbmigrations "github.com/cardinalhq/tenantsettings/settingdb/migrations"
)

// ConnectToSettingDB opens a connection pool to the settings database using
// SETTINGDB_* environment variables and verifies the schema version.
func ConnectToSettingDB(ctx context.Context, opts ...dbopen.Options) (*pgxpool.Pool, error) {
	connectionString, err := dbopen.GetDatabaseURLFromEnv("SETTINGDB")
	if err != nil {
		return nil, errors.Join(dbopen.ErrDatabaseNotConfigured, fmt.Errorf("failed to get SETTINGDB connection string: %w", err))
	}

	pool, err := NewConnectionPool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	var migrationCheckOptions []migrations.CheckOption
	if len(opts) > 0 && len(opts[0].MigrationCheckOptions) > 0 {
		migrationCheckOptions = opts[0].MigrationCheckOptions
	}

	if err := settingdbmigrations.CheckVersion(ctx, pool, migrationCheckOptions...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("SETTINGDB migration version check failed: %w", err)
	}

	return pool, nil
}

// SettingDBStore connects to the settings database and returns a Store.
func SettingDBStore(ctx context.Context) (*Store, error) {
	pool, err := ConnectToSettingDB(ctx)
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}

// SettingDBStoreForAdmin connects with admin-friendly migration checking
// that warns and continues instead of failing on version mismatches.
func SettingDBStoreForAdmin(ctx context.Context) (*Store, error) {
	pool, err := ConnectToSettingDB(ctx, dbopen.WarnOnMigrationMismatch())
	if err != nil {
		return nil, err
	}
	return NewStore(pool), nil
}
