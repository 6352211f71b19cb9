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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/tenantsettings/internal/dbopen"
	"github.com/cardinalhq/tenantsettings/settingdb"
	settingdbmigrations "github.com/cardinalhq/tenantsettings/settingdb/migrations"
)

func init() {
	rootCmd.AddCommand(MigrateCmd)
}

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  "Run database migrations on the settings database",
	RunE:  migrate,
}

func migrate(_ *cobra.Command, _ []string) error {
	slog.Info("Running settingdb migrations")
	if err := migratesettingdb(); err != nil {
		return fmt.Errorf("failed to migrate settingdb: %w", err)
	}
	slog.Info("settingdb migrations completed successfully")
	return nil
}

func migratesettingdb() error {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(5*time.Minute))
	defer cancel()
	pool, err := settingdb.ConnectToSettingDB(ctx, dbopen.SkipMigrationCheck())
	if err != nil {
		return err
	}
	return settingdbmigrations.RunMigrationsUp(context.Background(), pool)
}
