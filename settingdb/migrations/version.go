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

package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/tenantsettings/migrations"
)

// CheckVersion verifies that the settingdb database is at the migration
// version the embedded files expect. The default mode waits for a lagging
// database to catch up; see migrations.CheckOption for alternatives.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, opts ...migrations.CheckOption) error {
	config := migrations.DefaultCheckOptions()
	for _, opt := range opts {
		opt(&config)
	}

	if config.Mode == migrations.CheckModeSkip {
		slog.Debug("Migration version checking disabled for settingdb")
		return nil
	}

	expectedVersion, err := extractLatestMigrationVersion(migrationFiles)
	if err != nil {
		return fmt.Errorf("failed to extract expected migration version: %w", err)
	}

	deadline := time.Now().Add(config.Timeout)
	ticker := time.NewTicker(config.RetryInterval)
	defer ticker.Stop()

	for {
		currentVersion, dirty, err := getCurrentMigrationVersion(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to get current migration version: %w", err)
		}

		if dirty && !config.AllowDirty {
			return errors.New("settingdb migration is in dirty state, please fix before proceeding")
		}
		if dirty {
			slog.Warn("settingdb migration is dirty but allowed to continue")
		}

		if currentVersion == expectedVersion {
			slog.Debug("Migration version check passed",
				slog.Uint64("version", uint64(currentVersion)))
			return nil
		}

		if currentVersion > expectedVersion {
			return fmt.Errorf("settingdb version %d is newer than expected version %d - you may need to update the application",
				currentVersion, expectedVersion)
		}

		if config.Mode == migrations.CheckModeWarn {
			slog.Warn("settingdb migration version mismatch",
				slog.Uint64("current_version", uint64(currentVersion)),
				slog.Uint64("expected_version", uint64(expectedVersion)))
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for settingdb migration to complete: current version %d, expected %d",
				currentVersion, expectedVersion)
		}

		slog.Info("Waiting for settingdb migrations to complete",
			slog.Uint64("current_version", uint64(currentVersion)),
			slog.Uint64("expected_version", uint64(expectedVersion)),
			slog.Duration("remaining_timeout", time.Until(deadline)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for settingdb migrations: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// extractLatestMigrationVersion extracts the highest migration version from
// the embedded migration files, named like "1756310000_initial.up.sql".
func extractLatestMigrationVersion(files embed.FS) (uint, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		parts := strings.SplitN(name, "_", 2)
		if len(parts) < 1 {
			continue
		}

		version, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			continue
		}

		if uint(version) > maxVersion {
			maxVersion = uint(version)
		}
	}

	if maxVersion == 0 {
		return 0, errors.New("no valid migration files found")
	}

	return maxVersion, nil
}

// getCurrentMigrationVersion reads the version row golang-migrate maintains.
// A missing table or empty row means nothing has been applied yet.
func getCurrentMigrationVersion(ctx context.Context, pool *pgxpool.Pool) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := pool.QueryRow(ctx, `SELECT version, dirty FROM `+migrationsTable+` LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" { // undefined_table
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint(version), dirty, nil
}
