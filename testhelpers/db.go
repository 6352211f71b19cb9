//go:build integration

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

package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/tenantsettings/settingdb"
	settingdbmigrations "github.com/cardinalhq/tenantsettings/settingdb/migrations"
)

// SetupTestSettingDB creates a clean test settings database with migrations
// applied. Returns a connection pool and registers cleanup with t.Cleanup.
func SetupTestSettingDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dbName := fmt.Sprintf("test_settingdb_%d_%d", time.Now().Unix(), rand.Intn(10000))

	// Get connection details from environment
	host := getEnvOrDefault("SETTINGDB_HOST", "localhost")
	port := getEnvOrDefault("SETTINGDB_PORT", "5432")
	user := getEnvOrDefault("SETTINGDB_USER", os.Getenv("USER"))
	baseDB := getEnvOrDefault("SETTINGDB_DBNAME", "testing_settingdb")

	// Connect to base database to create test database
	password := os.Getenv("SETTINGDB_PASSWORD")
	var baseConnStr string
	if password != "" {
		baseConnStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, baseDB)
	} else {
		baseConnStr = fmt.Sprintf("postgresql://%s@%s:%s/%s", user, host, port, baseDB)
	}
	basePool, err := pgxpool.New(ctx, baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to base database: %v", err)
	}

	// Create test database
	_, err = basePool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName))
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	// Connect to test database
	var testConnStr string
	if password != "" {
		testConnStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbName)
	} else {
		testConnStr = fmt.Sprintf("postgresql://%s@%s:%s/%s", user, host, port, dbName)
	}
	testPool, err := pgxpool.New(ctx, testConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Run migrations
	err = settingdbmigrations.RunMigrationsUp(ctx, testPool)
	if err != nil {
		testPool.Close()
		t.Fatalf("Failed to run settingdb migrations: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		testPool.Close()

		// Drop test database
		_, err := basePool.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName))
		if err != nil {
			slog.Error("Failed to drop test database", slog.String("dbName", dbName), slog.Any("error", err))
		}

		// Close base pool after cleanup
		basePool.Close()
	})

	return testPool
}

// NewTestSettingStore creates a settingdb.Store over a fresh test database.
func NewTestSettingStore(t *testing.T) *settingdb.Store {
	t.Helper()
	pool := SetupTestSettingDB(t)
	return settingdb.NewStore(pool)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
