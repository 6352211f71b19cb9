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

	"github.com/spf13/cobra"

	"github.com/cardinalhq/tenantsettings/config"
	"github.com/cardinalhq/tenantsettings/internal/apikey"
	"github.com/cardinalhq/tenantsettings/settingdb"
	"github.com/cardinalhq/tenantsettings/settings"
	"github.com/cardinalhq/tenantsettings/settingsapi"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the settings API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			doneCtx, cancel := handleSignals(context.Background())
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			registry, err := settings.LoadRegistryFromFile(cfg.Settings.DefinitionsFile)
			if err != nil {
				return fmt.Errorf("failed to load setting definitions: %w", err)
			}

			store, err := settingdb.SettingDBStore(context.Background())
			if err != nil {
				slog.Error("Failed to connect to settings database", slog.Any("error", err))
				return fmt.Errorf("failed to connect to settings database: %w", err)
			}
			defer store.Close()

			manager := settings.NewManager(registry, store,
				settings.WithTenantCacheTTL(cfg.Settings.TenantCacheTTL),
				settings.WithUserCacheTTL(cfg.Settings.UserCacheTTL),
			)

			apiKeyProvider := apikey.NewDBProvider(store, cfg.API.APIKeyCacheTTL)
			defer apiKeyProvider.Close()

			svc := settingsapi.NewService(cfg.API.Addr, manager, registry, apiKeyProvider)
			return svc.Run(doneCtx)
		},
	}

	rootCmd.AddCommand(cmd)
}
