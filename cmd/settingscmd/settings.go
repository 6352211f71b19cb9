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

// Package settingscmd provides CLI commands for inspecting and changing
// stored settings directly against the database.
package settingscmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/tenantsettings/config"
	"github.com/cardinalhq/tenantsettings/settingdb"
	"github.com/cardinalhq/tenantsettings/settings"
)

var (
	tenantIDFlag string
	userIDFlag   string
)

// GetSettingsCmd provides commands for managing stored settings.
func GetSettingsCmd() *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage layered settings",
	}

	settingsCmd.PersistentFlags().StringVar(&tenantIDFlag, "tenant-id", "", "Tenant UUID selecting the tenant scope")
	settingsCmd.PersistentFlags().StringVar(&userIDFlag, "user-id", "", "User UUID selecting the user scope")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List resolved setting values",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runSettingsList()
		},
	}
	settingsCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Resolve a single setting value",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSettingsGet(args[0])
		},
	}
	settingsCmd.AddCommand(getCmd)

	setCmd := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a setting override",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSettingsSet(args[0], args[1])
		},
	}
	settingsCmd.AddCommand(setCmd)

	unsetCmd := &cobra.Command{
		Use:   "unset <name>",
		Short: "Remove a setting override, restoring inheritance",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSettingsUnset(args[0])
		},
	}
	settingsCmd.AddCommand(unsetCmd)

	return settingsCmd
}

// scopeIDs parses the scope flags. Both set at once is rejected so the
// selected scope is unambiguous.
func scopeIDs() (tenantID, userID *uuid.UUID, err error) {
	if tenantIDFlag != "" {
		id, perr := uuid.Parse(tenantIDFlag)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid tenant ID: %w", perr)
		}
		tenantID = &id
	}
	if userIDFlag != "" {
		id, perr := uuid.Parse(userIDFlag)
		if perr != nil {
			return nil, nil, fmt.Errorf("invalid user ID: %w", perr)
		}
		userID = &id
	}
	return tenantID, userID, nil
}

func newManager(ctx context.Context) (*settings.Manager, *settingdb.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := settings.LoadRegistryFromFile(cfg.Settings.DefinitionsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load setting definitions: %w", err)
	}

	store, err := settingdb.SettingDBStoreForAdmin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to settingdb: %w", err)
	}

	return settings.NewManager(registry, store), store, nil
}

func runSettingsList() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tenantID, userID, err := scopeIDs()
	if err != nil {
		return err
	}

	manager, store, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx = settings.WithSession(ctx, settings.Session{TenantID: tenantID, UserID: userID})
	values, err := manager.GetAllValues(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve settings: %w", err)
	}

	if len(values) == 0 {
		fmt.Println("No settings declared")
		return nil
	}

	printValuesTable(values)
	return nil
}

func runSettingsGet(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tenantID, userID, err := scopeIDs()
	if err != nil {
		return err
	}

	manager, store, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx = settings.WithSession(ctx, settings.Session{TenantID: tenantID, UserID: userID})
	value, err := manager.GetValue(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to resolve setting: %w", err)
	}

	fmt.Println(value)
	return nil
}

func runSettingsSet(name, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tenantID, userID, err := scopeIDs()
	if err != nil {
		return err
	}
	if tenantID != nil && userID != nil {
		return fmt.Errorf("at most one of --tenant-id and --user-id may be given")
	}

	manager, store, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case userID != nil:
		err = manager.ChangeForUser(ctx, *userID, name, value)
	case tenantID != nil:
		err = manager.ChangeForTenant(ctx, *tenantID, name, value)
	default:
		err = manager.ChangeForApplication(ctx, name, value)
	}
	if err != nil {
		return fmt.Errorf("failed to change setting: %w", err)
	}

	fmt.Printf("Set %s = %s\n", name, value)
	return nil
}

func runSettingsUnset(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tenantID, userID, err := scopeIDs()
	if err != nil {
		return err
	}
	if tenantID != nil && userID != nil {
		return fmt.Errorf("at most one of --tenant-id and --user-id may be given")
	}

	manager, store, err := newManager(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case userID != nil:
		err = manager.ResetForUser(ctx, *userID, name)
	case tenantID != nil:
		err = manager.ResetForTenant(ctx, *tenantID, name)
	default:
		err = manager.ResetForApplication(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("failed to reset setting: %w", err)
	}

	fmt.Printf("Unset %s\n", name)
	return nil
}

func printValuesTable(values []settings.Value) {
	headers := []string{"Name", "Value"}
	widths := []int{len(headers[0]), len(headers[1])}

	for _, v := range values {
		if l := len(v.Name); l > widths[0] {
			widths[0] = l
		}
		if l := len(v.Value); l > widths[1] {
			widths[1] = l
		}
	}

	fmt.Print("┌")
	for i, w := range widths {
		if i > 0 {
			fmt.Print("┬")
		}
		fmt.Print(strings.Repeat("─", w+2))
	}
	fmt.Println("┐")

	fmt.Printf("│ %-*s │ %-*s │\n",
		widths[0], headers[0],
		widths[1], headers[1],
	)

	fmt.Print("├")
	for i, w := range widths {
		if i > 0 {
			fmt.Print("┼")
		}
		fmt.Print(strings.Repeat("─", w+2))
	}
	fmt.Println("┤")

	for _, v := range values {
		fmt.Printf("│ %-*s │ %-*s │\n",
			widths[0], v.Name,
			widths[1], v.Value,
		)
	}

	fmt.Print("└")
	for i, w := range widths {
		if i > 0 {
			fmt.Print("┴")
		}
		fmt.Print(strings.Repeat("─", w+2))
	}
	fmt.Println("┘")
}
