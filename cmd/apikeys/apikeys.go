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

// Package apikeys provides CLI commands for managing API keys.
package apikeys

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/tenantsettings/internal/apikey"
	"github.com/cardinalhq/tenantsettings/settingdb"
)

var createDescription string

// GetAPIKeysCmd provides commands for managing API keys.
func GetAPIKeysCmd() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "apikeys",
		Short: "Manage API keys",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runAPIKeysList()
		},
	}
	keysCmd.AddCommand(listCmd)

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runAPIKeysCreate(args[0], createDescription)
		},
	}
	createCmd.Flags().StringVar(&createDescription, "description", "", "Description for the API key")
	keysCmd.AddCommand(createCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <api-key-id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runAPIKeysDelete(args[0])
		},
	}
	keysCmd.AddCommand(deleteCmd)

	return keysCmd
}

func runAPIKeysList() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := settingdb.SettingDBStoreForAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to settingdb: %w", err)
	}
	defer store.Close()

	keys, err := store.ListApiKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to list API keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("No API keys found")
		return nil
	}

	printAPIKeysTable(keys)
	return nil
}

func runAPIKeysCreate(name, description string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := settingdb.SettingDBStoreForAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to settingdb: %w", err)
	}
	defer store.Close()

	apiKeyValue, err := generateAPIKey()
	if err != nil {
		return fmt.Errorf("failed to generate API key: %w", err)
	}

	var descPtr *string
	if description != "" {
		descPtr = &description
	}

	row := settingdb.ApiKey{
		ID:          uuid.New(),
		KeyHash:     apikey.HashKey(apiKeyValue),
		Name:        name,
		Description: descPtr,
		Enabled:     true,
	}
	if err := store.CreateApiKey(ctx, row); err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}

	fmt.Printf("Created API key %s: %s\n", row.ID, apiKeyValue)
	return nil
}

func runAPIKeysDelete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := settingdb.SettingDBStoreForAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to settingdb: %w", err)
	}
	defer store.Close()

	apiKeyID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid API key ID: %w", err)
	}

	if err := store.DeleteApiKey(ctx, apiKeyID); err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}

	fmt.Printf("Deleted API key %s\n", id)
	return nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func printAPIKeysTable(keys []settingdb.ApiKey) {
	headers := []string{"ID", "Name", "Enabled"}
	widths := []int{len(headers[0]), len(headers[1]), len(headers[2])}

	for _, k := range keys {
		if l := len(k.ID.String()); l > widths[0] {
			widths[0] = l
		}
		if l := len(k.Name); l > widths[1] {
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

	fmt.Printf("│ %-*s │ %-*s │ %-*s │\n",
		widths[0], headers[0],
		widths[1], headers[1],
		widths[2], headers[2],
	)

	fmt.Print("├")
	for i, w := range widths {
		if i > 0 {
			fmt.Print("┼")
		}
		fmt.Print(strings.Repeat("─", w+2))
	}
	fmt.Println("┤")

	for _, k := range keys {
		fmt.Printf("│ %-*s │ %-*s │ %-*t │\n",
			widths[0], k.ID.String(),
			widths[1], k.Name,
			widths[2], k.Enabled,
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
