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

package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates configuration for the application.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Settings SettingsConfig `mapstructure:"settings"`
}

// APIConfig configures the settings HTTP API.
type APIConfig struct {
	// Addr is the listen address for the HTTP server.
	Addr string `mapstructure:"addr"`

	// APIKeyCacheTTL bounds how long an API key validation result is reused.
	APIKeyCacheTTL time.Duration `mapstructure:"api_key_cache_ttl"`
}

// SettingsConfig configures setting resolution.
type SettingsConfig struct {
	// DefinitionsFile is the path to the YAML file declaring settings.
	DefinitionsFile string `mapstructure:"definitions_file"`

	// TenantCacheTTL bounds how long a tenant's override map is cached.
	TenantCacheTTL time.Duration `mapstructure:"tenant_cache_ttl"`

	// UserCacheTTL bounds how long a user's override map is cached.
	UserCacheTTL time.Duration `mapstructure:"user_cache_ttl"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Addr:           ":8080",
			APIKeyCacheTTL: 5 * time.Minute,
		},
		Settings: SettingsConfig{
			DefinitionsFile: "settings.yaml",
			TenantCacheTTL:  60 * time.Minute,
			UserCacheTTL:    20 * time.Minute,
		},
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "TENANTSETTINGS" and the dot character
// in keys is replaced by an underscore. For example, "api.addr" becomes
// "TENANTSETTINGS_API_ADDR".
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("TENANTSETTINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
