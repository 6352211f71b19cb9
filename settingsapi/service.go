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

// Package settingsapi exposes setting resolution and administration over HTTP.
package settingsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cardinalhq/tenantsettings/internal/apikey"
	"github.com/cardinalhq/tenantsettings/settings"
)

// Service serves the settings HTTP API.
type Service struct {
	addr           string
	manager        *settings.Manager
	registry       settings.Registry
	apiKeyProvider apikey.Provider
}

// NewService creates a settings API service listening on addr.
func NewService(addr string, manager *settings.Manager, registry settings.Registry, apiKeyProvider apikey.Provider) *Service {
	return &Service{
		addr:           addr,
		manager:        manager,
		registry:       registry,
		apiKeyProvider: apiKeyProvider,
	}
}

// Routes returns the request multiplexer for the service.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/settings/resolve", s.apiKeyMiddleware(s.handleResolve))
	mux.HandleFunc("GET /api/v1/settings", s.apiKeyMiddleware(s.handleListValues))
	mux.HandleFunc("GET /api/v1/settings/definitions", s.apiKeyMiddleware(s.handleListDefinitions))

	mux.HandleFunc("PUT /api/v1/settings/application", s.apiKeyMiddleware(s.handleChangeApplication))
	mux.HandleFunc("PUT /api/v1/settings/tenant", s.apiKeyMiddleware(s.handleChangeTenant))
	mux.HandleFunc("PUT /api/v1/settings/user", s.apiKeyMiddleware(s.handleChangeUser))

	mux.HandleFunc("DELETE /api/v1/settings/application", s.apiKeyMiddleware(s.handleResetApplication))
	mux.HandleFunc("DELETE /api/v1/settings/tenant", s.apiKeyMiddleware(s.handleResetTenant))
	mux.HandleFunc("DELETE /api/v1/settings/user", s.apiKeyMiddleware(s.handleResetUser))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// Run serves HTTP until doneCtx is cancelled, then shuts down gracefully.
func (s *Service) Run(doneCtx context.Context) error {
	slog.Info("Starting settings API service", slog.String("addr", s.addr))

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start HTTP server", slog.Any("error", err))
		}
	}()

	<-doneCtx.Done()

	slog.Info("Shutting down settings API service")
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("Failed to shutdown HTTP server", slog.Any("error", err))
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
