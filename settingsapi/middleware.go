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

package settingsapi

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/cardinalhq/tenantsettings/settings"
)

const (
	apiKeyHeader   = "x-cardinalhq-api-key"
	tenantIDHeader = "x-scope-tenant-id"
	userIDHeader   = "x-scope-user-id"
)

// apiKeyMiddleware validates the API key header and attaches the caller
// session, built from the scope headers, to the request context.
func (s *Service) apiKeyMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			http.Error(w, "missing "+apiKeyHeader+" header", http.StatusUnauthorized)
			return
		}

		if _, err := s.apiKeyProvider.ValidateAPIKey(r.Context(), key); err != nil {
			slog.Error("API key validation failed", slog.Any("error", err))
			http.Error(w, "invalid API key", http.StatusUnauthorized)
			return
		}

		session, err := sessionFromHeaders(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		next(w, r.WithContext(settings.WithSession(r.Context(), session)))
	}
}

func sessionFromHeaders(r *http.Request) (settings.Session, error) {
	var session settings.Session
	if v := r.Header.Get(tenantIDHeader); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return settings.Session{}, &badHeaderError{header: tenantIDHeader}
		}
		session.TenantID = &id
	}
	if v := r.Header.Get(userIDHeader); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return settings.Session{}, &badHeaderError{header: userIDHeader}
		}
		session.UserID = &id
	}
	return session, nil
}

type badHeaderError struct {
	header string
}

func (e *badHeaderError) Error() string {
	return "invalid " + e.header + " header"
}
