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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/cardinalhq/tenantsettings/settings"
)

type valueResponse struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type definitionResponse struct {
	Name         string `json:"name"`
	DefaultValue string `json:"default_value"`
	Scopes       string `json:"scopes"`
}

type changeRequest struct {
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	Name     string     `json:"name"`
	Value    string     `json:"value"`
}

// handleResolve resolves a single setting for the caller session.
func (s *Service) handleResolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}

	value, err := s.manager.GetValue(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, valueResponse{Name: name, Value: value})
}

// handleListValues lists every setting resolved for the caller session, or
// for an explicit scope when the scope parameter is present.
func (s *Service) handleListValues(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		values []settings.Value
		err    error
	)
	switch q.Get("scope") {
	case "":
		values, err = s.manager.GetAllValues(r.Context())
	case "application":
		values, err = s.manager.GetAllValuesForApplication(r.Context())
	case "tenant":
		tenantID, perr := uuid.Parse(q.Get("tenant_id"))
		if perr != nil {
			http.Error(w, "missing or invalid tenant_id parameter", http.StatusBadRequest)
			return
		}
		values, err = s.manager.GetAllValuesForTenant(r.Context(), tenantID)
	case "user":
		userID, perr := uuid.Parse(q.Get("user_id"))
		if perr != nil {
			http.Error(w, "missing or invalid user_id parameter", http.StatusBadRequest)
			return
		}
		values, err = s.manager.GetAllValuesForUser(r.Context(), userID)
	default:
		http.Error(w, "invalid scope parameter", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"settings": values})
}

// handleListDefinitions lists the declared setting definitions.
func (s *Service) handleListDefinitions(w http.ResponseWriter, _ *http.Request) {
	defs := s.registry.All()
	out := make([]definitionResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, definitionResponse{
			Name:         def.Name,
			DefaultValue: def.DefaultValue,
			Scopes:       def.Scopes.String(),
		})
	}
	writeJSON(w, map[string]any{"definitions": out})
}

func (s *Service) handleChangeApplication(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChange(w, r)
	if !ok {
		return
	}
	if err := s.manager.ChangeForApplication(r.Context(), req.Name, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleChangeTenant(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChange(w, r)
	if !ok {
		return
	}
	if req.TenantID == nil {
		http.Error(w, "missing tenant_id", http.StatusBadRequest)
		return
	}
	if err := s.manager.ChangeForTenant(r.Context(), *req.TenantID, req.Name, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleChangeUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChange(w, r)
	if !ok {
		return
	}
	if req.UserID == nil {
		http.Error(w, "missing user_id", http.StatusBadRequest)
		return
	}
	if err := s.manager.ChangeForUser(r.Context(), *req.UserID, req.Name, req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleResetApplication(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	if err := s.manager.ResetForApplication(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleResetTenant(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	tenantID, err := uuid.Parse(q.Get("tenant_id"))
	if err != nil {
		http.Error(w, "missing or invalid tenant_id parameter", http.StatusBadRequest)
		return
	}
	if err := s.manager.ResetForTenant(r.Context(), tenantID, name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleResetUser(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	userID, err := uuid.Parse(q.Get("user_id"))
	if err != nil {
		http.Error(w, "missing or invalid user_id parameter", http.StatusBadRequest)
		return
	}
	if err := s.manager.ResetForUser(r.Context(), userID, name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeChange(w http.ResponseWriter, r *http.Request) (changeRequest, bool) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return changeRequest{}, false
	}
	if req.Name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return changeRequest{}, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settings.ErrUndefinedSetting):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, settings.ErrInvalidScope):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("settings request failed", slog.Any("error", err))
		http.Error(w, "internal error: "+err.Error(), http.StatusInternalServerError)
	}
}
