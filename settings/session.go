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

package settings

import (
	"context"

	"github.com/google/uuid"
)

// Session identifies the caller a request is resolved for. Either id may be
// nil: a nil TenantID means no tenant is active and a nil UserID means no
// user is signed in.
type Session struct {
	TenantID *uuid.UUID
	UserID   *uuid.UUID
}

type sessionContextKey struct{}

var sessionKey = sessionContextKey{}

// WithSession returns a new context carrying the given session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the session from the context. If none is
// stored, it returns the zero Session (no tenant, no user).
func SessionFromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey).(Session); ok {
		return s
	}
	return Session{}
}
