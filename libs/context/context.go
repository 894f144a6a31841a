// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package context

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const traceIDKey contextKey = "trace-id"

var ErrTraceIDNotFound = errors.New("no trace ID found in context")

// WithTraceID returns a context with the given trace ID set.
func WithTraceID(ctx context.Context, tID string) context.Context {
	return context.WithValue(ctx, traceIDKey, tID)
}

// TraceIDFromContext returns the trace ID from the context, assigning a
// fresh one if the context does not carry any. The context holding the
// ID is returned alongside, so callers keep propagating the same ID.
func TraceIDFromContext(ctx context.Context) (context.Context, string) {
	tID := ctx.Value(traceIDKey)
	if tID == nil {
		stID := uuid.NewString()
		ctx = WithTraceID(ctx, stID)
		return ctx, stID
	}
	stID, ok := tID.(string)
	if !ok {
		stID = uuid.NewString()
		ctx = WithTraceID(ctx, stID)
	}
	return ctx, stID
}
