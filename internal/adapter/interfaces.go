// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ENotebook Authors

// Package adapter provides transport-layer abstractions for communicating with
// the central ENotebook server.
//
// The primary abstraction is [ServerAdapter], which decouples the sync
// pipeline from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic
// error handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/enotebook/eln-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/server_adapter_mock.go -package=mock

// ServerAdapter defines transport-agnostic communication with the ENotebook
// server. Implementations are responsible for serialisation, identity header
// management, and mapping transport-level errors to the sentinel values
// defined in this package.
type ServerAdapter interface {
	// SetIdentity stores the user and device identifiers attached to every
	// subsequent request as x-user-id and x-device-id headers.
	SetIdentity(userID, deviceID string)

	// Push transmits locally originated changes grouped by entity type in a
	// single request. Returns the decoded server verdict: applied ids plus
	// any version conflicts. Returns an error if the request fails or the
	// server responds with a non-2xx status; the whole batch must then be
	// treated as not delivered.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull fetches server-side records changed since q.Since, scoped by the
	// selective-sync constraints embedded in q. Returns collections grouped
	// by plural entity-type key.
	Pull(ctx context.Context, q models.PullQuery) (models.PullResponse, error)

	// Health probes the server health endpoint. A nil return means the
	// server answered with a 2xx status; any other status, timeout or
	// network error yields a non-nil error.
	Health(ctx context.Context) error
}
