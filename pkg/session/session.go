/*
 * Copyright 2026 Coppermesh Labs.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package session defines the device session adapter: how fabricheck runs
// read-only commands against a device and gets raw output back. Two
// transports are provided, JSON-RPC over HTTP and SSH exec.
package session

import (
	"context"

	"github.com/coppermesh/fabricheck/pkg/models"
)

// RawOutput is the raw response to one device command.
type RawOutput struct {
	Command string
	Payload []byte
}

// Credentials carry the read-only login for a device. They are resolved by
// the host and opaque to everything below the session layer.
type Credentials struct {
	Username string
	Password string
}

// Session is an established management connection to one device. A session
// is exclusively owned by that device's unit of work; implementations are
// not required to be safe for concurrent Run calls.
type Session interface {
	// Run executes one read-only command and returns its raw output.
	// Command timeouts surface as ErrCommandTimeout.
	Run(ctx context.Context, command string) (RawOutput, error)

	// Close releases the session. It must be called on every exit path.
	Close() error
}

// Dialer establishes sessions. Establishment failures surface as
// ErrConnect.
type Dialer interface {
	Open(ctx context.Context, device *models.Device, creds Credentials) (Session, error)
}
