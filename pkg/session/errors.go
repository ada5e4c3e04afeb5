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

package session

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrConnect marks session establishment failures. Fatal for all
	// features of the device, never for sibling devices.
	ErrConnect = errors.New("session connect failed")

	// ErrCommandTimeout marks a single command exceeding its budget.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrSessionClosed is returned by Run after Close.
	ErrSessionClosed = errors.New("session closed")
)

// classifyRunErr maps transport errors from a command execution onto the
// session taxonomy. Caller cancellation is passed through untouched so the
// run loop can tell an abort from a slow device.
func classifyRunErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCommandTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrCommandTimeout, err)
	}

	return err
}
