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
	"sync"
)

// cachingSession serves repeated commands from a per-run cache so features
// with overlapping command needs issue the minimum remote query set.
// Failures are not cached; a retried command goes back to the device.
type cachingSession struct {
	inner Session

	mu    sync.Mutex
	cache map[string]RawOutput
}

// WithCache wraps a session with a per-run command cache. The cache lives
// as long as the session and is owned by one device unit of work.
func WithCache(inner Session) Session {
	return &cachingSession{
		inner: inner,
		cache: make(map[string]RawOutput),
	}
}

func (c *cachingSession) Run(ctx context.Context, command string) (RawOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if out, ok := c.cache[command]; ok {
		return out, nil
	}

	out, err := c.inner.Run(ctx, command)
	if err != nil {
		return RawOutput{}, err
	}

	c.cache[command] = out

	return out, nil
}

func (c *cachingSession) Close() error {
	return c.inner.Close()
}
