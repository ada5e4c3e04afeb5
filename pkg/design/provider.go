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

// Package design provides the expected-state side of a check run: the
// intended facts for each device and feature, as recorded in a design
// repository.
package design

import (
	"context"
	"errors"

	"github.com/coppermesh/fabricheck/pkg/models"
)

var (
	// ErrNoDesign marks a device with no design record.
	ErrNoDesign = errors.New("no design found for device")

	// ErrBadDesign marks a design record that cannot be decoded.
	ErrBadDesign = errors.New("malformed design")
)

// Provider hands out intended design facts. Implementations must be safe
// for concurrent read access; a provider is shared by every device unit of
// work in a run.
type Provider interface {
	Expected(ctx context.Context, deviceName string, feature models.Feature) ([]models.Fact, error)
}
