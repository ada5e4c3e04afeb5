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

// Package parser defines the pluggable fact-parsing capability: turning
// raw device output into normalized observed facts, per device family and
// feature. The registry is populated explicitly by the host; there is no
// global registration.
package parser

import (
	"errors"
	"fmt"

	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/session"
)

var (
	// ErrParse marks output that does not match the declared grammar.
	// Parsers reject rather than guess.
	ErrParse = errors.New("unparseable device output")

	// ErrNoParser marks a (family, feature) pair with no registrant.
	ErrNoParser = errors.New("no parser registered")
)

// Parser owns both the command plan and the parsing for one feature on
// one device family.
//
// Plan is iterative: the first call (no prior output) returns the initial
// command set; later calls may derive follow-up commands from output
// gathered so far, and an empty plan ends collection. Parse must be a
// pure function of the collected outputs: deterministic, no I/O, total
// over the declared grammar.
type Parser interface {
	Plan(prior []session.RawOutput) ([]string, error)
	Parse(outputs []session.RawOutput) ([]models.Observed, error)
}

type registryKey struct {
	family  string
	feature models.Feature
}

// Registry stores parsers keyed by (device family, feature). Populate at
// composition time; lookups after that are read-only and safe to share.
type Registry struct {
	parsers map[registryKey]Parser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[registryKey]Parser)}
}

// Register adds a parser for a device family and feature, replacing any
// previous registrant for the pair.
func (r *Registry) Register(family string, feature models.Feature, p Parser) {
	r.parsers[registryKey{family: family, feature: feature}] = p
}

// Get returns the parser for the pair, or ErrNoParser.
func (r *Registry) Get(family string, feature models.Feature) (Parser, error) {
	p, ok := r.parsers[registryKey{family: family, feature: feature}]
	if !ok {
		return nil, fmt.Errorf("%w: family %q feature %q", ErrNoParser, family, feature)
	}

	return p, nil
}
