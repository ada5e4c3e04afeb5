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

// Package fetch orchestrates the remote queries for one feature on one
// device: it runs the parser's command plan against the session, applies
// the timeout and retry policy, and hands the collected output to the
// parser.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/coppermesh/fabricheck/pkg/logger"
	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/parser"
	"github.com/coppermesh/fabricheck/pkg/session"
)

const (
	// DefaultCommandTimeout accommodates slow devices; large VLAN
	// membership dumps on loaded switches take minutes.
	DefaultCommandTimeout = 300 * time.Second

	// DefaultRetryAttempts is the number of retries after the first
	// attempt, applied to command timeouts only.
	DefaultRetryAttempts = 1

	// DefaultRetryBackoff separates a retry from the failed attempt.
	DefaultRetryBackoff = 2 * time.Second

	// maxPlanRounds bounds the plan/collect loop against a parser that
	// never returns an empty plan.
	maxPlanRounds = 8
)

var errPlanRunaway = errors.New("command plan did not terminate")

// Config carries the fetch policy knobs. RetryAttempts is taken as
// given (zero disables retries); the host config layer applies the
// documented default of one retry.
type Config struct {
	CommandTimeout time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

func (c Config) withDefaults() Config {
	if c.CommandTimeout == 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}

	if c.RetryAttempts < 0 {
		c.RetryAttempts = 0
	}

	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}

	return c
}

// Fetcher collects observed facts per feature. It is stateless across
// calls and safe to share between device units of work.
type Fetcher struct {
	registry *parser.Registry
	config   Config
	log      logger.Logger
}

func NewFetcher(registry *parser.Registry, config Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Fetcher{
		registry: registry,
		config:   config.withDefaults(),
		log:      log,
	}
}

// Fetch runs the feature's command plan against the session and parses
// the collected output. Errors carry the session/parser taxonomy so the
// caller can classify them per feature.
func (f *Fetcher) Fetch(ctx context.Context, sess session.Session, device *models.Device, feature models.Feature) ([]models.Observed, error) {
	p, err := f.registry.Get(device.Family, feature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", parser.ErrParse, err)
	}

	var outputs []session.RawOutput

	for round := 0; ; round++ {
		if round >= maxPlanRounds {
			return nil, fmt.Errorf("%w: %w: feature %s", parser.ErrParse, errPlanRunaway, feature)
		}

		cmds, err := p.Plan(outputs)
		if err != nil {
			return nil, err
		}

		if len(cmds) == 0 {
			break
		}

		// Commands run sequentially: later commands may depend on
		// earlier output.
		for _, cmd := range cmds {
			out, err := f.run(ctx, sess, device, cmd)
			if err != nil {
				return nil, err
			}

			outputs = append(outputs, out)
		}
	}

	facts, err := p.Parse(outputs)
	if err != nil {
		return nil, err
	}

	f.log.Debug().
		Str("device", device.Name).
		Str("feature", string(feature)).
		Int("commands", len(outputs)).
		Int("facts", len(facts)).
		Msg("fetch completed")

	return facts, nil
}

// run executes one command with the configured timeout budget, retrying
// timeouts only. Every attempt gets the full budget; connection and
// device errors surface immediately.
func (f *Fetcher) run(ctx context.Context, sess session.Session, device *models.Device, command string) (session.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return session.RawOutput{}, err
	}

	attempts := 0

	operation := func() (session.RawOutput, error) {
		attempts++

		cmdCtx, cancel := context.WithTimeout(ctx, f.config.CommandTimeout)
		defer cancel()

		out, err := sess.Run(cmdCtx, command)
		if err == nil {
			return out, nil
		}

		if errors.Is(err, session.ErrCommandTimeout) && ctx.Err() == nil {
			f.log.Warn().
				Str("device", device.Name).
				Str("command", command).
				Int("attempt", attempts).
				Msg("command timed out")

			return session.RawOutput{}, err
		}

		return session.RawOutput{}, backoff.Permanent(err)
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(f.config.RetryBackoff)),
		backoff.WithMaxTries(uint(f.config.RetryAttempts)+1),
	)
	if err != nil {
		if ctx.Err() != nil {
			return session.RawOutput{}, ctx.Err()
		}

		return session.RawOutput{}, fmt.Errorf("command %q on %s: %w", command, device.Name, err)
	}

	return out, nil
}
