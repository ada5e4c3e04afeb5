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

// Package checkup schedules check runs: many devices concurrently under
// a bounded limit, each device's features sequentially over its single
// multiplexed session.
package checkup

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/coppermesh/fabricheck/pkg/design"
	"github.com/coppermesh/fabricheck/pkg/fetch"
	"github.com/coppermesh/fabricheck/pkg/logger"
	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/parser"
	"github.com/coppermesh/fabricheck/pkg/reconcile"
	"github.com/coppermesh/fabricheck/pkg/report"
	"github.com/coppermesh/fabricheck/pkg/session"
)

// DefaultConcurrency bounds simultaneous device sessions.
const DefaultConcurrency = 8

// Runner composes the check pipeline. The host constructs it explicitly;
// nothing registers itself.
type Runner struct {
	dialer      session.Dialer
	provider    design.Provider
	fetcher     *fetch.Fetcher
	creds       session.Credentials
	concurrency int
	log         logger.Logger
}

// Options tune the runner beyond its collaborators.
type Options struct {
	// Credentials are the read-only device login, resolved by the host.
	Credentials session.Credentials

	// Concurrency bounds devices checked in parallel; zero means
	// DefaultConcurrency.
	Concurrency int

	Logger logger.Logger
}

func NewRunner(dialer session.Dialer, provider design.Provider, fetcher *fetch.Fetcher, opts Options) *Runner {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Runner{
		dialer:      dialer,
		provider:    provider,
		fetcher:     fetcher,
		creds:       opts.Credentials,
		concurrency: concurrency,
		log:         log,
	}
}

// Run checks every device and returns the run report. Device and feature
// failures land in the report, never as a returned error; the only error
// paths are caller cancellation, and even then the completed device
// reports are returned alongside it.
func (r *Runner) Run(ctx context.Context, devices []*models.Device) (*models.RunReport, error) {
	run := report.NewRun(len(devices))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)

	for i, device := range devices {
		g.Go(func() error {
			run.Set(i, r.checkDevice(ctx, device, run.ID()))
			return nil
		})
	}

	// Device failures never propagate through the group, so Wait only
	// gates completion.
	_ = g.Wait()

	return run.Finalize(), ctx.Err()
}

// checkDevice runs one device's declared features over one session.
func (r *Runner) checkDevice(ctx context.Context, device *models.Device, runID string) *models.DeviceReport {
	agg := report.NewAggregator(device, runID)

	log := r.log.WithComponent("checkup")

	if err := ctx.Err(); err != nil {
		r.failAll(agg, device, models.ErrClassCancelled, err)
		return agg.Finalize()
	}

	sess, err := r.dialer.Open(ctx, device, r.creds)
	if err != nil {
		class := classify(err)

		log.Error().Err(err).Str("device", device.Name).Msg("session open failed")
		r.failAll(agg, device, class, err)

		return agg.Finalize()
	}

	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("device", device.Name).Msg("session close failed")
		}
	}()

	// One command cache per device run; overlapping feature command
	// sets hit the device once.
	sess = session.WithCache(sess)

	// Features run sequentially: the session is a single multiplexed
	// channel and command order matters.
	for _, feature := range device.Features {
		r.checkFeature(ctx, sess, device, feature, agg)
	}

	return agg.Finalize()
}

func (r *Runner) checkFeature(ctx context.Context, sess session.Session, device *models.Device, feature models.Feature, agg *report.Aggregator) {
	if err := ctx.Err(); err != nil {
		agg.Fail(feature, models.ErrClassCancelled, err)
		return
	}

	expected, err := r.provider.Expected(ctx, device.Name, feature)
	if err != nil {
		agg.Fail(feature, models.ErrClassDesign, err)
		return
	}

	observed, err := r.fetcher.Fetch(ctx, sess, device, feature)
	if err != nil {
		agg.Fail(feature, classify(err), err)
		return
	}

	items := reconcile.Reconcile(expected, observed, reconcile.DefaultPolicy(feature))
	agg.Feature(feature, items)
}

func (r *Runner) failAll(agg *report.Aggregator, device *models.Device, class models.ErrClass, err error) {
	for _, feature := range device.Features {
		agg.Fail(feature, class, err)
	}
}

// classify maps pipeline errors onto the report error taxonomy.
func classify(err error) models.ErrClass {
	switch {
	// A command timeout wraps context.DeadlineExceeded, so the session
	// taxonomy is matched before the bare context errors.
	case errors.Is(err, session.ErrCommandTimeout):
		return models.ErrClassTimeout
	case errors.Is(err, session.ErrConnect):
		return models.ErrClassConnect
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.ErrClassCancelled
	case errors.Is(err, parser.ErrParse), errors.Is(err, parser.ErrNoParser):
		return models.ErrClassParse
	case errors.Is(err, design.ErrNoDesign), errors.Is(err, design.ErrBadDesign):
		return models.ErrClassDesign
	default:
		return models.ErrClassInternal
	}
}
