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

// Package report aggregates per-feature check results into immutable
// device reports and run reports.
package report

import (
	"sync"
	"time"

	"github.com/coppermesh/fabricheck/pkg/models"
)

// Aggregator collects feature results for one device. Finalize publishes
// an immutable report with features in the device's declared order,
// independent of the order results arrived in.
type Aggregator struct {
	device  models.Device
	runID   string
	started time.Time

	mu      sync.Mutex
	results map[models.Feature]models.FeatureResult
}

func NewAggregator(device *models.Device, runID string) *Aggregator {
	return &Aggregator{
		device:  *device,
		runID:   runID,
		started: time.Now().UTC(),
		results: make(map[models.Feature]models.FeatureResult),
	}
}

// Feature records an evaluated result. The feature status is the worst
// item status; INFO and SKIP items never degrade it.
func (a *Aggregator) Feature(feature models.Feature, items []models.CheckItem) {
	status := models.StatusPass
	for i := range items {
		status = models.WorstStatus(status, items[i].Status)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.results[feature] = models.FeatureResult{
		Feature: feature,
		Status:  status,
		Items:   items,
	}
}

// Fail records a feature that could not be evaluated. A cancelled class
// yields CANCELLED; every other class yields ERROR. ERROR means "could
// not evaluate", never "evaluated and found wrong".
func (a *Aggregator) Fail(feature models.Feature, class models.ErrClass, err error) {
	status := models.StatusError
	if class == models.ErrClassCancelled {
		status = models.StatusCancelled
	}

	msg := ""
	if err != nil {
		msg = err.Error()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.results[feature] = models.FeatureResult{
		Feature:  feature,
		Status:   status,
		Err:      msg,
		ErrClass: class,
	}
}

// Finalize publishes the device report. Declared features that never
// reported are recorded as internal errors: a run accounts for every
// declared feature. The returned report owns copies of all recorded
// state; later Aggregator use cannot mutate it.
func (a *Aggregator) Finalize() *models.DeviceReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]models.FeatureResult, 0, len(a.device.Features))

	for _, feature := range a.device.Features {
		res, ok := a.results[feature]
		if !ok {
			results = append(results, models.FeatureResult{
				Feature:  feature,
				Status:   models.StatusError,
				Err:      "feature was never evaluated",
				ErrClass: models.ErrClassInternal,
			})

			continue
		}

		// copy-on-publish
		if len(res.Items) > 0 {
			items := make([]models.CheckItem, len(res.Items))
			copy(items, res.Items)
			res.Items = items
		}

		results = append(results, res)
	}

	device := a.device
	device.Features = append([]models.Feature(nil), a.device.Features...)

	return &models.DeviceReport{
		Device:    device,
		RunID:     a.runID,
		Started:   a.started,
		Completed: time.Now().UTC(),
		Results:   results,
	}
}
