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

package report

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coppermesh/fabricheck/pkg/models"
)

// Run collects device reports for one whole check run. Devices report
// concurrently; the finalized order matches the order slots were claimed
// in, not completion order.
type Run struct {
	id      string
	started time.Time

	mu      sync.Mutex
	reports []*models.DeviceReport
}

// NewRun starts a run with a fresh identifier and the given device count.
func NewRun(devices int) *Run {
	return &Run{
		id:      uuid.New().String(),
		started: time.Now().UTC(),
		reports: make([]*models.DeviceReport, devices),
	}
}

// ID is the run identifier stamped on every device report.
func (r *Run) ID() string { return r.id }

// Set stores the report for the device at the given slot.
func (r *Run) Set(slot int, report *models.DeviceReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reports[slot] = report
}

// Finalize publishes the run report. Unfilled slots are skipped; callers
// fill every slot on normal completion.
func (r *Run) Finalize() *models.RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports := make([]models.DeviceReport, 0, len(r.reports))

	for _, report := range r.reports {
		if report == nil {
			continue
		}

		reports = append(reports, *report)
	}

	return &models.RunReport{
		RunID:     r.id,
		Started:   r.started,
		Completed: time.Now().UTC(),
		Reports:   reports,
	}
}
