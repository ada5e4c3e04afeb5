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

package models

import "time"

// Status classifies one check item or one feature result.
//
// ERROR means the feature could not be evaluated; FAIL means it was
// evaluated and found wrong. Consumers must be able to tell the two apart.
type Status string

const (
	StatusPass      Status = "PASS"
	StatusFail      Status = "FAIL"
	StatusMissing   Status = "MISSING"
	StatusExtra     Status = "EXTRA"
	StatusWarn      Status = "WARN"
	StatusInfo      Status = "INFO"
	StatusSkip      Status = "SKIP"
	StatusError     Status = "ERROR"
	StatusCancelled Status = "CANCELLED"
)

// severity orders statuses from benign to fatal. INFO and SKIP never
// degrade an aggregate, so they rank below PASS.
func severity(s Status) int {
	switch s {
	case StatusInfo, StatusSkip:
		return 0
	case StatusPass:
		return 1
	case StatusWarn:
		return 2
	case StatusFail, StatusMissing, StatusExtra:
		return 3
	case StatusCancelled:
		return 4
	case StatusError:
		return 5
	default:
		return 5
	}
}

// WorstStatus returns the more severe of two statuses.
func WorstStatus(a, b Status) Status {
	if severity(b) > severity(a) {
		return b
	}

	return a
}

// Degrades reports whether s pulls an aggregate status down from PASS.
func (s Status) Degrades() bool {
	return severity(s) > severity(StatusPass)
}

// ErrClass names the failure class behind a feature-level ERROR.
type ErrClass string

const (
	ErrClassConnect   ErrClass = "connect"
	ErrClassTimeout   ErrClass = "timeout"
	ErrClassParse     ErrClass = "parse"
	ErrClassDesign    ErrClass = "design"
	ErrClassCancelled ErrClass = "cancelled"
	ErrClassInternal  ErrClass = "internal"
)

// CheckItem is one reconciled comparison: one expected fact matched, or
// not, against at most one observed fact.
type CheckItem struct {
	Feature  Feature     `json:"feature"`
	Key      string      `json:"key"`
	Label    string      `json:"label"`
	Status   Status      `json:"status"`
	Expected Fact        `json:"expected,omitempty"`
	Observed *Observed   `json:"observed,omitempty"`
	Diffs    []FieldDiff `json:"diffs,omitempty"`
}

// FeatureResult is the ordered item sequence for one feature on one
// device. Err and ErrClass are set only for ERROR and CANCELLED results.
type FeatureResult struct {
	Feature  Feature     `json:"feature"`
	Status   Status      `json:"status"`
	Items    []CheckItem `json:"items,omitempty"`
	Err      string      `json:"error,omitempty"`
	ErrClass ErrClass    `json:"error_class,omitempty"`
}

// DeviceReport is the complete set of feature results for one device in
// one run. Feature order follows the device's declared feature list, not
// completion order. A report is never mutated after publication.
type DeviceReport struct {
	Device    Device          `json:"device"`
	RunID     string          `json:"run_id"`
	Started   time.Time       `json:"started"`
	Completed time.Time       `json:"completed"`
	Results   []FeatureResult `json:"results"`
}

// Status derives the device-level status: the worst feature status.
func (r *DeviceReport) Status() Status {
	status := StatusPass
	for i := range r.Results {
		status = WorstStatus(status, r.Results[i].Status)
	}

	return status
}

// Result returns the result for one feature, or nil when the feature was
// not part of the run.
func (r *DeviceReport) Result(feature Feature) *FeatureResult {
	for i := range r.Results {
		if r.Results[i].Feature == feature {
			return &r.Results[i]
		}
	}

	return nil
}

// RunReport collects the device reports of one whole run.
type RunReport struct {
	RunID     string         `json:"run_id"`
	Started   time.Time      `json:"started"`
	Completed time.Time      `json:"completed"`
	Reports   []DeviceReport `json:"reports"`
}

// Summary counts check items by status across the whole run. Feature-level
// ERROR and CANCELLED results count once each, since they carry no items.
type Summary struct {
	Devices  int            `json:"devices"`
	Features int            `json:"features"`
	ByStatus map[Status]int `json:"by_status"`
}

// Summarize tallies the run for downstream gating and rendering.
func (r *RunReport) Summarize() Summary {
	s := Summary{
		Devices:  len(r.Reports),
		ByStatus: make(map[Status]int),
	}

	for i := range r.Reports {
		for j := range r.Reports[i].Results {
			res := &r.Reports[i].Results[j]
			s.Features++

			if len(res.Items) == 0 && res.Status.Degrades() {
				s.ByStatus[res.Status]++
				continue
			}

			for k := range res.Items {
				s.ByStatus[res.Items[k].Status]++
			}
		}
	}

	return s
}

// Status derives the run-level status: the worst device status. Intended
// for CI gating.
func (r *RunReport) Status() Status {
	status := StatusPass
	for i := range r.Reports {
		status = WorstStatus(status, r.Reports[i].Status())
	}

	return status
}
