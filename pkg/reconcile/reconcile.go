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

// Package reconcile matches expected design facts against observed facts
// and classifies every pairing. It is deterministic: identical inputs
// yield identical item sequences, which keeps report diffs reproducible
// across runs.
package reconcile

import "github.com/coppermesh/fabricheck/pkg/models"

// Policy tunes reconciliation per feature.
type Policy struct {
	// ReportExtras emits EXTRA items for observed facts the design does
	// not mention.
	ReportExtras bool
}

// DefaultPolicy returns the shipped per-feature policy. Topology does not
// report extras: a neighbor on an undesigned port is not a cabling
// failure, the check walks designed ports only.
func DefaultPolicy(feature models.Feature) Policy {
	return Policy{ReportExtras: feature != models.FeatureTopology}
}

// Reconcile walks expected facts in input order, matching each against at
// most one observed fact by key: absent is MISSING, equal is PASS, a
// disagreement carries field diffs with the worst diff level as status.
// Observed facts no expected fact consumed follow in first-appearance
// order as EXTRA, when the policy reports them.
//
// Duplicate keys within one side: the first occurrence wins. A duplicate
// expected fact still yields its own item (FAIL, duplicate-key diff) so
// every expected fact appears in exactly one item; duplicate observed
// facts beyond the first are dropped.
func Reconcile(expected []models.Fact, observed []models.Observed, policy Policy) []models.CheckItem {
	obsByKey := make(map[string]*models.Observed, len(observed))
	obsOrder := make([]string, 0, len(observed))

	for i := range observed {
		key := observed[i].Key()
		if _, ok := obsByKey[key]; ok {
			continue
		}

		obsByKey[key] = &observed[i]
		obsOrder = append(obsOrder, key)
	}

	items := make([]models.CheckItem, 0, len(expected))
	consumed := make(map[string]struct{}, len(expected))
	expectedSeen := make(map[string]struct{}, len(expected))

	for _, exp := range expected {
		key := exp.Key()

		if _, dup := expectedSeen[key]; dup {
			items = append(items, models.CheckItem{
				Feature:  exp.Feature(),
				Key:      key,
				Label:    exp.Label(),
				Status:   models.StatusFail,
				Expected: exp,
				Diffs: []models.FieldDiff{{
					Field:    "key",
					Expected: "unique key " + key,
					Observed: "duplicate expected fact",
					Level:    models.DiffFail,
				}},
			})

			continue
		}

		expectedSeen[key] = struct{}{}

		obs, ok := obsByKey[key]
		if !ok {
			items = append(items, models.CheckItem{
				Feature:  exp.Feature(),
				Key:      key,
				Label:    exp.Label(),
				Status:   models.StatusMissing,
				Expected: exp,
			})

			continue
		}

		consumed[key] = struct{}{}

		items = append(items, matchedItem(exp, obs))
	}

	if policy.ReportExtras {
		for _, key := range obsOrder {
			if _, ok := consumed[key]; ok {
				continue
			}

			obs := obsByKey[key]
			items = append(items, models.CheckItem{
				Feature:  obs.Feature(),
				Key:      key,
				Label:    obs.Label(),
				Status:   models.StatusExtra,
				Observed: obs,
			})
		}
	}

	return items
}

// matchedItem classifies one expected/observed pair. An informational
// expected fact is reported without evaluation.
func matchedItem(exp models.Fact, obs *models.Observed) models.CheckItem {
	item := models.CheckItem{
		Feature:  exp.Feature(),
		Key:      exp.Key(),
		Label:    exp.Label(),
		Expected: exp,
		Observed: obs,
	}

	if info, ok := exp.(models.Informational); ok && info.Informational() {
		item.Status = models.StatusInfo
		return item
	}

	item.Diffs = exp.Compare(obs.Fact)
	item.Status = statusForDiffs(item.Diffs)

	return item
}

func statusForDiffs(diffs []models.FieldDiff) models.Status {
	if len(diffs) == 0 {
		return models.StatusPass
	}

	status := models.StatusSkip

	for _, d := range diffs {
		switch d.Level {
		case models.DiffFail:
			return models.StatusFail
		case models.DiffWarn:
			status = models.StatusWarn
		case models.DiffSkip:
			// lowest level, keep current
		}
	}

	return status
}
