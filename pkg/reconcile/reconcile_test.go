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

package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coppermesh/fabricheck/pkg/models"
)

func neighbor(local, remote, remotePort string) *models.NeighborFact {
	return &models.NeighborFact{LocalPort: local, RemoteDevice: remote, RemotePort: remotePort}
}

func observe(facts ...models.Fact) []models.Observed {
	out := make([]models.Observed, len(facts))
	for i, f := range facts {
		out[i] = models.Observed{Fact: f, Source: models.Provenance{Command: "test"}}
	}

	return out
}

func vlan(id int, name string, ports ...string) *models.VlanFact {
	return &models.VlanFact{VlanID: id, Name: name, MemberPorts: ports}
}

func TestReconcileTopologyMatch(t *testing.T) {
	expected := []models.Fact{neighbor("Eth1", "sw2", "Eth3")}
	observed := observe(neighbor("Eth1", "sw2", "Eth3"))

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureTopology))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusPass, items[0].Status)
	assert.Empty(t, items[0].Diffs)
}

func TestReconcileTopologyMismatch(t *testing.T) {
	expected := []models.Fact{neighbor("Eth1", "sw2", "Eth3")}
	observed := observe(neighbor("Eth1", "sw2", "Eth4"))

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureTopology))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusFail, items[0].Status)

	require.Len(t, items[0].Diffs, 1)
	assert.Equal(t, "remote_port", items[0].Diffs[0].Field)
	assert.Equal(t, "Eth3", items[0].Diffs[0].Expected)
	assert.Equal(t, "Eth4", items[0].Diffs[0].Observed)
}

func TestReconcileVlanMissing(t *testing.T) {
	expected := []models.Fact{vlan(100, "Printers", "1:1")}

	items := Reconcile(expected, nil, DefaultPolicy(models.FeatureVlans))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusMissing, items[0].Status)
	assert.Equal(t, "100", items[0].Key)
	assert.Nil(t, items[0].Observed)
}

func TestReconcileVlanExtra(t *testing.T) {
	expected := []models.Fact{vlan(100, "Printers", "1:1")}
	observed := observe(
		vlan(100, "Printers", "1:1"),
		vlan(200, "Rogue", "1:9"),
	)

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureVlans))
	require.Len(t, items, 2)

	assert.Equal(t, models.StatusPass, items[0].Status, "extra must not affect sibling items")
	assert.Equal(t, models.StatusExtra, items[1].Status)
	assert.Equal(t, "200", items[1].Key)
	assert.Nil(t, items[1].Expected)
}

func TestReconcileTopologySuppressesExtras(t *testing.T) {
	observed := observe(
		neighbor("Eth1", "sw2", "Eth3"),
		neighbor("Eth9", "sw9", "Eth1"),
	)

	items := Reconcile([]models.Fact{neighbor("Eth1", "sw2", "Eth3")}, observed, DefaultPolicy(models.FeatureTopology))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusPass, items[0].Status)
}

func TestReconcileEveryExpectedYieldsOneItem(t *testing.T) {
	expected := []models.Fact{
		vlan(100, "a"),
		vlan(200, "b"),
		vlan(300, "c"),
		vlan(200, "b-duplicate"),
	}
	observed := observe(vlan(200, "b"))

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureVlans))
	require.Len(t, items, 4, "one item per expected fact, duplicates included")

	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Key]++
	}

	assert.Equal(t, 1, counts["100"])
	assert.Equal(t, 2, counts["200"])
	assert.Equal(t, 1, counts["300"])

	assert.Equal(t, models.StatusFail, items[3].Status, "duplicate expected key fails")
	require.Len(t, items[3].Diffs, 1)
	assert.Equal(t, "key", items[3].Diffs[0].Field)
}

func TestReconcileDuplicateObservedDropped(t *testing.T) {
	expected := []models.Fact{vlan(100, "Printers")}
	observed := observe(
		vlan(100, "Printers"),
		vlan(100, "Shadow"),
	)

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureVlans))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusPass, items[0].Status, "first observed occurrence wins")
}

func TestReconcileIdempotence(t *testing.T) {
	expected := []models.Fact{
		neighbor("Eth1", "sw2", "Eth3"),
		neighbor("Eth2", "sw3", "Eth1"),
		neighbor("Eth3", "sw4", "Eth7"),
	}
	observed := observe(
		neighbor("Eth2", "sw3", "Eth2"),
		neighbor("Eth1", "sw2", "Eth3"),
		neighbor("Eth4", "sw5", "Eth1"),
	)

	policy := Policy{ReportExtras: true}

	first := Reconcile(expected, observed, policy)
	second := Reconcile(expected, observed, policy)

	require.Equal(t, first, second)
	assert.Equal(t, fmt.Sprintf("%#v", first), fmt.Sprintf("%#v", second),
		"identical inputs must yield byte-identical item sequences")
}

func TestReconcileExtraMissingSymmetry(t *testing.T) {
	a := []models.Fact{vlan(100, "x"), vlan(200, "y")}
	b := []models.Fact{vlan(200, "y"), vlan(300, "z")}

	policy := Policy{ReportExtras: true}

	forward := Reconcile(a, observe(b...), policy)
	backward := Reconcile(b, observe(a...), policy)

	extras := func(items []models.CheckItem) map[string]struct{} {
		set := make(map[string]struct{})
		for _, item := range items {
			if item.Status == models.StatusExtra {
				set[item.Key] = struct{}{}
			}
		}

		return set
	}

	missing := func(items []models.CheckItem) map[string]struct{} {
		set := make(map[string]struct{})
		for _, item := range items {
			if item.Status == models.StatusMissing {
				set[item.Key] = struct{}{}
			}
		}

		return set
	}

	assert.Equal(t, extras(forward), missing(backward))
	assert.Equal(t, missing(forward), extras(backward))
}

func TestReconcileInformationalExpected(t *testing.T) {
	expected := []models.Fact{
		&models.InterfaceFact{Port: "1:9", Reserved: true},
	}
	observed := observe(&models.InterfaceFact{Port: "1:9", Used: true, OperUp: true})

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureInterfaces))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusInfo, items[0].Status)
	assert.Empty(t, items[0].Diffs, "reserved interfaces are reported, not evaluated")
}

func TestReconcileWarnAndSkipStatuses(t *testing.T) {
	t.Run("desc mismatch warns", func(t *testing.T) {
		expected := []models.Fact{
			&models.InterfaceFact{Port: "1:1", Used: true, OperUp: true, Desc: "uplink", SpeedMbps: 10000},
		}
		observed := observe(
			&models.InterfaceFact{Port: "1:1", Used: true, OperUp: true, Desc: "old label", SpeedMbps: 10000},
		)

		items := Reconcile(expected, observed, DefaultPolicy(models.FeatureInterfaces))
		require.Len(t, items, 1)
		assert.Equal(t, models.StatusWarn, items[0].Status)
	})

	t.Run("speed on down port skips", func(t *testing.T) {
		expected := []models.Fact{
			&models.InterfaceFact{Port: "1:1", Used: true, OperUp: false, SpeedMbps: 10000},
		}
		observed := observe(
			&models.InterfaceFact{Port: "1:1", Used: true, OperUp: false, SpeedMbps: 0},
		)

		items := Reconcile(expected, observed, DefaultPolicy(models.FeatureInterfaces))
		require.Len(t, items, 1)
		assert.Equal(t, models.StatusSkip, items[0].Status)
	})

	t.Run("fail dominates warn", func(t *testing.T) {
		expected := []models.Fact{
			&models.InterfaceFact{Port: "1:1", Used: true, OperUp: true, Desc: "uplink", SpeedMbps: 10000},
		}
		observed := observe(
			&models.InterfaceFact{Port: "1:1", Used: false, OperUp: true, Desc: "other", SpeedMbps: 10000},
		)

		items := Reconcile(expected, observed, DefaultPolicy(models.FeatureInterfaces))
		require.Len(t, items, 1)
		assert.Equal(t, models.StatusFail, items[0].Status)
	})
}

func TestReconcileKeyNormalization(t *testing.T) {
	expected := []models.Fact{neighbor("Eth1", "sw2", "Eth3")}
	observed := observe(neighbor("ETH1", "SW2", "ETH3"))

	items := Reconcile(expected, observed, DefaultPolicy(models.FeatureTopology))
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusPass, items[0].Status, "port keys compare case-insensitively")
}
