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

package design

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coppermesh/fabricheck/pkg/models"
)

const testDesign = `
topology:
  - port: "1:1"
    remote_device: sw2
    remote_port: "1:3"
  - port: "1:2"
    remote_device: sw3
    remote_port: "1:1"
vlans:
  - id: 100
    name: Printers
    ports: ["1:1", "1:2"]
switchports:
  - port: "1:1"
    mode: trunk
    untagged: 1
    tagged: [100, 200]
interfaces:
  - port: "1:1"
    used: true
    oper_up: true
    desc: uplink to sw2
    speed: 10000
  - port: "1:9"
    reserved: true
lags:
  - name: lag1
    enabled: true
    ports: ["1:1", "1:2"]
`

func writeDesign(t *testing.T, dir, device, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, device+".yaml"), []byte(content), 0o600))
}

func TestFileProviderExpected(t *testing.T) {
	dir := t.TempDir()
	writeDesign(t, dir, "sw1", testDesign)

	p := NewFileProvider(dir)
	ctx := context.Background()

	t.Run("topology preserves file order", func(t *testing.T) {
		facts, err := p.Expected(ctx, "sw1", models.FeatureTopology)
		require.NoError(t, err)
		require.Len(t, facts, 2)

		first, ok := facts[0].(*models.NeighborFact)
		require.True(t, ok)
		assert.Equal(t, "1:1", first.LocalPort)
		assert.Equal(t, "sw2", first.RemoteDevice)

		second, ok := facts[1].(*models.NeighborFact)
		require.True(t, ok)
		assert.Equal(t, "1:2", second.LocalPort)
	})

	t.Run("vlans", func(t *testing.T) {
		facts, err := p.Expected(ctx, "sw1", models.FeatureVlans)
		require.NoError(t, err)
		require.Len(t, facts, 1)

		vlan, ok := facts[0].(*models.VlanFact)
		require.True(t, ok)
		assert.Equal(t, 100, vlan.VlanID)
		assert.Equal(t, "Printers", vlan.Name)
		assert.Equal(t, []string{"1:1", "1:2"}, vlan.MemberPorts)
	})

	t.Run("switchports", func(t *testing.T) {
		facts, err := p.Expected(ctx, "sw1", models.FeatureSwitchports)
		require.NoError(t, err)
		require.Len(t, facts, 1)

		sp, ok := facts[0].(*models.SwitchportFact)
		require.True(t, ok)
		assert.Equal(t, models.ModeTrunk, sp.Mode)
		assert.Equal(t, 1, sp.UntaggedVlan)
		assert.Equal(t, []int{100, 200}, sp.TaggedVlans)
	})

	t.Run("interfaces carry reserved flag", func(t *testing.T) {
		facts, err := p.Expected(ctx, "sw1", models.FeatureInterfaces)
		require.NoError(t, err)
		require.Len(t, facts, 2)

		reserved, ok := facts[1].(*models.InterfaceFact)
		require.True(t, ok)
		assert.True(t, reserved.Informational())
	})

	t.Run("lags", func(t *testing.T) {
		facts, err := p.Expected(ctx, "sw1", models.FeatureLags)
		require.NoError(t, err)
		require.Len(t, facts, 1)
		assert.Equal(t, "lag1", facts[0].(*models.LagFact).Name)
	})

	t.Run("feature absent from file yields empty set", func(t *testing.T) {
		writeDesign(t, dir, "sw9", "topology: []\n")

		facts, err := p.Expected(ctx, "sw9", models.FeatureVlans)
		require.NoError(t, err)
		assert.Empty(t, facts)
	})
}

func TestFileProviderMissingDevice(t *testing.T) {
	p := NewFileProvider(t.TempDir())

	_, err := p.Expected(context.Background(), "ghost", models.FeatureTopology)
	assert.ErrorIs(t, err, ErrNoDesign)
}

func TestFileProviderMalformedDesign(t *testing.T) {
	dir := t.TempDir()
	writeDesign(t, dir, "sw1", "vlans: {not: a list}\n")

	p := NewFileProvider(dir)

	_, err := p.Expected(context.Background(), "sw1", models.FeatureVlans)
	assert.ErrorIs(t, err, ErrBadDesign)
}
