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

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DiffLevel classifies the severity of a single field mismatch.
type DiffLevel string

const (
	DiffFail DiffLevel = "fail"
	DiffWarn DiffLevel = "warn"
	DiffSkip DiffLevel = "skip"
)

// FieldDiff records one field that disagreed between an expected and an
// observed fact, with both values rendered as strings.
type FieldDiff struct {
	Field    string    `json:"field"`
	Expected string    `json:"expected"`
	Observed string    `json:"observed"`
	Level    DiffLevel `json:"level"`
}

// Fact is a single typed observation or expectation about device state.
// Facts on both sides of a comparison share the same concrete type per
// feature; Compare is called on the expected fact with the observed fact
// and returns the field-level disagreements.
type Fact interface {
	Feature() Feature
	Key() string
	Label() string
	Compare(other Fact) []FieldDiff
}

// Informational is an optional Fact capability: an expected fact that is
// reported but not evaluated (for example a reserved interface).
type Informational interface {
	Informational() bool
}

// Provenance references the raw command output an observed fact came from.
type Provenance struct {
	Command string `json:"command"`
	Bytes   int    `json:"bytes"`
}

// Observed is a fact sourced from live device output.
type Observed struct {
	Fact   `json:"fact"`
	Source Provenance `json:"source"`
}

func typeDiff(expected, observed Fact) []FieldDiff {
	return []FieldDiff{{
		Field:    "fact_type",
		Expected: fmt.Sprintf("%T", expected),
		Observed: fmt.Sprintf("%T", observed),
		Level:    DiffFail,
	}}
}

// NeighborFact is one expected or observed LLDP adjacency (topology).
type NeighborFact struct {
	LocalPort    string `json:"local_port"`
	RemoteDevice string `json:"remote_device"`
	RemotePort   string `json:"remote_port"`
}

func (*NeighborFact) Feature() Feature { return FeatureTopology }

func (f *NeighborFact) Key() string { return NormalizePort(f.LocalPort) }

func (f *NeighborFact) Label() string { return f.LocalPort }

func (f *NeighborFact) Compare(other Fact) []FieldDiff {
	o, ok := other.(*NeighborFact)
	if !ok {
		return typeDiff(f, other)
	}

	var diffs []FieldDiff

	if !HostnameMatch(f.RemoteDevice, o.RemoteDevice) {
		diffs = append(diffs, FieldDiff{
			Field:    "remote_device",
			Expected: f.RemoteDevice,
			Observed: o.RemoteDevice,
			Level:    DiffFail,
		})
	}

	if NormalizePort(f.RemotePort) != NormalizePort(o.RemotePort) {
		diffs = append(diffs, FieldDiff{
			Field:    "remote_port",
			Expected: f.RemotePort,
			Observed: o.RemotePort,
			Level:    DiffFail,
		})
	}

	return diffs
}

// VlanFact is one expected or observed VLAN with its member ports.
type VlanFact struct {
	VlanID      int      `json:"vlan_id"`
	Name        string   `json:"name"`
	MemberPorts []string `json:"member_ports"`
}

func (*VlanFact) Feature() Feature { return FeatureVlans }

func (f *VlanFact) Key() string { return strconv.Itoa(f.VlanID) }

func (f *VlanFact) Label() string { return fmt.Sprintf("vlan %d", f.VlanID) }

func (f *VlanFact) Compare(other Fact) []FieldDiff {
	o, ok := other.(*VlanFact)
	if !ok {
		return typeDiff(f, other)
	}

	var diffs []FieldDiff

	if f.Name != o.Name {
		diffs = append(diffs, FieldDiff{
			Field:    "name",
			Expected: f.Name,
			Observed: o.Name,
			Level:    DiffFail,
		})
	}

	if d, ok := portSetDiff("member_ports", f.MemberPorts, o.MemberPorts); !ok {
		diffs = append(diffs, d)
	}

	return diffs
}

// Switchport modes.
const (
	ModeAccess = "access"
	ModeTrunk  = "trunk"
)

// SwitchportFact is the VLAN usage of one front-panel port.
type SwitchportFact struct {
	Port         string `json:"port"`
	Mode         string `json:"mode"`
	UntaggedVlan int    `json:"untagged_vlan"`
	TaggedVlans  []int  `json:"tagged_vlans,omitempty"`
}

func (*SwitchportFact) Feature() Feature { return FeatureSwitchports }

func (f *SwitchportFact) Key() string { return NormalizePort(f.Port) }

func (f *SwitchportFact) Label() string { return f.Port }

func (f *SwitchportFact) Compare(other Fact) []FieldDiff {
	o, ok := other.(*SwitchportFact)
	if !ok {
		return typeDiff(f, other)
	}

	// A mode mismatch makes the per-mode fields incomparable.
	if f.Mode != o.Mode {
		return []FieldDiff{{
			Field:    "mode",
			Expected: f.Mode,
			Observed: o.Mode,
			Level:    DiffFail,
		}}
	}

	var diffs []FieldDiff

	if f.UntaggedVlan != o.UntaggedVlan {
		field := "untagged_vlan"
		if f.Mode == ModeTrunk {
			field = "native_vlan"
		}

		diffs = append(diffs, FieldDiff{
			Field:    field,
			Expected: strconv.Itoa(f.UntaggedVlan),
			Observed: strconv.Itoa(o.UntaggedVlan),
			Level:    DiffFail,
		})
	}

	if f.Mode == ModeTrunk {
		expd := vlanSetString(f.TaggedVlans)
		msrd := vlanSetString(o.TaggedVlans)

		if expd != msrd {
			diffs = append(diffs, FieldDiff{
				Field:    "tagged_vlans",
				Expected: expd,
				Observed: msrd,
				Level:    DiffFail,
			})
		}
	}

	return diffs
}

// InterfaceFact is the usage and operational state of one interface.
// Reserved marks a design-side interface that is reported but not
// evaluated.
type InterfaceFact struct {
	Port      string `json:"port"`
	Used      bool   `json:"used"`
	OperUp    bool   `json:"oper_up"`
	Desc      string `json:"desc,omitempty"`
	SpeedMbps int    `json:"speed_mbps,omitempty"`
	Reserved  bool   `json:"reserved,omitempty"`
}

func (*InterfaceFact) Feature() Feature { return FeatureInterfaces }

func (f *InterfaceFact) Key() string { return NormalizePort(f.Port) }

func (f *InterfaceFact) Label() string { return f.Port }

func (f *InterfaceFact) Informational() bool { return f.Reserved }

func (f *InterfaceFact) Compare(other Fact) []FieldDiff {
	o, ok := other.(*InterfaceFact)
	if !ok {
		return typeDiff(f, other)
	}

	var diffs []FieldDiff

	if f.Used != o.Used {
		diffs = append(diffs, FieldDiff{
			Field:    "used",
			Expected: strconv.FormatBool(f.Used),
			Observed: strconv.FormatBool(o.Used),
			Level:    DiffFail,
		})
	}

	if f.OperUp != o.OperUp {
		diffs = append(diffs, FieldDiff{
			Field:    "oper_up",
			Expected: strconv.FormatBool(f.OperUp),
			Observed: strconv.FormatBool(o.OperUp),
			Level:    DiffFail,
		})
	}

	// A description mismatch is a warning, not a failure.
	if f.Desc != o.Desc {
		diffs = append(diffs, FieldDiff{
			Field:    "desc",
			Expected: f.Desc,
			Observed: o.Desc,
			Level:    DiffWarn,
		})
	}

	if f.SpeedMbps != o.SpeedMbps {
		// Speed is not measurable on a down port.
		level := DiffFail
		if !o.OperUp {
			level = DiffSkip
		}

		diffs = append(diffs, FieldDiff{
			Field:    "speed",
			Expected: strconv.Itoa(f.SpeedMbps),
			Observed: strconv.Itoa(o.SpeedMbps),
			Level:    level,
		})
	}

	return diffs
}

// LagFact is one expected or observed link aggregation group.
type LagFact struct {
	Name        string   `json:"name"`
	Enabled     bool     `json:"enabled"`
	MemberPorts []string `json:"member_ports"`
}

func (*LagFact) Feature() Feature { return FeatureLags }

func (f *LagFact) Key() string { return NormalizePort(f.Name) }

func (f *LagFact) Label() string { return f.Name }

func (f *LagFact) Compare(other Fact) []FieldDiff {
	o, ok := other.(*LagFact)
	if !ok {
		return typeDiff(f, other)
	}

	var diffs []FieldDiff

	if f.Enabled != o.Enabled {
		diffs = append(diffs, FieldDiff{
			Field:    "enabled",
			Expected: strconv.FormatBool(f.Enabled),
			Observed: strconv.FormatBool(o.Enabled),
			Level:    DiffFail,
		})
	}

	if d, ok := portSetDiff("member_ports", f.MemberPorts, o.MemberPorts); !ok {
		diffs = append(diffs, d)
	}

	return diffs
}

// portSetDiff compares two port lists as case-normalized sets. The second
// return value is true when the sets are equal.
func portSetDiff(field string, expected, observed []string) (FieldDiff, bool) {
	expd := portSetString(expected)
	msrd := portSetString(observed)

	if expd == msrd {
		return FieldDiff{}, true
	}

	return FieldDiff{
		Field:    field,
		Expected: expd,
		Observed: msrd,
		Level:    DiffFail,
	}, false
}

func portSetString(ports []string) string {
	set := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		set[NormalizePort(p)] = struct{}{}
	}

	sorted := make([]string, 0, len(set))
	for p := range set {
		sorted = append(sorted, p)
	}

	sort.Strings(sorted)

	return strings.Join(sorted, ",")
}

func vlanSetString(vlans []int) string {
	set := make(map[int]struct{}, len(vlans))
	for _, v := range vlans {
		set[v] = struct{}{}
	}

	sorted := make([]int, 0, len(set))
	for v := range set {
		sorted = append(sorted, v)
	}

	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, v := range sorted {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}
