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

// Package models provides the data model for fabricheck: devices, design
// facts, check items and reports.
package models

import "strings"

// Feature is a named category of device-state check.
type Feature string

const (
	FeatureTopology    Feature = "topology"
	FeatureVlans       Feature = "vlans"
	FeatureSwitchports Feature = "switchports"
	FeatureInterfaces  Feature = "interfaces"
	FeatureLags        Feature = "lags"
)

// AllFeatures lists every feature fabricheck can run, in report order.
func AllFeatures() []Feature {
	return []Feature{
		FeatureTopology,
		FeatureVlans,
		FeatureSwitchports,
		FeatureInterfaces,
		FeatureLags,
	}
}

// KnownFeature reports whether f names a feature fabricheck implements.
func KnownFeature(f Feature) bool {
	for _, known := range AllFeatures() {
		if f == known {
			return true
		}
	}

	return false
}

// Device identifies one network device in a check run. It is immutable for
// the duration of the run; credentials are resolved by the host and handed
// to the session layer separately.
type Device struct {
	Name     string    `json:"name"`
	Host     string    `json:"host"`
	Family   string    `json:"family"`
	Features []Feature `json:"features"`
}

// NormalizePort canonicalizes a port identifier for comparison. Vendor port
// naming is inconsistent in case only, so comparison is case-insensitive.
func NormalizePort(port string) string {
	return strings.ToLower(strings.TrimSpace(port))
}

// NormalizePorts returns the case-normalized copy of a port list.
func NormalizePorts(ports []string) []string {
	out := make([]string, len(ports))
	for i, p := range ports {
		out[i] = NormalizePort(p)
	}

	return out
}

// HostnameMatch compares two device hostnames tolerantly: case-insensitive,
// and a bare short name matches the same name carrying a DNS suffix. Design
// repositories name devices by short name while LLDP often reports FQDNs.
func HostnameMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return true
	}

	shortA, _, _ := strings.Cut(a, ".")
	shortB, _, _ := strings.Cut(b, ".")

	return shortA != "" && shortA == shortB
}
