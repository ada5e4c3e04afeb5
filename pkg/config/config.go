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

// Package config loads and validates the fabricheck host configuration.
// The core packages consume plain values from here; none of them reads
// files or environment state directly.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/coppermesh/fabricheck/pkg/logger"
	"github.com/coppermesh/fabricheck/pkg/models"
)

var (
	ErrNoDevices        = errors.New("no devices configured")
	ErrNoFeatures       = errors.New("no features enabled")
	ErrUnknownFeature   = errors.New("unknown feature")
	ErrUnknownTransport = errors.New("unknown transport")
	ErrDeviceIncomplete = errors.New("device entry missing name or host")
)

// Transports.
const (
	TransportJSONRPC = "jsonrpc"
	TransportSSH     = "ssh"
)

// Defaults. The 300s command timeout accommodates slow devices.
const (
	DefaultCommandTimeout = 300 * time.Second
	DefaultRetryAttempts  = 1
	DefaultRetryBackoff   = 2 * time.Second
	DefaultConcurrency    = 8
	DefaultFamily         = "exos"
)

// DeviceConfig declares one device to check. Features defaults to the
// run-level feature list.
type DeviceConfig struct {
	Name     string           `json:"name" toml:"name"`
	Host     string           `json:"host" toml:"host"`
	Family   string           `json:"family,omitempty" toml:"family"`
	Features []models.Feature `json:"features,omitempty" toml:"features"`
}

// Config is the full host configuration surface.
//
// Credential refs name environment variable prefixes the host resolves
// (<REF>_USERNAME / <REF>_PASSWORD); AdminCredentialsRef is accepted for
// config compatibility but unused, every shipped check is read-only.
type Config struct {
	CommandTimeout models.Duration `json:"command_timeout,omitempty" toml:"command_timeout"`
	RetryAttempts  *int            `json:"retry_attempts,omitempty" toml:"retry_attempts"`
	RetryBackoff   models.Duration `json:"retry_backoff,omitempty" toml:"retry_backoff"`
	Concurrency    int             `json:"concurrency,omitempty" toml:"concurrency"`

	Transport string `json:"transport,omitempty" toml:"transport"`
	Port      int    `json:"port,omitempty" toml:"port"`

	DesignDir string           `json:"design_dir" toml:"design_dir"`
	Features  []models.Feature `json:"features,omitempty" toml:"features"`
	Devices   []DeviceConfig   `json:"devices" toml:"devices"`

	ReadCredentialsRef  string `json:"read_credentials_ref,omitempty" toml:"read_credentials_ref"`
	AdminCredentialsRef string `json:"admin_credentials_ref,omitempty" toml:"admin_credentials_ref"`

	Logging logger.Config `json:"logging,omitempty" toml:"logging"`
}

// Normalize fills defaults in place. Safe to call repeatedly.
func (c *Config) Normalize() {
	if c.CommandTimeout == 0 {
		c.CommandTimeout = models.Duration(DefaultCommandTimeout)
	}

	if c.RetryAttempts == nil {
		attempts := DefaultRetryAttempts
		c.RetryAttempts = &attempts
	}

	if c.RetryBackoff == 0 {
		c.RetryBackoff = models.Duration(DefaultRetryBackoff)
	}

	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}

	if c.Transport == "" {
		c.Transport = TransportJSONRPC
	}

	if len(c.Features) == 0 {
		c.Features = models.AllFeatures()
	}

	if c.ReadCredentialsRef == "" {
		c.ReadCredentialsRef = "FABRICHECK_RO"
	}

	for i := range c.Devices {
		if c.Devices[i].Family == "" {
			c.Devices[i].Family = DefaultFamily
		}

		if len(c.Devices[i].Features) == 0 {
			c.Devices[i].Features = c.Features
		}
	}
}

// Validate checks the normalized config.
func (c *Config) Validate() error {
	if c.Transport != TransportJSONRPC && c.Transport != TransportSSH {
		return fmt.Errorf("%w: %q", ErrUnknownTransport, c.Transport)
	}

	if len(c.Devices) == 0 {
		return ErrNoDevices
	}

	if len(c.Features) == 0 {
		return ErrNoFeatures
	}

	for _, f := range c.Features {
		if !models.KnownFeature(f) {
			return fmt.Errorf("%w: %q", ErrUnknownFeature, f)
		}
	}

	for _, d := range c.Devices {
		if d.Name == "" || d.Host == "" {
			return fmt.Errorf("%w: %+v", ErrDeviceIncomplete, d)
		}

		for _, f := range d.Features {
			if !models.KnownFeature(f) {
				return fmt.Errorf("%w: %q on device %s", ErrUnknownFeature, f, d.Name)
			}
		}
	}

	return nil
}

// DeviceList materializes the configured devices for the runner.
func (c *Config) DeviceList() []*models.Device {
	devices := make([]*models.Device, 0, len(c.Devices))

	for _, d := range c.Devices {
		devices = append(devices, &models.Device{
			Name:     d.Name,
			Host:     d.Host,
			Family:   d.Family,
			Features: d.Features,
		})
	}

	return devices
}
