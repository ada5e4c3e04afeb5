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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coppermesh/fabricheck/pkg/models"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadFileJSON(t *testing.T) {
	path := writeConfig(t, "check.json", `{
  "command_timeout": "30s",
  "retry_attempts": 2,
  "design_dir": "designs",
  "devices": [
    {"name": "sw1", "host": "10.0.0.1"},
    {"name": "sw2", "host": "10.0.0.2", "features": ["vlans"]}
  ]
}`)

	var cfg Config

	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, 30*time.Second, time.Duration(cfg.CommandTimeout))
	require.NotNil(t, cfg.RetryAttempts)
	assert.Equal(t, 2, *cfg.RetryAttempts)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.RetryBackoff))
	assert.Equal(t, DefaultConcurrency, cfg.Concurrency)
	assert.Equal(t, TransportJSONRPC, cfg.Transport)
	assert.Equal(t, "FABRICHECK_RO", cfg.ReadCredentialsRef)

	// Run-level features default to all known features and flow down to
	// devices that do not override them.
	assert.Equal(t, models.AllFeatures(), cfg.Features)
	assert.Equal(t, models.AllFeatures(), cfg.Devices[0].Features)
	assert.Equal(t, []models.Feature{models.FeatureVlans}, cfg.Devices[1].Features)
	assert.Equal(t, DefaultFamily, cfg.Devices[0].Family)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeConfig(t, "check.toml", `
design_dir = "designs"
transport = "ssh"
features = ["topology", "vlans"]
read_credentials_ref = "LAB_RO"

[[devices]]
name = "leaf1"
host = "leaf1.lab.example.com"

[logging]
level = "debug"
`)

	var cfg Config

	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, TransportSSH, cfg.Transport)
	assert.Equal(t, "LAB_RO", cfg.ReadCredentialsRef)
	assert.Equal(t, []models.Feature{models.FeatureTopology, models.FeatureVlans}, cfg.Features)
	assert.Equal(t, cfg.Features, cfg.Devices[0].Features)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 300*time.Second, time.Duration(cfg.CommandTimeout))
	require.NotNil(t, cfg.RetryAttempts)
	assert.Equal(t, DefaultRetryAttempts, *cfg.RetryAttempts)
}

func TestLoadFileZeroRetriesPreserved(t *testing.T) {
	path := writeConfig(t, "check.json", `{
  "retry_attempts": 0,
  "design_dir": "designs",
  "devices": [{"name": "sw1", "host": "10.0.0.1"}]
}`)

	var cfg Config

	require.NoError(t, LoadFile(path, &cfg))

	require.NotNil(t, cfg.RetryAttempts)
	assert.Equal(t, 0, *cfg.RetryAttempts, "explicit zero must not be overwritten by the default")
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{
			name:    "no devices",
			file:    "c.json",
			content: `{"design_dir": "d"}`,
			wantErr: ErrNoDevices,
		},
		{
			name:    "unknown feature",
			file:    "c.json",
			content: `{"design_dir": "d", "features": ["bgp"], "devices": [{"name": "a", "host": "b"}]}`,
			wantErr: ErrUnknownFeature,
		},
		{
			name:    "unknown device feature",
			file:    "c.json",
			content: `{"design_dir": "d", "devices": [{"name": "a", "host": "b", "features": ["ospf"]}]}`,
			wantErr: ErrUnknownFeature,
		},
		{
			name:    "unknown transport",
			file:    "c.json",
			content: `{"design_dir": "d", "transport": "telnet", "devices": [{"name": "a", "host": "b"}]}`,
			wantErr: ErrUnknownTransport,
		},
		{
			name:    "device missing host",
			file:    "c.json",
			content: `{"design_dir": "d", "devices": [{"name": "a"}]}`,
			wantErr: ErrDeviceIncomplete,
		},
		{
			name:    "malformed json",
			file:    "c.json",
			content: `{`,
			wantErr: ErrBadConfig,
		},
		{
			name:    "malformed toml",
			file:    "c.toml",
			content: `devices = {`,
			wantErr: ErrBadConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)

			var cfg Config

			err := LoadFile(path, &cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	var cfg Config

	err := LoadFile(filepath.Join(t.TempDir(), "nope.json"), &cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadConfig)
}

func TestDeviceList(t *testing.T) {
	cfg := Config{
		DesignDir: "d",
		Devices: []DeviceConfig{
			{Name: "sw1", Host: "10.0.0.1"},
			{Name: "sw2", Host: "10.0.0.2", Family: "exos"},
		},
	}
	cfg.Normalize()
	require.NoError(t, cfg.Validate())

	devices := cfg.DeviceList()
	require.Len(t, devices, 2)
	assert.Equal(t, "sw1", devices[0].Name)
	assert.Equal(t, "exos", devices[1].Family)
	assert.Equal(t, models.AllFeatures(), devices[0].Features)
}
