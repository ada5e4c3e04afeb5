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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceReportStatus(t *testing.T) {
	report := &DeviceReport{
		Results: []FeatureResult{
			{Feature: FeatureTopology, Status: StatusPass},
			{Feature: FeatureVlans, Status: StatusFail},
			{Feature: FeatureLags, Status: StatusError},
		},
	}

	assert.Equal(t, StatusError, report.Status())
	require.NotNil(t, report.Result(FeatureVlans))
	assert.Equal(t, StatusFail, report.Result(FeatureVlans).Status)
	assert.Nil(t, report.Result(FeatureSwitchports))
}

func TestRunReportSummarize(t *testing.T) {
	run := &RunReport{
		Reports: []DeviceReport{
			{
				Results: []FeatureResult{
					{
						Feature: FeatureTopology,
						Status:  StatusFail,
						Items: []CheckItem{
							{Status: StatusPass},
							{Status: StatusFail},
							{Status: StatusMissing},
						},
					},
					{Feature: FeatureVlans, Status: StatusError, ErrClass: ErrClassTimeout},
				},
			},
			{
				Results: []FeatureResult{
					{
						Feature: FeatureTopology,
						Status:  StatusPass,
						Items:   []CheckItem{{Status: StatusPass}},
					},
				},
			},
		},
	}

	s := run.Summarize()
	assert.Equal(t, 2, s.Devices)
	assert.Equal(t, 3, s.Features)
	assert.Equal(t, 2, s.ByStatus[StatusPass])
	assert.Equal(t, 1, s.ByStatus[StatusFail])
	assert.Equal(t, 1, s.ByStatus[StatusMissing])
	assert.Equal(t, 1, s.ByStatus[StatusError])

	assert.Equal(t, StatusError, run.Status())
}

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string form", input: `"300s"`, want: 300 * time.Second},
		{name: "numeric nanoseconds", input: `2000000000`, want: 2 * time.Second},
		{name: "garbage string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration

			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration())
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration

	require.NoError(t, d.UnmarshalText([]byte("2s")))
	assert.Equal(t, 2*time.Second, d.Duration())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(out))
}
