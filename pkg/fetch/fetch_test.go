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

package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coppermesh/fabricheck/pkg/logger"
	"github.com/coppermesh/fabricheck/pkg/models"
	"github.com/coppermesh/fabricheck/pkg/parser"
	"github.com/coppermesh/fabricheck/pkg/parser/exos"
	"github.com/coppermesh/fabricheck/pkg/session"
)

// scriptedSession returns queued responses per command; entries may be
// errors to simulate timeouts.
type scriptedSession struct {
	script map[string][]any // []byte payload or error
	calls  []string
	closed bool
}

func newScriptedSession() *scriptedSession {
	return &scriptedSession{script: make(map[string][]any)}
}

func (s *scriptedSession) queue(command string, steps ...any) {
	s.script[command] = append(s.script[command], steps...)
}

func (s *scriptedSession) Run(_ context.Context, command string) (session.RawOutput, error) {
	s.calls = append(s.calls, command)

	queue := s.script[command]
	if len(queue) == 0 {
		return session.RawOutput{}, errors.New("unexpected command: " + command)
	}

	step := queue[0]
	s.script[command] = queue[1:]

	if err, ok := step.(error); ok {
		return session.RawOutput{}, err
	}

	return session.RawOutput{Command: command, Payload: step.([]byte)}, nil
}

func (s *scriptedSession) Close() error {
	s.closed = true
	return nil
}

func (s *scriptedSession) callCount(command string) int {
	n := 0

	for _, c := range s.calls {
		if c == command {
			n++
		}
	}

	return n
}

func testFetcher(t *testing.T, retries int) *Fetcher {
	t.Helper()

	registry := parser.NewRegistry()
	exos.Register(registry)

	return NewFetcher(registry, Config{
		CommandTimeout: 50 * time.Millisecond,
		RetryAttempts:  retries,
		RetryBackoff:   time.Millisecond,
	}, logger.NewTestLogger())
}

func exosDevice() *models.Device {
	return &models.Device{Name: "sw1", Host: "10.0.0.1", Family: exos.Family}
}

const lldpPayload = `[{"lldpPortNbrInfoShort": {"port": "1:1", "nbrSysName": "sw2", "nbrPortID": "1:3"}}]`

func TestFetchHappyPath(t *testing.T) {
	sess := newScriptedSession()
	sess.queue("show lldp neighbors", []byte(lldpPayload))

	observed, err := testFetcher(t, 1).Fetch(context.Background(), sess, exosDevice(), models.FeatureTopology)
	require.NoError(t, err)
	require.Len(t, observed, 1)
	assert.Equal(t, "1:1", observed[0].Fact.(*models.NeighborFact).LocalPort)
}

func TestFetchFollowUpPlan(t *testing.T) {
	sess := newScriptedSession()
	sess.queue("show vlan", []byte(`[{"vlanProc": {"tag": 100, "name1": "Printers"}}]`))
	sess.queue("show vlan Printers", []byte(`[{"vlanProc": {"port": "1:1", "tagStatus": 0}}]`))

	observed, err := testFetcher(t, 1).Fetch(context.Background(), sess, exosDevice(), models.FeatureVlans)
	require.NoError(t, err)
	require.Len(t, observed, 1)

	vlan := observed[0].Fact.(*models.VlanFact)
	assert.Equal(t, 100, vlan.VlanID)
	assert.Equal(t, []string{"1:1"}, vlan.MemberPorts)

	// enumeration first, then membership
	assert.Equal(t, []string{"show vlan", "show vlan Printers"}, sess.calls)
}

func TestFetchTimeoutThenRetrySuccess(t *testing.T) {
	sess := newScriptedSession()
	sess.queue("show lldp neighbors", session.ErrCommandTimeout, []byte(lldpPayload))

	observed, err := testFetcher(t, 1).Fetch(context.Background(), sess, exosDevice(), models.FeatureTopology)
	require.NoError(t, err, "a single timeout must not fail the feature")
	require.Len(t, observed, 1)
	assert.Equal(t, 2, sess.callCount("show lldp neighbors"), "two attempts observed")
}

func TestFetchTimeoutTwiceSurfaces(t *testing.T) {
	sess := newScriptedSession()
	sess.queue("show lldp neighbors", session.ErrCommandTimeout, session.ErrCommandTimeout)

	_, err := testFetcher(t, 1).Fetch(context.Background(), sess, exosDevice(), models.FeatureTopology)
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrCommandTimeout)
	assert.Equal(t, 2, sess.callCount("show lldp neighbors"))
}

func TestFetchNoRetryOnDeviceError(t *testing.T) {
	sess := newScriptedSession()
	boom := errors.New("jsonrpc error -32601: unknown command")
	sess.queue("show lldp neighbors", boom)

	_, err := testFetcher(t, 1).Fetch(context.Background(), sess, exosDevice(), models.FeatureTopology)
	require.Error(t, err)
	assert.Equal(t, 1, sess.callCount("show lldp neighbors"), "non-timeout errors are not retried")
}

func TestFetchParseFailure(t *testing.T) {
	sess := newScriptedSession()
	sess.queue("show lldp neighbors", []byte(`this is not json`))

	_, err := testFetcher(t, 1).Fetch(context.Background(), sess, exosDevice(), models.FeatureTopology)
	assert.ErrorIs(t, err, parser.ErrParse)
}

func TestFetchUnknownFamily(t *testing.T) {
	sess := newScriptedSession()
	device := &models.Device{Name: "r1", Host: "10.0.0.2", Family: "ios"}

	_, err := testFetcher(t, 1).Fetch(context.Background(), sess, device, models.FeatureTopology)
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrNoParser)
}

func TestFetchCancellation(t *testing.T) {
	sess := newScriptedSession()
	sess.queue("show lldp neighbors", []byte(lldpPayload))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testFetcher(t, 1).Fetch(ctx, sess, exosDevice(), models.FeatureTopology)
	assert.ErrorIs(t, err, context.Canceled)
}

// runawayParser never ends its plan; the fetcher must bound it.
type runawayParser struct{}

func (*runawayParser) Plan(_ []session.RawOutput) ([]string, error) {
	return []string{"show loop"}, nil
}

func (*runawayParser) Parse(_ []session.RawOutput) ([]models.Observed, error) {
	return nil, nil
}

func TestFetchBoundsPlanRounds(t *testing.T) {
	registry := parser.NewRegistry()
	registry.Register("exos", models.FeatureTopology, &runawayParser{})

	f := NewFetcher(registry, Config{RetryBackoff: time.Millisecond}, logger.NewTestLogger())

	sess := newScriptedSession()
	for i := 0; i < maxPlanRounds+1; i++ {
		sess.queue("show loop", []byte(`[]`))
	}

	_, err := f.Fetch(context.Background(), sess, exosDevice(), models.FeatureTopology)
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrParse)
}
