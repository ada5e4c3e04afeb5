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

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/coppermesh/fabricheck/pkg/logger"
	"github.com/coppermesh/fabricheck/pkg/models"
)

const (
	defaultJSONRPCPort = 80
	jsonrpcPath        = "/jsonrpc"
	probeCommand       = "show switch"
)

// JSONRPCDialer opens sessions against a switch management API speaking
// JSON-RPC 2.0 over HTTP: method "cli", params [command], basic auth.
type JSONRPCDialer struct {
	// Scheme defaults to "http"; Port to 80.
	Scheme string
	Port   int

	// CommandTimeout bounds each command round trip.
	CommandTimeout time.Duration

	// HTTPClient may be replaced for testing; the zero value uses a
	// dedicated client with no global timeout (per-command contexts
	// bound each call).
	HTTPClient *http.Client

	Logger logger.Logger
}

type jsonrpcRequest struct {
	Version string   `json:"jsonrpc"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
	ID      int      `json:"id"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonrpcError   `json:"error"`
}

// Open probes the management endpoint with a harmless status command and
// returns a session bound to it. Any probe failure is a connect error.
func (d *JSONRPCDialer) Open(ctx context.Context, device *models.Device, creds Credentials) (Session, error) {
	scheme := d.Scheme
	if scheme == "" {
		scheme = "http"
	}

	port := d.Port
	if port == 0 {
		port = defaultJSONRPCPort
	}

	client := d.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	log := d.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	s := &jsonrpcSession{
		endpoint: fmt.Sprintf("%s://%s:%d%s", scheme, device.Host, port, jsonrpcPath),
		creds:    creds,
		timeout:  d.CommandTimeout,
		client:   client,
		log:      log.WithComponent("session.jsonrpc"),
	}

	if _, err := s.Run(ctx, probeCommand); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, fmt.Errorf("%w: device %s: %w", ErrConnect, device.Name, err)
	}

	return s, nil
}

type jsonrpcSession struct {
	endpoint string
	creds    Credentials
	timeout  time.Duration
	client   *http.Client
	log      zerolog.Logger
	nextID   int
	closed   bool
}

func (s *jsonrpcSession) Run(ctx context.Context, command string) (RawOutput, error) {
	if s.closed {
		return RawOutput{}, ErrSessionClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.nextID++

	body, err := json.Marshal(jsonrpcRequest{
		Version: "2.0",
		Method:  "cli",
		Params:  []string{command},
		ID:      s.nextID,
	})
	if err != nil {
		return RawOutput{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return RawOutput{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.creds.Username, s.creds.Password)

	resp, err := s.client.Do(req)
	if err != nil {
		return RawOutput{}, classifyRunErr(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return RawOutput{}, fmt.Errorf("jsonrpc endpoint returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawOutput{}, classifyRunErr(ctx, err)
	}

	var envelope jsonrpcResponse
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return RawOutput{}, fmt.Errorf("jsonrpc envelope: %w", err)
	}

	if envelope.Error != nil {
		return RawOutput{}, fmt.Errorf("jsonrpc error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	s.log.Debug().Str("command", command).Int("bytes", len(envelope.Result)).Msg("command completed")

	return RawOutput{Command: command, Payload: envelope.Result}, nil
}

func (s *jsonrpcSession) Close() error {
	// HTTP transport holds no per-device state beyond idle conns.
	s.closed = true
	return nil
}
