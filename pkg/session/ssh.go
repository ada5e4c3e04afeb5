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
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/coppermesh/fabricheck/pkg/models"
)

const defaultSSHPort = 22

// SSHDialer opens sessions over SSH, one exec channel per command.
// Password auth only; switch management access in the fleets fabricheck
// targets is credential-based.
type SSHDialer struct {
	Port           int
	ConnectTimeout time.Duration
	CommandTimeout time.Duration

	// HostKeyCallback defaults to accepting any host key. Production
	// hosts should supply a known-hosts callback.
	HostKeyCallback ssh.HostKeyCallback
}

func (d *SSHDialer) Open(ctx context.Context, device *models.Device, creds Credentials) (Session, error) {
	port := d.Port
	if port == 0 {
		port = defaultSSHPort
	}

	hostKey := d.HostKeyCallback
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey() //nolint:gosec // opt-in via config
	}

	config := &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(creds.Password),
		},
		HostKeyCallback: hostKey,
		Timeout:         d.ConnectTimeout,
	}

	addr := net.JoinHostPort(device.Host, fmt.Sprintf("%d", port))

	dialer := &net.Dialer{Timeout: d.ConnectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnect, addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: ssh handshake %s: %w", ErrConnect, addr, err)
	}

	return &sshSession{
		client:  ssh.NewClient(sshConn, chans, reqs),
		timeout: d.CommandTimeout,
	}, nil
}

type sshSession struct {
	client  *ssh.Client
	timeout time.Duration
	closed  bool
}

func (s *sshSession) Run(ctx context.Context, command string) (RawOutput, error) {
	if s.closed {
		return RawOutput{}, ErrSessionClosed
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	sess, err := s.client.NewSession()
	if err != nil {
		return RawOutput{}, fmt.Errorf("open exec channel: %w", err)
	}
	defer func() { _ = sess.Close() }()

	type execResult struct {
		output []byte
		err    error
	}

	done := make(chan execResult, 1)

	go func() {
		out, execErr := sess.CombinedOutput(command)
		done <- execResult{output: out, err: execErr}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return RawOutput{}, classifyRunErr(ctx, res.err)
		}

		return RawOutput{Command: command, Payload: res.output}, nil
	case <-ctx.Done():
		// Abandon the exec; closing the channel unblocks the goroutine.
		_ = sess.Close()

		return RawOutput{}, classifyRunErr(ctx, ctx.Err())
	}
}

func (s *sshSession) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.client.Close()
}
