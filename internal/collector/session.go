/*
SPDX-License-Identifier: GPL-3.0-or-later

Copyright (C) 2025 The NSDevLog Agent Authors

This file is part of NSDevLog Agent.

NSDevLog Agent is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

NSDevLog Agent is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with NSDevLog Agent. If not, see https://www.gnu.org/licenses/.
*/

// nsdevlog-agent/internal/collector/session.go
// Package collector owns one remote-shell session per switch and streams
// the device log command's output through parsing, timestamp repair and
// device resolution.

package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sanwatch/nsdevlog-agent/internal/model"
	"github.com/sanwatch/nsdevlog-agent/internal/utils"
)

// ConnErrKind classifies connection failures for per-switch reporting.
type ConnErrKind int

const (
	// KindProtocol covers negotiation and any otherwise unclassified
	// transport failure.
	KindProtocol ConnErrKind = iota
	// KindAuth is an authentication rejection.
	KindAuth
	// KindTimeout is a network dial or handshake timeout.
	KindTimeout
)

func (k ConnErrKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindTimeout:
		return "timeout"
	default:
		return "protocol"
	}
}

// ConnectionError is a classified failure to establish a switch session.
type ConnectionError struct {
	Host string
	Kind ConnErrKind
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %s failure: %v", e.Host, e.Kind, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Session runs remote commands against one connected switch. Exactly
// one outbound connection per Session; no sharing across collectors.
type Session interface {
	// Exec starts one remote command and returns its output stream.
	// Closing the stream releases the remote channel. A non-zero exit
	// status or mid-stream disconnect surfaces as a read error.
	Exec(ctx context.Context, cmd string) (io.ReadCloser, error)
	Close() error
}

// Dialer opens a Session. The indirection exists so the orchestrator
// and tests can substitute fakes for real SSH.
type Dialer func(ctx context.Context, host string, creds model.Credentials, timeout time.Duration) (Session, error)

// DialSSH is the production Dialer. It authenticates by password only
// (switch service accounts have no keys) and does not verify host keys,
// matching how the fleet is operated today.
func DialSSH(ctx context.Context, host string, creds model.Credentials, timeout time.Duration) (Session, error) {
	cfg := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, "22")
	}

	utils.Info("🔌 connecting to switch %s", addr)
	client, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, &ConnectionError{Host: host, Kind: classify(err), Err: err}
	}
	return &sshSession{host: host, client: client}, nil
}

func classify(err error) ConnErrKind {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "password") {
		return KindAuth
	}
	if strings.Contains(msg, "i/o timeout") {
		return KindTimeout
	}
	return KindProtocol
}

type sshSession struct {
	host   string
	client *ssh.Client
}

func (s *sshSession) Exec(ctx context.Context, cmd string) (io.ReadCloser, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open channel on %s: %w", s.host, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, err
	}
	if err := sess.Start(cmd); err != nil {
		sess.Close()
		return nil, fmt.Errorf("start %q on %s: %w", cmd, s.host, err)
	}

	cs := &cmdStream{r: stdout, sess: sess, done: make(chan struct{})}
	// Cancellation must unblock a pending read; closing the channel
	// does that.
	go func() {
		select {
		case <-ctx.Done():
			sess.Close()
		case <-cs.done:
		}
	}()
	return cs, nil
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

// cmdStream exposes a running command's stdout. At EOF it picks up the
// command's exit status, so a remote failure is indistinguishable from
// any other mid-stream error for the caller.
type cmdStream struct {
	r      io.Reader
	sess   *ssh.Session
	done   chan struct{}
	waited bool
}

func (c *cmdStream) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err == io.EOF && !c.waited {
		c.waited = true
		if werr := c.sess.Wait(); werr != nil {
			return n, fmt.Errorf("remote command failed: %w", werr)
		}
	}
	return n, err
}

func (c *cmdStream) Close() error {
	close(c.done)
	return c.sess.Close()
}
