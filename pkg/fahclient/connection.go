// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fahclient talks to a v7+ Folding@Home client over its TCP
// control socket.
//
// The wire protocol is line-oriented: outbound plain-text commands, inbound
// PyON message blocks framed by sentinel markers. There is no
// request/response correlation; callers send a command and watch the typed
// message cache for the answering message key.
package fahclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/harlam357/hfm-net-sub022/pkg/logging"
)

// Config configures one client connection.
type Config struct {
	// Host and Port locate the client's control socket.
	Host string
	Port int

	// Password authenticates the session when the client requires it.
	// Sent once, immediately after connecting.
	Password string

	// ConnectTimeout bounds the dial. Default: 5 seconds.
	ConnectTimeout time.Duration

	// Logger receives connection diagnostics. Default: logging.Default().
	Logger *logging.Logger

	// OnUpdate is invoked for every cached message, from the read loop
	// goroutine. Notifications for one connection are raised one at a
	// time, in wire order.
	OnUpdate UpdateHandler

	// OnConnected is invoked with false when the read loop exits.
	OnConnected func(connected bool)
}

// DefaultPort is the FahClient control socket's default TCP port.
const DefaultPort = 36330

const defaultConnectTimeout = 5 * time.Second

// Connection is one live session with a client. Exactly one connection
// resource exists per Connection; the guard arbiters its ownership between
// the read loop, command senders, and Close.
type Connection struct {
	cfg    Config
	logger *logging.Logger
	cache  *MessageCache
	guard  *ResourceGuard[net.Conn]
	done   chan struct{}
}

// Connect dials the client and starts the read loop.
//
// The dial honors both ctx and the configured connect timeout; the returned
// connection stays alive after ctx is done (use Close to tear it down).
func Connect(ctx context.Context, cfg Config) (*Connection, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}

	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		metricConnectFailures.Inc()
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}

	c := &Connection{
		cfg:    cfg,
		logger: cfg.Logger,
		cache:  NewMessageCache(),
		guard:  NewResourceGuard(conn),
		done:   make(chan struct{}),
	}
	c.logger.Info("connected to client", "addr", addr)
	go c.readLoop(conn)

	if cfg.Password != "" {
		if err := c.SendCommand(AuthCommand(cfg.Password)); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Cache returns the connection's typed message cache.
func (c *Connection) Cache() *MessageCache {
	return c.cache
}

// Connected reports whether the connection resource is still held.
func (c *Connection) Connected() bool {
	return c.guard.IsAvailable()
}

// SendCommand writes one textual command to the client.
//
// Fire-and-forget: the response, if any, arrives asynchronously through the
// message cache under the command's answering key. Returns ErrNotConnected
// after the connection has closed.
func (c *Connection) SendCommand(command string) error {
	if command == "" {
		return nil
	}
	if !c.guard.IsAvailable() {
		return ErrNotConnected
	}
	err := c.guard.Execute(func(conn net.Conn) error {
		_, werr := conn.Write([]byte(command + "\n"))
		return werr
	})
	if err != nil {
		return fmt.Errorf("sending %q: %w", command, err)
	}
	metricCommandsSent.Inc()
	return nil
}

// Close releases the connection resource and waits for the read loop to
// exit. Safe to call more than once.
func (c *Connection) Close() error {
	c.guard.Release()
	<-c.done
	return nil
}

// readLoop is the single reader of the socket and the single producer of
// cache updates for this connection.
//
// It reads on the bare conn rather than through the guard: a blocking Read
// must not hold the guard while Release closes the socket out from under it.
// Release closing the conn is exactly what unblocks the final Read.
func (c *Connection) readLoop(conn net.Conn) {
	defer close(c.done)

	extractor := &MessageExtractor{}
	buf := make([]byte, 16*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			metricBytesRead.Add(float64(n))
			extractor.Feed(buf[:n])
			for msg := extractor.Next(); msg != nil; msg = extractor.Next() {
				c.dispatch(msg)
			}
		}
		if err != nil {
			if extractor.Pending() {
				c.logger.Warn("connection closed mid-message", "error", ErrConnectionClosed)
			} else {
				c.logger.Info("connection closed", "error", err)
			}
			break
		}
	}

	c.cache.ClearBuffer()
	c.guard.Release()
	if c.cfg.OnConnected != nil {
		c.cfg.OnConnected(false)
	}
}

func (c *Connection) dispatch(msg *Message) {
	metricMessagesReceived.WithLabelValues(msg.Key).Inc()
	update := c.cache.Update(msg)
	c.logger.Debug("message received", "key", msg.Key, "bytes", len(msg.Payload))
	if c.cfg.OnUpdate != nil {
		c.cfg.OnUpdate(update)
	}
}
