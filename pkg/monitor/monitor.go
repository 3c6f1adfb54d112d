// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/harlam357/hfm-net-sub022/pkg/fahclient"
	"github.com/harlam357/hfm-net-sub022/pkg/logging"
)

// ClientType selects how a client's data is retrieved.
type ClientType string

const (
	// ClientTypeLegacy is a v5/v6 client monitored through its data files.
	ClientTypeLegacy ClientType = "legacy"

	// ClientTypeFahClient is a v7+ client monitored over its control
	// socket.
	ClientTypeFahClient ClientType = "fahclient"
)

// ClientConfig describes one monitored client.
type ClientConfig struct {
	Name string
	Type ClientType

	// Path is the data directory for legacy clients.
	Path string

	// Host, Port, and Password locate a FahClient control socket.
	Host     string
	Port     int
	Password string

	// PollInterval is the FahClient update cadence. Default: 60s.
	PollInterval time.Duration
}

// Options configures a Monitor.
type Options struct {
	// Logger receives supervision diagnostics. Default: logging.Default().
	Logger *logging.Logger

	// OnSnapshot receives legacy client captures.
	OnSnapshot SnapshotHandler

	// OnMessage receives FahClient cache updates.
	OnMessage fahclient.UpdateHandler

	// DebounceWindow overrides the legacy watcher debounce.
	DebounceWindow time.Duration

	// ReconnectInterval paces FahClient reconnect attempts. Default: 10s.
	ReconnectInterval time.Duration
}

// Monitor supervises a set of clients, one goroutine per client, until its
// context is canceled.
type Monitor struct {
	clients []ClientConfig
	opts    Options
	logger  *logging.Logger
}

// New validates the client list and creates a Monitor.
func New(clients []ClientConfig, opts *Options) (*Monitor, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 10 * time.Second
	}

	if len(clients) == 0 {
		return nil, ErrNoClients
	}
	seen := make(map[string]bool, len(clients))
	for _, c := range clients {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrClientConfig)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrClientConfig, c.Name)
		}
		seen[c.Name] = true
		switch c.Type {
		case ClientTypeLegacy:
			if c.Path == "" {
				return nil, fmt.Errorf("%w: %s: legacy client needs a path", ErrClientConfig, c.Name)
			}
		case ClientTypeFahClient:
			if c.Host == "" {
				return nil, fmt.Errorf("%w: %s: fahclient needs a host", ErrClientConfig, c.Name)
			}
		default:
			return nil, fmt.Errorf("%w: %s: unknown type %q", ErrClientConfig, c.Name, c.Type)
		}
	}

	return &Monitor{
		clients: clients,
		opts:    *opts,
		logger:  opts.Logger,
	}, nil
}

// Run monitors every configured client until ctx is canceled or a client
// loop fails unrecoverably. The first failure cancels the rest.
func (m *Monitor) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, client := range m.clients {
		client := client
		switch client.Type {
		case ClientTypeLegacy:
			g.Go(func() error { return m.runLegacy(ctx, client) })
		case ClientTypeFahClient:
			g.Go(func() error { return m.runFahClient(ctx, client) })
		}
	}
	return g.Wait()
}

func (m *Monitor) runLegacy(ctx context.Context, client ClientConfig) error {
	watcher, err := NewLegacyWatcher(client.Name, client.Path, m.opts.OnSnapshot, &LegacyWatcherOptions{
		DebounceWindow: m.opts.DebounceWindow,
		Logger:         m.logger,
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", client.Name, err)
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("watching %s: %w", client.Name, err)
	}
	m.logger.Info("watching legacy client", "client", client.Name, "path", client.Path)

	<-ctx.Done()
	return ctx.Err()
}

// runFahClient keeps one socket session alive, reconnecting with a rate
// limit so a dead client does not spin the loop.
func (m *Monitor) runFahClient(ctx context.Context, client ClientConfig) error {
	poll := client.PollInterval
	if poll <= 0 {
		poll = 60 * time.Second
	}
	limiter := rate.NewLimiter(rate.Every(m.opts.ReconnectInterval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		disconnected := make(chan struct{})
		conn, err := fahclient.Connect(ctx, fahclient.Config{
			Host:     client.Host,
			Port:     client.Port,
			Password: client.Password,
			Logger:   m.logger.With("client", client.Name),
			OnUpdate: m.opts.OnMessage,
			OnConnected: func(connected bool) {
				if !connected {
					close(disconnected)
				}
			},
		})
		if err != nil {
			m.logger.Warn("connect failed", "client", client.Name, "error", err)
			metricReconnects.WithLabelValues(client.Name).Inc()
			continue
		}

		m.requestInitialData(conn, client, poll)

		select {
		case <-ctx.Done():
			_ = conn.Close()
			return ctx.Err()
		case <-disconnected:
			m.logger.Warn("client disconnected", "client", client.Name)
			metricReconnects.WithLabelValues(client.Name).Inc()
		}
	}
}

// requestInitialData primes the message cache and registers the periodic
// queue-info push. Send failures here mean the connection already died;
// the disconnect path handles it.
func (m *Monitor) requestInitialData(conn *fahclient.Connection, client ClientConfig, poll time.Duration) {
	commands := []string{
		fahclient.CommandInfo,
		fahclient.CommandOptions,
		fahclient.CommandSlotInfo,
		fahclient.CommandQueueInfo,
		fahclient.CommandLogRestart,
		fahclient.UpdatesCommand(0, int(poll.Seconds()), fahclient.CommandQueueInfo),
	}
	for _, command := range commands {
		if err := conn.SendCommand(command); err != nil {
			m.logger.Warn("command failed", "client", client.Name, "command", command, "error", err)
			return
		}
	}
}
