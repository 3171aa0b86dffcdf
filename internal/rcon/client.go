// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

// Package rcon dispatches console commands to the game server over
// the Source RCON protocol, with sanitization, rate limiting, and
// circuit breaking in front of the wire.
package rcon

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/metrics"
)

// Source RCON packet types. Type 2 is SERVERDATA_EXECCOMMAND on the
// request side and SERVERDATA_AUTH_RESPONSE on the response side.
const (
	packetResponse     int32 = 0
	packetCommand      int32 = 2
	packetAuthResponse int32 = 2
	packetAuth         int32 = 3
)

// maxPacketSize bounds the length field of an inbound packet: a 4096
// byte body plus id, type, and the two trailing NULs.
const maxPacketSize = 4106

const defaultTimeout = 5 * time.Second

// ErrAuthFailed is returned when the server rejects the configured
// RCON password.
var ErrAuthFailed = errors.New("rcon: authentication failed")

// Client is a minimal RCON client. It holds one connection, serializes
// commands over it, and reconnects lazily after a failure. Responses
// are read as single frames; outputs beyond the protocol's 4096 byte
// body limit are truncated by the server.
type Client struct {
	addr     string
	password string
	timeout  time.Duration

	mu     sync.Mutex
	conn   net.Conn
	nextID int32
	everUp bool
}

// NewClient creates a client for the configured RCON listener. No
// connection is made until the first command.
func NewClient(cfg *config.RCONConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		addr:     cfg.Address,
		password: cfg.Password,
		timeout:  timeout,
	}
}

// Connect dials and authenticates eagerly. Execute does this lazily,
// so Connect exists for startup validation.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureConnected(ctx)
}

// Execute sends one command and returns the server's response body.
// On any wire error the connection is dropped so the next call dials
// fresh.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(ctx); err != nil {
		return "", err
	}

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		c.drop()
		return "", fmt.Errorf("rcon: set deadline: %w", err)
	}

	id := c.claimID()
	if err := writePacket(c.conn, id, packetCommand, command); err != nil {
		c.drop()
		return "", fmt.Errorf("rcon: write command: %w", err)
	}

	respID, respType, body, err := readPacket(c.conn)
	if err != nil {
		c.drop()
		return "", fmt.Errorf("rcon: read response: %w", err)
	}
	if respType != packetResponse || respID != id {
		c.drop()
		return "", fmt.Errorf("rcon: unexpected response (id=%d type=%d)", respID, respType)
	}
	return body, nil
}

// Close shuts the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ensureConnected dials and authenticates when no connection is held.
// Callers hold c.mu.
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("rcon: dial %s: %w", c.addr, err)
	}

	if err := conn.SetDeadline(c.deadline(ctx)); err != nil {
		conn.Close()
		return fmt.Errorf("rcon: set deadline: %w", err)
	}
	if err := c.authenticate(conn); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	if c.everUp {
		metrics.RCONReconnects.Inc()
	}
	c.everUp = true
	return nil
}

// authenticate performs the AUTH handshake. Source servers may send
// an empty RESPONSE_VALUE before the AUTH_RESPONSE, so up to two
// frames are read.
func (c *Client) authenticate(conn net.Conn) error {
	id := c.claimID()
	if err := writePacket(conn, id, packetAuth, c.password); err != nil {
		return fmt.Errorf("rcon: write auth: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		respID, respType, _, err := readPacket(conn)
		if err != nil {
			return fmt.Errorf("rcon: read auth response: %w", err)
		}
		if respType == packetResponse {
			continue
		}
		if respType != packetAuthResponse {
			return fmt.Errorf("rcon: unexpected auth response type %d", respType)
		}
		if respID != id {
			return ErrAuthFailed
		}
		return nil
	}
	return fmt.Errorf("rcon: no auth response received")
}

func (c *Client) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

// claimID hands out request IDs, skipping non-positive values since
// servers use -1 to signal auth failure.
func (c *Client) claimID() int32 {
	c.nextID++
	if c.nextID <= 0 {
		c.nextID = 1
	}
	return c.nextID
}

// drop closes and forgets the connection. Callers hold c.mu.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// writePacket frames and sends one packet: little-endian length, id,
// and type, then the body and two NUL terminators.
func writePacket(w io.Writer, id, packetType int32, body string) error {
	buf := make([]byte, 12+len(body)+2)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)-4))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(id))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(packetType))
	copy(buf[12:], body)

	_, err := w.Write(buf)
	return err
}

// readPacket reads one frame and returns its id, type, and body.
func readPacket(r io.Reader) (int32, int32, string, error) {
	var head [4]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, 0, "", err
	}

	length := int32(binary.LittleEndian.Uint32(head[:]))
	if length < 10 || length > maxPacketSize {
		return 0, 0, "", fmt.Errorf("invalid packet length %d", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, 0, "", err
	}

	id := int32(binary.LittleEndian.Uint32(payload[0:4]))
	packetType := int32(binary.LittleEndian.Uint32(payload[4:8]))
	body := string(payload[8 : length-2])
	return id, packetType, body, nil
}
