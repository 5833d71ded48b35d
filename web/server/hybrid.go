package server

import (
	"bufio"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// DefaultPeekTimeout is the time a new connection has to send its first bytes
// when no other timeout is given.
const DefaultPeekTimeout = 10 * time.Second

// PeekConn is a buffered Conn for peeking into the connection.
type PeekConn struct {
	net.Conn
	r *bufio.Reader
}

// Read reads data from the connection using the buffered reader.
// This ensures that any data previously peeked is properly read from the buffer.
func (c *PeekConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

// Peek returns the next n bytes without advancing the reader.
// The bytes stop being valid at the next read call.
func (c *PeekConn) Peek(n int) ([]byte, error) {
	return c.r.Peek(n)
}

func newPeekConn(c net.Conn) *PeekConn {
	return &PeekConn{c, bufio.NewReader(c)}
}

// HybridListener inspects the first bytes of the connection to determine
// whether to serve unencrypted HTTP or TLS. This allows using the same TCP port
// for both.
// Connections are inspected in their own goroutine, so a client that connects
// and sends nothing doesn't hold up other clients. It is dropped once the peek
// timeout expires.
// Source: https://github.com/foreverzmy/http-s-listen-same-port/
type HybridListener struct {
	net.Listener
	tlsConfig   *tls.Config
	peekTimeout time.Duration
	logger      *slog.Logger

	conns     chan net.Conn
	errs      chan error
	done      chan struct{}
	closeOnce sync.Once
}

var _ net.Listener = (*HybridListener)(nil)

// NewHybridListener wraps ln and starts accepting connections from it. A
// peekTimeout of 0 uses DefaultPeekTimeout.
func NewHybridListener(
	ln net.Listener, tlsConfig *tls.Config, peekTimeout time.Duration, logger *slog.Logger,
) *HybridListener {
	if peekTimeout <= 0 {
		peekTimeout = DefaultPeekTimeout
	}
	hl := &HybridListener{
		Listener:    ln,
		tlsConfig:   tlsConfig,
		peekTimeout: peekTimeout,
		logger:      logger,
		conns:       make(chan net.Conn),
		errs:        make(chan error),
		done:        make(chan struct{}),
	}
	go hl.acceptLoop()

	return hl
}

// Accept waits for and returns the next connection to the listener. It returns
// either a TLS-wrapped connection or a plain HTTP connection, depending on
// whether the client started with a TLS handshake.
func (ln *HybridListener) Accept() (net.Conn, error) {
	select {
	case conn := <-ln.conns:
		return conn, nil
	case err := <-ln.errs:
		return nil, err
	case <-ln.done:
		return nil, net.ErrClosed
	}
}

// Close stops accepting connections and closes the underlying listener.
func (ln *HybridListener) Close() error {
	ln.closeOnce.Do(func() { close(ln.done) })
	return ln.Listener.Close() //nolint:wrapcheck // net/http checks for net.ErrClosed.
}

func (ln *HybridListener) acceptLoop() {
	for {
		conn, err := ln.Listener.Accept()
		if err != nil {
			select {
			case ln.errs <- err:
			case <-ln.done:
				return
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		go ln.sniff(conn)
	}
}

// sniff peeks into conn and hands it to Accept, wrapped according to its
// protocol. Connections that send nothing before the peek timeout, or close
// before sending anything, are dropped.
func (ln *HybridListener) sniff(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	peekConn := newPeekConn(conn)

	if err := conn.SetReadDeadline(time.Now().Add(ln.peekTimeout)); err != nil {
		ln.logger.Debug("failed setting peek deadline", "remote_addr", remoteAddr, "error", err.Error())
		_ = conn.Close()
		return
	}
	b, err := peekConn.Peek(3)
	if err != nil && (len(b) == 0 || !errors.Is(err, io.EOF)) {
		ln.logger.Debug("failed peeking into connection", "remote_addr", remoteAddr, "error", err.Error())
		_ = conn.Close()
		return
	}
	if err = conn.SetReadDeadline(time.Time{}); err != nil {
		ln.logger.Debug("failed clearing peek deadline", "remote_addr", remoteAddr, "error", err.Error())
		_ = conn.Close()
		return
	}

	var out net.Conn = peekConn
	if isTLSHandshake(b) {
		ln.logger.Debug("accepting TLS connection", "remote_addr", remoteAddr)
		out = tls.Server(peekConn, ln.tlsConfig)
	} else {
		ln.logger.Debug("accepting HTTP connection", "remote_addr", remoteAddr)
	}

	select {
	case ln.conns <- out:
	case <-ln.done:
		_ = conn.Close()
	}
}

// isTLSHandshake reports whether b starts with a TLS handshake record header
// (content type 0x16, protocol version 3.x).
func isTLSHandshake(b []byte) bool {
	return len(b) >= 3 && b[0] == 0x16 && b[1] == 0x03 && b[2] <= 0x03
}
