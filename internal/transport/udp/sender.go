// SPDX-License-Identifier: MIT

// Package udp sends spectrogram columns as datagrams.
package udp

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"time"

	applog "spectro/internal/log"
	"spectro/internal/transport"
)

var logger = applog.Named("udp")

// Sender writes one packet per column to a fixed target.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex // guards everything below
	seq    uint32
	buf    bytes.Buffer
	closed bool
}

// NewSender dials targetAddress, e.g. "127.0.0.1:9090".
func NewSender(targetAddress string) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}

	// No local bind needed for sending.
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}

	logger.Infof("sending to %s", conn.RemoteAddr())
	return &Sender{conn: conn}, nil
}

// Send packs and transmits one column.
func (s *Sender) Send(column int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return transport.ErrClosed
	}

	p := Packet{
		Sequence:  s.seq + 1,
		Timestamp: time.Now().UnixNano(),
		Column:    uint32(column),
		Data:      data,
	}
	if err := p.encode(&s.buf); err != nil {
		return err
	}
	if _, err := s.conn.Write(s.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	s.seq = p.Sequence
	logger.Debugf("sent packet %d (%d bytes)", s.seq, s.buf.Len())
	return nil
}

// Close closes the underlying connection.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	logger.Infof("closing connection to %s after %d packets", s.conn.RemoteAddr(), s.seq)
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ transport.Sink = (*Sender)(nil)
