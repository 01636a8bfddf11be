// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"net"
	"sync"
)

// candidateSocket owns the connection of a local candidate and forwards
// everything it reads to the agent.
type candidateSocket struct {
	conn      net.PacketConn
	candidate *Candidate
	agent     *Agent

	// onClose releases resources tied to the connection, such as a TURN
	// client.
	onClose func() error

	closeOnce sync.Once
	closed    chan struct{}
}

func newCandidateSocket(a *Agent, c *Candidate, conn net.PacketConn, onClose func() error) *candidateSocket {
	return &candidateSocket{
		conn:      conn,
		candidate: c,
		agent:     a,
		onClose:   onClose,
		closed:    make(chan struct{}),
	}
}

func (s *candidateSocket) recvLoop() {
	defer func() {
		close(s.closed)
		s.agent.wg.Done()
	}()

	buffer := make([]byte, receiveMTU)
	for {
		n, srcAddr, err := s.conn.ReadFrom(buffer)
		if err != nil {
			return
		}

		s.agent.handleInbound(s, buffer[:n], srcAddr)
	}
}

func (s *candidateSocket) write(b []byte, dst net.Addr) (int, error) {
	return s.conn.WriteTo(b, dst)
}

// close stops the recvLoop.
func (s *candidateSocket) close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
		if s.onClose != nil {
			if closeErr := s.onClose(); err == nil {
				err = closeErr
			}
		}
	})

	return err
}
