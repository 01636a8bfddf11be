// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package stuntest contains helpers for testing STUN clients
package stuntest

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/pion/icelite/stun"
	"github.com/stretchr/testify/assert"
)

var errUDPServerUnsupportedNetwork = errors.New("unsupported network")

// Handler answers a datagram received from addr. A nil response with a nil
// error sends nothing back.
type Handler func(req []byte, from net.Addr) ([]byte, error)

// NewUDPServer creates an udp server for testing.
// The supplied handler function will be called with the request
// and should be used to emulate the server behavior.
func NewUDPServer(
	t *testing.T,
	network string,
	maxMessageSize int,
	handler Handler,
) (*net.UDPAddr, func(t *testing.T), error) {
	t.Helper()

	var ip string
	switch network {
	case "udp4":
		ip = "127.0.0.1"
	case "udp6":
		ip = "::1"
	default:
		return nil, nil, fmt.Errorf("%w: %s", errUDPServerUnsupportedNetwork, network)
	}

	udpConn, err := net.ListenUDP(network, &net.UDPAddr{IP: net.ParseIP(ip), Port: 0})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on %s: %w", ip, err)
	}
	serverAddr := udpConn.LocalAddr().(*net.UDPAddr) //nolint:forcetypeassert

	errCh := make(chan error, 1)
	go func() {
		for {
			bs := make([]byte, maxMessageSize)
			n, addr, err := udpConn.ReadFrom(bs)
			if err != nil {
				errCh <- err

				return
			}

			resp, err := handler(bs[:n], addr)
			if err != nil {
				errCh <- err

				return
			}
			if resp == nil {
				continue
			}

			if _, err = udpConn.WriteTo(resp, addr); err != nil {
				errCh <- err

				return
			}
		}
	}()

	return serverAddr, func(t *testing.T) {
		t.Helper()

		select {
		case err := <-errCh:
			if err != nil {
				assert.NoError(t, err)

				return
			}
		default:
		}

		assert.NoError(t, udpConn.Close())
		<-errCh
	}, nil
}

// BindingHandler returns a Handler acting as a STUN binding server. The
// reflexive address reported to a client is mapped(from); a nil mapped
// reports the observed source address. Datagrams that are not binding
// requests are ignored.
func BindingHandler(mapped func(from *net.UDPAddr) *net.UDPAddr) Handler {
	return func(req []byte, from net.Addr) ([]byte, error) {
		msg, err := stun.Decode(req)
		if err != nil || msg.Type != stun.BindingRequest {
			return nil, nil //nolint:nilerr
		}
		udpAddr, ok := from.(*net.UDPAddr)
		if !ok {
			return nil, nil
		}
		if mapped != nil {
			udpAddr = mapped(udpAddr)
		}
		resp, err := stun.Build(msg, stun.BindingSuccess,
			&stun.XORMappedAddress{IP: udpAddr.IP, Port: udpAddr.Port},
			stun.NewSoftware("stuntest"),
			stun.Fingerprint,
		)
		if err != nil {
			return nil, err
		}

		return resp.Raw, nil
	}
}

// SilentHandler drops every datagram.
func SilentHandler(_ []byte, _ net.Addr) ([]byte, error) {
	return nil, nil
}
