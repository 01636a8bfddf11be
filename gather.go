// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/pion/dtls/v3"
	"github.com/pion/icelite/stun"
	"github.com/pion/logging"
	"github.com/pion/transport/v3"
	"github.com/pion/turn/v4"
	"golang.org/x/net/proxy"
)

// emitFunc hands a gathered candidate and its socket to the agent. When it
// returns an error the gatherer releases the socket.
type emitFunc func(c *Candidate, conn net.PacketConn, onClose func() error) error

type closeable interface {
	Close() error
}

// Close a net.Conn and log if we have a failure.
func closeConnAndLog(c closeable, log logging.LeveledLogger, msg string, args ...interface{}) {
	if c == nil {
		log.Warnf("Conn is not allocated (%s)", fmt.Sprintf(msg, args...))

		return
	}

	log.Warnf(msg, args...)
	if err := c.Close(); err != nil {
		log.Warnf("Failed to close conn: %v", err)
	}
}

// fakePacketConn wraps a net.Conn and emulates net.PacketConn.
type fakePacketConn struct {
	nextConn net.Conn
}

func (f *fakePacketConn) ReadFrom(p []byte) (n int, addr net.Addr, err error) {
	n, err = f.nextConn.Read(p)
	addr = f.nextConn.RemoteAddr()

	return
}
func (f *fakePacketConn) Close() error                       { return f.nextConn.Close() }
func (f *fakePacketConn) LocalAddr() net.Addr                { return f.nextConn.LocalAddr() }
func (f *fakePacketConn) SetDeadline(t time.Time) error      { return f.nextConn.SetDeadline(t) }
func (f *fakePacketConn) SetReadDeadline(t time.Time) error  { return f.nextConn.SetReadDeadline(t) }
func (f *fakePacketConn) SetWriteDeadline(t time.Time) error { return f.nextConn.SetWriteDeadline(t) }
func (f *fakePacketConn) WriteTo(p []byte, _ net.Addr) (n int, err error) {
	return f.nextConn.Write(p)
}

// gatherer produces local candidates: host candidates on every usable
// local IP, server reflexive candidates from STUN servers and relayed
// candidates from TURN servers.
type gatherer struct {
	net           transport.Net
	log           logging.LeveledLogger
	loggerFactory logging.LoggerFactory

	portMin, portMax   uint16
	networkTypes       []NetworkType
	candidateTypes     []CandidateType
	interfaceFilter    func(string) bool
	ipFilter           func(net.IP) bool
	includeLoopback    bool
	extIPMapper        *externalIPMapper
	insecureSkipVerify bool
	proxyDialer        proxy.Dialer
	stunTimeout        time.Duration
}

// gather runs every enabled candidate source. Host candidates are emitted
// first; STUN and TURN servers are then queried concurrently. A failing
// source does not stop the others: its error is wrapped in
// ErrGatheringFailed and joined into the returned error.
func (g *gatherer) gather(ctx context.Context, urls []*URL, emit emitFunc) error {
	var (
		mu     sync.Mutex
		errs   []error
		hostIP []net.IP
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, fmt.Errorf("%w: %w", ErrGatheringFailed, err))
		mu.Unlock()
	}

	if containsCandidateType(CandidateTypeHost, g.candidateTypes) {
		ips, err := g.gatherHost(emit)
		if err != nil {
			fail(err)
		}
		hostIP = ips
	}

	var wg sync.WaitGroup
	if containsCandidateType(CandidateTypeServerReflexive, g.candidateTypes) {
		for _, networkType := range g.networkTypes {
			for _, u := range urls {
				if u.Scheme != SchemeTypeSTUN {
					continue
				}
				wg.Add(1)
				go func(u URL, network string) {
					defer wg.Done()
					if err := g.gatherSrflx(ctx, u, network, hostIP, emit); err != nil {
						fail(err)
					}
				}(*u, networkType.String())
			}
		}
	}
	if containsCandidateType(CandidateTypeRelay, g.candidateTypes) {
		for _, u := range urls {
			if u.Scheme != SchemeTypeTURN && u.Scheme != SchemeTypeTURNS {
				continue
			}
			wg.Add(1)
			go func(u URL) {
				defer wg.Done()
				if err := g.gatherRelay(ctx, u, emit); err != nil {
					fail(err)
				}
			}(*u)
		}
	}
	wg.Wait()

	for _, err := range errs {
		g.log.Warnf("%v", err)
	}

	return errors.Join(errs...)
}

func containsCandidateType(t CandidateType, types []CandidateType) bool {
	for _, typ := range types {
		if typ == t {
			return true
		}
	}

	return false
}

// gatherHost binds one socket per usable local IP and returns the IPs
// that produced a candidate.
func (g *gatherer) gatherHost(emit emitFunc) ([]net.IP, error) {
	localIPs, err := localInterfaces(g.net, g.interfaceFilter, g.ipFilter, g.networkTypes, g.includeLoopback)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate local interfaces: %w", err)
	}

	var gathered []net.IP
	for _, ip := range localIPs {
		network := networkTypeOf(ip).String()
		conn, err := listenUDPInPortRange(g.net, g.log, int(g.portMax), int(g.portMin), network, &net.UDPAddr{IP: ip, Port: 0})
		if err != nil {
			g.log.Warnf("Could not listen %s %s: %v", network, ip, err)

			continue
		}

		laddr, ok := conn.LocalAddr().(*net.UDPAddr)
		if !ok {
			closeConnAndLog(conn, g.log, "%v: %T", errUnexpectedAddr, conn.LocalAddr())

			continue
		}
		mappedIP := g.extIPMapper.findExternalIP(ip)

		c, err := newCandidateFromConfig(&CandidateConfig{
			Type:      CandidateTypeHost,
			Address:   mappedIP.String(),
			Port:      laddr.Port,
			Component: ComponentRTP,
		})
		if err != nil {
			closeConnAndLog(conn, g.log, "Failed to create host candidate: %s %s %d: %v", network, mappedIP, laddr.Port, err)

			continue
		}
		if err := emit(c, conn, nil); err != nil {
			closeConnAndLog(conn, g.log, "Failed to add host candidate %s: %v", c, err)

			continue
		}
		gathered = append(gathered, ip, mappedIP)
	}

	return gathered, nil
}

func (g *gatherer) gatherSrflx(ctx context.Context, u URL, network string, hostIPs []net.IP, emit emitFunc) error {
	hostPort := net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
	serverAddr, err := g.net.ResolveUDPAddr(network, hostPort)
	if err != nil {
		return fmt.Errorf("failed to resolve stun host %s: %w", hostPort, err)
	}

	conn, err := listenUDPInPortRange(g.net, g.log, int(g.portMax), int(g.portMin), network, &net.UDPAddr{IP: nil, Port: 0})
	if err != nil {
		return fmt.Errorf("failed to listen for %s: %w", serverAddr, err)
	}

	mapped, err := g.queryMappedAddress(ctx, conn, serverAddr)
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("could not get server reflexive address %s %s: %w", network, u, err)
	}

	for _, ip := range hostIPs {
		if ip.Equal(mapped.IP) {
			g.log.Debugf("Discarding redundant server reflexive address %s", mapped)
			_ = conn.Close()

			return nil
		}
	}

	laddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		_ = conn.Close()

		return errUnexpectedAddr
	}
	c, err := newCandidateFromConfig(&CandidateConfig{
		Type:      CandidateTypeServerReflexive,
		Address:   mapped.IP.String(),
		Port:      mapped.Port,
		Component: ComponentRTP,
		ServerURL: u.String(),
		RelatedAddress: &CandidateRelatedAddress{
			Address: laddr.IP.String(),
			Port:    laddr.Port,
		},
	})
	if err != nil {
		_ = conn.Close()

		return fmt.Errorf("failed to create server reflexive candidate %s: %w", mapped, err)
	}
	if err := emit(c, conn, nil); err != nil {
		closeConnAndLog(conn, g.log, "Failed to add server reflexive candidate %s: %v", c, err)
	}

	return nil
}

// queryMappedAddress sends a binding request to server and retransmits it,
// doubling the interval, until a response arrives or stunTimeout elapses.
func (g *gatherer) queryMappedAddress(ctx context.Context, conn net.PacketConn, server net.Addr) (*net.UDPAddr, error) { //nolint:cyclop
	req, err := stun.Build(stun.TransactionID, stun.BindingRequest, stun.Fingerprint)
	if err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()
	defer func() {
		_ = conn.SetReadDeadline(time.Time{})
	}()

	deadline := time.Now().Add(g.stunTimeout)
	rto := defaultInitialRTO / 2
	buf := make([]byte, receiveMTU)
	for {
		if _, err = conn.WriteTo(req.Raw, server); err != nil {
			return nil, err
		}
		wait := time.Now().Add(rto)
		if wait.After(deadline) {
			wait = deadline
		}
		if err = conn.SetReadDeadline(wait); err != nil {
			return nil, err
		}

		for {
			n, _, readErr := conn.ReadFrom(buf)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if readErr != nil {
				var netErr net.Error
				if errors.As(readErr, &netErr) && netErr.Timeout() {
					break
				}

				return nil, readErr
			}

			res, decodeErr := stun.Decode(buf[:n])
			if decodeErr != nil {
				g.log.Warnf("Dropping malformed STUN response from %s: %v", server, decodeErr)

				continue
			}
			if res.TransactionID != req.TransactionID {
				continue
			}
			if err = res.CheckPresent(map[stun.AttrType]stun.Checker{
				stun.AttrFingerprint: stun.Fingerprint,
			}); err != nil {
				return nil, err
			}
			if res.Type != stun.BindingSuccess {
				var code stun.ErrorCodeAttribute
				_ = code.GetFrom(res)

				return nil, fmt.Errorf("%w: %s %s", errBindingFailed, res.Type, code)
			}
			addr, addrErr := stun.ResponseAddress(res)
			if addrErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoMappedAddress, addrErr) //nolint:errorlint
			}

			return addr, nil
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: no response from %s within %s", errBindingFailed, server, g.stunTimeout)
		}
		rto *= 2
	}
}

func (g *gatherer) gatherRelay(ctx context.Context, u URL, emit emitFunc) error { //nolint:cyclop
	switch {
	case u.Username == "":
		return fmt.Errorf("%s: %w", u, ErrUsernameEmpty)
	case u.Password == "":
		return fmt.Errorf("%s: %w", u, ErrPasswordEmpty)
	}

	network := NetworkTypeUDP4.String()
	turnServerAddr := net.JoinHostPort(u.Host, strconv.Itoa(u.Port))

	var (
		locConn net.PacketConn
		relAddr string
		relPort int
	)

	switch {
	case u.Proto == ProtoTypeUDP && u.Scheme == SchemeTypeTURN:
		conn, err := g.net.ListenPacket(network, "0.0.0.0:0")
		if err != nil {
			return fmt.Errorf("failed to listen %s: %w", network, err)
		}
		addr, ok := conn.LocalAddr().(*net.UDPAddr)
		if !ok {
			_ = conn.Close()

			return errUnexpectedAddr
		}
		locConn, relAddr, relPort = conn, addr.IP.String(), addr.Port
	case u.Proto == ProtoTypeTCP && u.Scheme == SchemeTypeTURN:
		var (
			conn net.Conn
			err  error
		)
		if g.proxyDialer != nil {
			conn, err = g.proxyDialer.Dial("tcp4", turnServerAddr)
		} else {
			conn, err = g.net.Dial("tcp4", turnServerAddr)
		}
		if err != nil {
			return fmt.Errorf("failed to dial TCP address %s: %w", turnServerAddr, err)
		}
		addr, ok := conn.LocalAddr().(*net.TCPAddr)
		if !ok {
			_ = conn.Close()

			return errUnexpectedAddr
		}
		locConn, relAddr, relPort = turn.NewSTUNConn(conn), addr.IP.String(), addr.Port
	case u.Proto == ProtoTypeUDP && u.Scheme == SchemeTypeTURNS:
		udpAddr, err := g.net.ResolveUDPAddr(network, turnServerAddr)
		if err != nil {
			return fmt.Errorf("failed to resolve UDP address %s: %w", turnServerAddr, err)
		}
		conn, err := dtls.Dial(network, udpAddr, &dtls.Config{
			ServerName:         u.Host,
			InsecureSkipVerify: g.insecureSkipVerify, //nolint:gosec
		})
		if err != nil {
			return fmt.Errorf("failed to dial DTLS address %s: %w", turnServerAddr, err)
		}
		if err = conn.HandshakeContext(ctx); err != nil {
			_ = conn.Close()

			return fmt.Errorf("DTLS handshake with %s failed: %w", turnServerAddr, err)
		}
		addr, ok := conn.LocalAddr().(*net.UDPAddr)
		if !ok {
			_ = conn.Close()

			return errUnexpectedAddr
		}
		locConn, relAddr, relPort = &fakePacketConn{conn}, addr.IP.String(), addr.Port
	case u.Proto == ProtoTypeTCP && u.Scheme == SchemeTypeTURNS:
		dialer := &tls.Dialer{Config: &tls.Config{
			ServerName:         u.Host,
			InsecureSkipVerify: g.insecureSkipVerify, //nolint:gosec
		}}
		conn, err := dialer.DialContext(ctx, "tcp4", turnServerAddr)
		if err != nil {
			return fmt.Errorf("failed to dial TLS address %s: %w", turnServerAddr, err)
		}
		addr, ok := conn.LocalAddr().(*net.TCPAddr)
		if !ok {
			_ = conn.Close()

			return errUnexpectedAddr
		}
		locConn, relAddr, relPort = turn.NewSTUNConn(conn), addr.IP.String(), addr.Port
	default:
		return fmt.Errorf("%w: unable to handle URL %s", errProtoType, u)
	}

	client, err := turn.NewClient(&turn.ClientConfig{
		TURNServerAddr: turnServerAddr,
		Conn:           locConn,
		Username:       u.Username,
		Password:       u.Password,
		LoggerFactory:  g.loggerFactory,
	})
	if err != nil {
		_ = locConn.Close()

		return fmt.Errorf("failed to build new turn.Client %s: %w", turnServerAddr, err)
	}
	var releaseOnce sync.Once
	release := func() (err error) {
		releaseOnce.Do(func() {
			client.Close()
			err = locConn.Close()
		})

		return err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = release()
	})
	if err = client.Listen(); err != nil {
		stop()
		_ = release()

		return fmt.Errorf("failed to listen on turn.Client %s: %w", turnServerAddr, err)
	}

	relayConn, err := client.Allocate()
	if !stop() {
		if err == nil {
			_ = relayConn.Close()
		}

		return fmt.Errorf("allocation on %s: %w", turnServerAddr, context.Cause(ctx))
	}
	if err != nil {
		_ = release()

		return fmt.Errorf("failed to allocate on turn.Client %s: %w", turnServerAddr, err)
	}

	raddr, ok := relayConn.LocalAddr().(*net.UDPAddr)
	if !ok {
		_ = relayConn.Close()
		_ = release()

		return errUnexpectedAddr
	}
	c, err := newCandidateFromConfig(&CandidateConfig{
		Type:      CandidateTypeRelay,
		Address:   raddr.IP.String(),
		Port:      raddr.Port,
		Component: ComponentRTP,
		ServerURL: u.String(),
		RelatedAddress: &CandidateRelatedAddress{
			Address: relAddr,
			Port:    relPort,
		},
	})
	if err != nil {
		_ = relayConn.Close()
		_ = release()

		return fmt.Errorf("failed to create relay candidate %s: %w", raddr, err)
	}

	if err := emit(c, relayConn, release); err != nil {
		closeConnAndLog(relayConn, g.log, "Failed to add relay candidate %s: %v", c, err)
		_ = release()
	}

	return nil
}
