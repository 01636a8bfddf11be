// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"errors"
	"net"
	"net/url"
	"strconv"

	"github.com/pion/icelite/stun"
)

// SchemeType indicates the type of server used in the ice.URL structure.
type SchemeType int

// SchemeType enum.
const (
	SchemeTypeUnknown SchemeType = iota

	// SchemeTypeSTUN indicates the URL represents a STUN server.
	SchemeTypeSTUN

	// SchemeTypeSTUNS indicates the URL represents a STUNS (secure) server.
	SchemeTypeSTUNS

	// SchemeTypeTURN indicates the URL represents a TURN server.
	SchemeTypeTURN

	// SchemeTypeTURNS indicates the URL represents a TURNS (secure) server.
	SchemeTypeTURNS
)

// NewSchemeType creates a SchemeType from a raw scheme name.
func NewSchemeType(raw string) SchemeType {
	switch raw {
	case "stun":
		return SchemeTypeSTUN
	case "stuns":
		return SchemeTypeSTUNS
	case "turn":
		return SchemeTypeTURN
	case "turns":
		return SchemeTypeTURNS
	default:
		return SchemeTypeUnknown
	}
}

func (t SchemeType) String() string {
	switch t {
	case SchemeTypeSTUN:
		return "stun"
	case SchemeTypeSTUNS:
		return "stuns"
	case SchemeTypeTURN:
		return "turn"
	case SchemeTypeTURNS:
		return "turns"
	default:
		return errSchemeType.Error()
	}
}

// ProtoType indicates the transport protocol type that is used in the ice.URL
// structure.
type ProtoType int

// ProtoType enum.
const (
	ProtoTypeUnknown ProtoType = iota

	// ProtoTypeUDP indicates the URL uses a UDP transport.
	ProtoTypeUDP

	// ProtoTypeTCP indicates the URL uses a TCP transport.
	ProtoTypeTCP
)

// NewProtoType creates a ProtoType from a raw transport name.
func NewProtoType(raw string) ProtoType {
	switch raw {
	case "udp":
		return ProtoTypeUDP
	case "tcp":
		return ProtoTypeTCP
	default:
		return ProtoTypeUnknown
	}
}

func (t ProtoType) String() string {
	switch t {
	case ProtoTypeUDP:
		return "udp"
	case ProtoTypeTCP:
		return "tcp"
	default:
		return errProtoType.Error()
	}
}

// URL represents a STUN (RFC 7064) or TURN (RFC 7065) URL.
type URL struct {
	Scheme   SchemeType
	Host     string
	Port     int
	Username string
	Password string
	Proto    ProtoType
}

// ParseURL parses a STUN or TURN URL following the ABNF syntax described in
// RFC 7064 and RFC 7065.
func ParseURL(raw string) (*URL, error) {
	rawParts, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	var u URL
	u.Scheme = NewSchemeType(rawParts.Scheme)
	if u.Scheme == SchemeTypeUnknown {
		return nil, errSchemeType
	}

	var rawPort string
	if u.Host, rawPort, err = net.SplitHostPort(rawParts.Opaque); err != nil {
		var addrErr *net.AddrError
		if !errors.As(err, &addrErr) || addrErr.Err != "missing port in address" {
			return nil, err
		}
		u.Host = rawParts.Opaque
		rawPort = strconv.Itoa(stun.DefaultPort)
		if u.Scheme == SchemeTypeSTUNS || u.Scheme == SchemeTypeTURNS {
			rawPort = strconv.Itoa(stun.DefaultTLSPort)
		}
	}

	if u.Host == "" {
		return nil, errHost
	}

	if u.Port, err = strconv.Atoi(rawPort); err != nil || u.Port <= 0 || u.Port > 65535 {
		return nil, errPortURL
	}

	switch u.Scheme {
	case SchemeTypeSTUN, SchemeTypeSTUNS:
		qArgs, err := url.ParseQuery(rawParts.RawQuery)
		if err != nil || len(qArgs) > 0 {
			return nil, errSTUNQuery
		}
		u.Proto = ProtoTypeUDP
		if u.Scheme == SchemeTypeSTUNS {
			u.Proto = ProtoTypeTCP
		}
	case SchemeTypeTURN, SchemeTypeTURNS:
		if u.Proto, err = parseProto(rawParts.RawQuery); err != nil {
			return nil, err
		}
		if u.Proto == ProtoTypeUnknown {
			u.Proto = ProtoTypeUDP
			if u.Scheme == SchemeTypeTURNS {
				u.Proto = ProtoTypeTCP
			}
		}
	case SchemeTypeUnknown:
	}

	return &u, nil
}

func parseProto(raw string) (ProtoType, error) {
	qArgs, err := url.ParseQuery(raw)
	if err != nil || len(qArgs) > 1 {
		return ProtoTypeUnknown, errInvalidQuery
	}

	if rawProto := qArgs.Get("transport"); rawProto != "" {
		proto := NewProtoType(rawProto)
		if proto == ProtoTypeUnknown {
			return ProtoTypeUnknown, errProtoType
		}

		return proto, nil
	}

	if len(qArgs) > 0 {
		return ProtoTypeUnknown, errInvalidQuery
	}

	return ProtoTypeUnknown, nil
}

func (u URL) String() string {
	rawURL := u.Scheme.String() + ":" + net.JoinHostPort(u.Host, strconv.Itoa(u.Port))
	if u.Scheme == SchemeTypeTURN || u.Scheme == SchemeTypeTURNS {
		rawURL += "?transport=" + u.Proto.String()
	}

	return rawURL
}

// IsSecure returns whether the this URL's scheme describes secure scheme or not.
func (u URL) IsSecure() bool {
	return u.Scheme == SchemeTypeSTUNS || u.Scheme == SchemeTypeTURNS
}
