// SPDX-FileCopyrightText: 2026 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ice

import (
	"net"
	"testing"

	"github.com/pion/logging"
	"github.com/pion/transport/v3/vnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedIPv6(t *testing.T) {
	for _, tc := range []struct {
		ip        string
		supported bool
	}{
		{"2001:db8::1", true},
		{"::ffff:1.2.3.4", false},
		{"::1.2.3.4", false},
		{"fec0::1", false},
		{"fe80::1", false},
		{"ff02::1", false},
		{"1.2.3.4", false},
	} {
		ip := net.ParseIP(tc.ip)
		if ip.To4() != nil {
			ip = ip.To4()
		}
		assert.Equal(t, tc.supported, isSupportedIPv6(ip), tc.ip)
	}
}

func TestNetworkTypeOf(t *testing.T) {
	assert.Equal(t, NetworkTypeUDP4, networkTypeOf(net.ParseIP("10.0.0.1")))
	assert.Equal(t, NetworkTypeUDP6, networkTypeOf(net.ParseIP("2001:db8::1")))
	assert.Equal(t, "udp4", NetworkTypeUDP4.String())
	assert.True(t, NetworkTypeUDP6.IsIPv6())
	assert.False(t, NetworkTypeUDP6.IsIPv4())
}

func TestExternalIPMapper(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		m, err := newExternalIPMapper(nil)
		require.NoError(t, err)
		assert.Nil(t, m)
		assert.Equal(t, "10.0.0.1", m.findExternalIP(net.ParseIP("10.0.0.1")).String())
	})
	t.Run("Sole", func(t *testing.T) {
		m, err := newExternalIPMapper([]string{"203.0.113.1", "2001:db8::1"})
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.1", m.findExternalIP(net.ParseIP("10.0.0.1")).String())
		assert.Equal(t, "203.0.113.1", m.findExternalIP(net.ParseIP("10.0.0.2")).String())
		assert.Equal(t, "2001:db8::1", m.findExternalIP(net.ParseIP("2001:db8::99")).String())
	})
	t.Run("ByLocal", func(t *testing.T) {
		m, err := newExternalIPMapper([]string{"203.0.113.1/10.0.0.1", "203.0.113.2/10.0.0.2"})
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.1", m.findExternalIP(net.ParseIP("10.0.0.1")).String())
		assert.Equal(t, "203.0.113.2", m.findExternalIP(net.ParseIP("10.0.0.2")).String())
		assert.Equal(t, "10.0.0.3", m.findExternalIP(net.ParseIP("10.0.0.3")).String())
	})
	t.Run("Invalid", func(t *testing.T) {
		for _, ips := range [][]string{
			{"bad"},
			{"203.0.113.1/bad"},
			{"203.0.113.1/10.0.0.1/10.0.0.2"},
			{"203.0.113.1", "203.0.113.2"},
			{"203.0.113.1", "203.0.113.2/10.0.0.1"},
			{"203.0.113.1/10.0.0.1", "203.0.113.2/10.0.0.1"},
			{"203.0.113.1/2001:db8::1"},
		} {
			_, err := newExternalIPMapper(ips)
			assert.ErrorIs(t, err, ErrInvalidNAT1To1IPMapping, ips)
		}
	})
}

func TestLocalInterfaces(t *testing.T) {
	n, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{"1.2.3.4"}})
	require.NoError(t, err)
	router, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          "1.2.3.0/24",
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	require.NoError(t, err)
	require.NoError(t, router.AddNet(n))

	udp4 := []NetworkType{NetworkTypeUDP4}

	ips, err := localInterfaces(n, nil, nil, udp4, false)
	require.NoError(t, err)
	require.Len(t, ips, 1)
	assert.Equal(t, "1.2.3.4", ips[0].String())

	ips, err = localInterfaces(n, nil, nil, udp4, true)
	require.NoError(t, err)
	assert.Len(t, ips, 2)

	ips, err = localInterfaces(n, func(name string) bool { return name != "eth0" }, nil, udp4, false)
	require.NoError(t, err)
	assert.Empty(t, ips)

	ips, err = localInterfaces(n, nil, func(ip net.IP) bool { return !ip.Equal(net.IPv4(1, 2, 3, 4)) }, udp4, false)
	require.NoError(t, err)
	assert.Empty(t, ips)

	ips, err = localInterfaces(n, nil, nil, []NetworkType{NetworkTypeUDP6}, false)
	require.NoError(t, err)
	assert.Empty(t, ips)
}

func TestListenUDPInPortRange(t *testing.T) {
	n, err := vnet.NewNet(&vnet.NetConfig{StaticIPs: []string{"1.2.3.4"}})
	require.NoError(t, err)
	router, err := vnet.NewRouter(&vnet.RouterConfig{
		CIDR:          "1.2.3.0/24",
		LoggerFactory: logging.NewDefaultLoggerFactory(),
	})
	require.NoError(t, err)
	require.NoError(t, router.AddNet(n))

	log := logging.NewDefaultLoggerFactory().NewLogger("test")
	laddr := &net.UDPAddr{IP: net.IPv4(1, 2, 3, 4)}

	first, err := listenUDPInPortRange(n, log, 5001, 5000, "udp4", laddr)
	require.NoError(t, err)
	second, err := listenUDPInPortRange(n, log, 5001, 5000, "udp4", laddr)
	require.NoError(t, err)

	ports := []int{
		first.LocalAddr().(*net.UDPAddr).Port,  //nolint:forcetypeassert
		second.LocalAddr().(*net.UDPAddr).Port, //nolint:forcetypeassert
	}
	assert.ElementsMatch(t, []int{5000, 5001}, ports)

	_, err = listenUDPInPortRange(n, log, 5001, 5000, "udp4", laddr)
	assert.ErrorIs(t, err, ErrPort)

	_, err = listenUDPInPortRange(n, log, 4000, 5000, "udp4", laddr)
	assert.ErrorIs(t, err, ErrPort)

	assert.NoError(t, first.Close())
	assert.NoError(t, second.Close())
}
