package models

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldenServerConf = `[Interface]
Address = 10.253.3.1/24
SaveConfig = true
PrivateKey = P
ListenPort = 51900
DNS = 1.1.1.1
PostUp = iptables -A FORWARD -i %i -j ACCEPT; iptables -A FORWARD -o %i -j ACCEPT; iptables -t nat -A POSTROUTING -o eth0 -j MASQUERADE
PostDown = iptables -D FORWARD -i %i -j ACCEPT; iptables -D FORWARD -o %i -j ACCEPT; iptables -t nat -D POSTROUTING -o eth0 -j MASQUERADE

`

const goldenClientConf = `[Interface]
PrivateKey = C
Address = 10.253.3.2/32
DNS = 1.1.1.1

[Peer]
PublicKey = Q
AllowedIPs = 0.0.0.0/0, ::/0
Endpoint = vpn.example.com:51900

`

func testIdentity() ServerIdentity {
	return ServerIdentity{
		Address:    netip.MustParsePrefix("10.253.3.1/24"),
		Keypair:    Keypair{Private: "P", Public: "Q"},
		ListenPort: DefaultListenPort,
		DNS:        DefaultDNS,
	}
}

func TestRenderServerGolden(t *testing.T) {
	got := RenderServer(testIdentity(), NetworkInterface{Name: "eth0"})
	require.Equal(t, goldenServerConf, got)
}

func TestRenderServerDeterministic(t *testing.T) {
	id := testIdentity()
	iface := NetworkInterface{Name: "ens3"}

	first := RenderServer(id, iface)
	second := RenderServer(id, iface)
	require.Equal(t, first, second)
	require.Equal(t, testIdentity(), id, "identity must not be modified")
}

func TestRenderServerRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		addr string
		priv Key
	}{
		{"10.253.3.1/24", "P"},
		{"192.168.77.1/24", "yAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk="},
		{"172.16.0.1/24", "4NLpNMFB+D1UgfFrmCAmeW6oFIc9KwSBaaaZpWbFyXM="},
	} {
		id := testIdentity()
		id.Address = netip.MustParsePrefix(tc.addr)
		id.Keypair.Private = tc.priv

		conf := RenderServer(id, NetworkInterface{Name: "eth0"})

		addr, ok := LookupField(conf, "Interface", "Address")
		require.True(t, ok)
		assert.Equal(t, tc.addr, addr)

		priv, ok := LookupField(conf, "Interface", "PrivateKey")
		require.True(t, ok)
		assert.Equal(t, string(tc.priv), priv)
	}
}

func TestRenderClientGolden(t *testing.T) {
	peer := ClientPeer{
		Name:    "laptop",
		Keypair: Keypair{Private: "C", Public: "D"},
		Address: netip.MustParseAddr("10.253.3.2"),
	}
	got := RenderClient(peer, "Q", "vpn.example.com", DefaultListenPort, DefaultDNS)
	require.Equal(t, goldenClientConf, got)

	endpoint, ok := LookupField(got, "Peer", "Endpoint")
	require.True(t, ok)
	assert.Equal(t, "vpn.example.com:51900", endpoint)
}

func TestJoinEndpoint(t *testing.T) {
	assert.Equal(t, "vpn.example.com:51900", JoinEndpoint("vpn.example.com", 51900))
	assert.Equal(t, "203.0.113.7:51900", JoinEndpoint("203.0.113.7", 51900))
	assert.Equal(t, "[2001:db8::1]:51900", JoinEndpoint("2001:db8::1", 51900))
}

func TestLookupFieldFirstSectionOnly(t *testing.T) {
	conf := "[Peer]\nPublicKey = A\n\n[Peer]\nPublicKey = B\n"
	v, ok := LookupField(conf, "peer", "publickey")
	require.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = LookupField(conf, "Interface", "PrivateKey")
	assert.False(t, ok)
}
