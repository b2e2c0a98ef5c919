package models

import (
	"fmt"
	"net/netip"
	"strconv"
)

const (
	DefaultListenPort = 51900
	ipv4HostMask      = 32
)

var (
	DefaultDNS = netip.MustParseAddr("1.1.1.1")

	allDefaultAllowedIps = [...]string{"0.0.0.0/0", "::/0"}
)

// wg-quick expands %i to the tunnel interface name
const (
	natUpFormat   = "iptables -A FORWARD -i %%i -j ACCEPT; iptables -A FORWARD -o %%i -j ACCEPT; iptables -t nat -A POSTROUTING -o %s -j MASQUERADE"
	natDownFormat = "iptables -D FORWARD -i %%i -j ACCEPT; iptables -D FORWARD -o %%i -j ACCEPT; iptables -t nat -D POSTROUTING -o %s -j MASQUERADE"
)

// RenderServer renders the wg-quick config of the server. SaveConfig is set so
// that peers added to the running interface are written back on shutdown.
func RenderServer(id ServerIdentity, egress NetworkInterface) string {
	conf := ServerConfig{
		Intrfc: ServerInterface{
			Address:    []string{id.Address.String()},
			SaveConfig: true,
			Priv:       id.Keypair.Private,
			ListenPort: int32(id.ListenPort),
			Dns:        []string{id.DNS.String()},
			PostUp:     []string{fmt.Sprintf(natUpFormat, egress.Name)},
			PostDown:   []string{fmt.Sprintf(natDownFormat, egress.Name)},
		},
	}
	return mustMarshal(conf)
}

// RenderClient renders the config handed to a client. All IPv4 and IPv6
// traffic is routed through the server.
func RenderClient(peer ClientPeer, serverPub Key, endpoint string, listenPort uint16, dns netip.Addr) string {
	conf := ClientConfig{
		Intrfc: Interface{
			Priv:    peer.Keypair.Private,
			Address: []string{netip.PrefixFrom(peer.Address, ipv4HostMask).String()},
			Dns:     []string{dns.String()},
		},
		Config: Config{
			Peer: []Peer{
				{
					Pub:      serverPub,
					Ips:      allDefaultAllowedIps[:],
					Endpoint: JoinEndpoint(endpoint, listenPort),
				},
			},
		},
	}
	return mustMarshal(conf)
}

// JoinEndpoint appends the listen port to a host name or address.
// IPv6 literals are bracketed.
func JoinEndpoint(host string, port uint16) string {
	if addr, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(addr, port).String()
	}
	return host + ":" + strconv.Itoa(int(port))
}

func mustMarshal(v interface{ MarshalText() ([]byte, error) }) string {
	// the conf marshaller only fails on buffer writes, which do not fail
	buf, err := v.MarshalText()
	if err != nil {
		panic(err)
	}
	return string(buf)
}
