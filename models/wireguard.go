package models

import "net/netip"

// Key is key material as printed by `wg genkey` / `wg pubkey`. It is never decoded here.
type Key string

type Keypair struct {
	Private Key
	Public  Key
}

type ServerIdentity struct {
	// Address is the server's tunnel address; its /24 is the client address space.
	Address    netip.Prefix
	Keypair    Keypair
	ListenPort uint16
	DNS        netip.Addr
}

type NetworkInterface struct {
	Name string
}

type ClientPeer struct {
	Name    string
	Keypair Keypair
	Address netip.Addr
}

// --- wg-quick conf sections, field order is output order ---

// Peer is a [Peer] section. roadguard leaves KeepAlive zero, which omits
// PersistentKeepalive; the field stays so hand-built configs can set it.
type Peer struct {
	Pub       Key      `toml:"PublicKey"`
	Ips       []string `toml:"AllowedIPs" singleline:"true"`
	Endpoint  string   `toml:"Endpoint"`
	KeepAlive int32    `toml:"PersistentKeepalive"`
}

type Interface struct {
	Priv    Key      `toml:"PrivateKey"`
	Address []string `toml:"Address"`
	Dns     []string `toml:"DNS" singleline:"true"`
}

type ServerInterface struct {
	Address    []string `toml:"Address"`
	SaveConfig bool     `toml:"SaveConfig"`
	Priv       Key      `toml:"PrivateKey"`
	ListenPort int32    `toml:"ListenPort"`
	Dns        []string `toml:"DNS" singleline:"true"`
	PostUp     []string `toml:"PostUp"`
	PostDown   []string `toml:"PostDown"`
}

type Config struct {
	Peer []Peer `toml:"Peer"`
}

type ServerConfig struct {
	Intrfc ServerInterface `toml:"Interface"`
	Config
}

type ClientConfig struct {
	Intrfc Interface `toml:"Interface"`
	Config
}
