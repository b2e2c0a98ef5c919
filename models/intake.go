package models

// RoadguardConf is the optional toml file read before flags and env.
type RoadguardConf struct {
	Server ServerSettings `toml:"Server"`
	Paths  PathSettings   `toml:"Paths"`
	Client ClientSettings `toml:"Client"`
}

type ServerSettings struct {
	Address       string `toml:"Address"`
	InterfaceName string `toml:"InterfaceName"`
	ListenPort    int32  `toml:"ListenPort"`
	DNS           string `toml:"DNS"`
	Native        bool   `toml:"Native"`
	Dbus          bool   `toml:"Dbus"`
}

type PathSettings struct {
	WgBinary     string `toml:"WgBinary"`
	WireguardDir string `toml:"WireguardDir"`
	SysctlFile   string `toml:"SysctlFile"`
	KeyDir       string `toml:"KeyDir"`
	ClientDir    string `toml:"ClientDir"`
	LockDir      string `toml:"LockDir"`
}

type ClientSettings struct {
	Endpoint    string   `toml:"Endpoint"`
	StunServers []string `toml:"StunServers"`
	GenerateQR  bool     `toml:"GenerateQR"`
}
