// Package processor sequences key generation, address allocation, config
// rendering and host changes into the setup and add-client workflows.
package processor

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"path/filepath"

	"github.com/go-logr/logr"

	"roadguard/cmd/roadguard/keys"
	"roadguard/cmd/roadguard/livepeers"
	"roadguard/cmd/roadguard/netinspect"
	"roadguard/cmd/roadguard/sysconf"
	"roadguard/models"
)

const (
	DefaultInterfaceName = "wg0"
	DefaultWireguardDir  = "/etc/wireguard/"

	PrivateKeyFile = "server_private_key"
	PublicKeyFile  = "server_public_key"

	confFormat    = "%s.conf"
	qrFormat      = "%s.png"
	subnetBits    = 24
	serverOctet   = 1
	wgConfDirMode = 0o700
)

var DefaultServerAddress = netip.MustParsePrefix("10.253.3.1/24")

type Settings struct {
	// ServerAddress is the server's tunnel address; its first three octets
	// form the subnet clients are allocated from.
	ServerAddress netip.Prefix
	InterfaceName string
	ListenPort    uint16
	DNS           netip.Addr

	WireguardDir string
	KeyDir       string
	ClientDir    string

	// LockDir holds the add-client lock file. Empty means WireguardDir.
	LockDir string

	GenerateQR  bool
	UseSTUN     bool
	StunServers []string
}

func DefaultSettings() Settings {
	return Settings{
		ServerAddress: DefaultServerAddress,
		InterfaceName: DefaultInterfaceName,
		ListenPort:    models.DefaultListenPort,
		DNS:           models.DefaultDNS,
		WireguardDir:  DefaultWireguardDir,
		KeyDir:        ".",
		ClientDir:     ".",
	}
}

func (s Settings) Validate() error {
	if !s.ServerAddress.IsValid() || !s.ServerAddress.Addr().Is4() {
		return fmt.Errorf("%w: server address %q must be an IPv4 address", models.ErrValidation, s.ServerAddress)
	}
	if s.ServerAddress.Bits() != subnetBits {
		return fmt.Errorf("%w: server address %s must be a /%d", models.ErrValidation, s.ServerAddress, subnetBits)
	}
	// clients are allocated from .2 upwards
	if s.ServerAddress.Addr().As4()[3] != serverOctet {
		return fmt.Errorf("%w: server address %s must end in .%d", models.ErrValidation, s.ServerAddress, serverOctet)
	}
	if s.InterfaceName == "" {
		return fmt.Errorf("%w: invalid device name", models.ErrValidation)
	}
	if s.ListenPort == 0 {
		return fmt.Errorf("%w: listen port must not be 0", models.ErrValidation)
	}
	if !s.DNS.IsValid() {
		return fmt.Errorf("%w: invalid dns", models.ErrValidation)
	}
	return nil
}

func (s Settings) ServerConfPath() string {
	return filepath.Join(s.WireguardDir, fmt.Sprintf(confFormat, s.InterfaceName))
}

func (s Settings) PrivateKeyPath() string {
	return filepath.Join(s.KeyDir, PrivateKeyFile)
}

func (s Settings) PublicKeyPath() string {
	return filepath.Join(s.KeyDir, PublicKeyFile)
}

func (s Settings) ClientConfPath(name string) string {
	return filepath.Join(s.ClientDir, fmt.Sprintf(confFormat, name))
}

func (s Settings) ClientQRPath(name string) string {
	return filepath.Join(s.ClientDir, fmt.Sprintf(qrFormat, name))
}

// LockPath is inside LockDir, or next to the server config when LockDir is
// empty. A world-writable directory would let any user hold the lock.
func (s Settings) LockPath() string {
	dir := s.LockDir
	if dir == "" {
		dir = s.WireguardDir
	}
	return filepath.Join(dir, fmt.Sprintf(".roadguard-%s.lock", s.InterfaceName))
}

// Deps are the collaborators the workflows drive.
type Deps struct {
	Keys      *keys.Manager
	Inspector netinspect.Inspector
	Peers     livepeers.Table
	System    *sysconf.Configurator
	Prompter  Prompter
}

type Processor struct {
	Deps
	settings   Settings
	logger     logr.Logger
	publicHost func(servers []string) (string, error)
	qrWriter   func(path, conf string) error
}

type Option func(*Processor)

func WithLogger(logger logr.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithPublicHost replaces STUN discovery of the endpoint.
func WithPublicHost(fn func(servers []string) (string, error)) Option {
	return func(p *Processor) {
		p.publicHost = fn
	}
}

// WithQRWriter sets how client configs are exported as QR codes.
func WithQRWriter(fn func(path, conf string) error) Option {
	return func(p *Processor) {
		p.qrWriter = fn
	}
}

func New(deps Deps, settings Settings, opts ...Option) (*Processor, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if deps.Keys == nil || deps.Inspector == nil || deps.Peers == nil || deps.System == nil {
		return nil, errors.New("processor: missing dependency")
	}
	p := &Processor{
		Deps:       deps,
		settings:   settings,
		logger:     logr.Discard(),
		publicHost: netinspect.PublicHost,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Processor) Settings() Settings {
	return p.settings
}

// RemoveClient has no defined semantics: the live peer table cannot tell
// which allocated address a removal would free. It always fails.
func (p *Processor) RemoveClient(_ context.Context, name string) error {
	return fmt.Errorf("%w: remove-client %q is not implemented, remove the peer with `wg set %s peer <key> remove`",
		models.ErrUnsupported, name, p.settings.InterfaceName)
}
