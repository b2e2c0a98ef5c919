// Package sysconf applies the host changes that make the rendered server config
// take effect and survive a reboot.
package sysconf

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/go-logr/logr"

	"roadguard/cmd/roadguard/executor"
	"roadguard/cmd/roadguard/livepeers"
	"roadguard/models"
)

const (
	DefaultSysctlFile = "/etc/sysctl.conf"

	forwardingSedExpr = `s/^[[:space:]]*#[[:space:]]*net\.ipv4\.ip_forward[[:space:]]*=[[:space:]]*1/net.ipv4.ip_forward=1/`
	privilegedOwner   = "root:root"
	ownerOnlyMode     = "600"

	wireguardServiceFormat = "wg-quick@%s"
)

// ServiceEnabler registers the tunnel service for boot-time activation.
type ServiceEnabler interface {
	EnableService(ctx context.Context, iface string) error
}

// SystemctlEnabler runs `systemctl enable wg-quick@<iface>`.
type SystemctlEnabler struct {
	runner executor.Runner
}

func NewSystemctlEnabler(runner executor.Runner) *SystemctlEnabler {
	return &SystemctlEnabler{runner: runner}
}

func (s *SystemctlEnabler) EnableService(ctx context.Context, iface string) error {
	_, err := executor.RunChecked(ctx, s.runner, executor.Cmd{
		Name: "systemctl",
		Args: []string{"enable", fmt.Sprintf(wireguardServiceFormat, iface)},
	})
	return models.WrapKind(models.ErrProcessExecution, err)
}

type Configurator struct {
	runner     executor.Runner
	enabler    ServiceEnabler
	peers      livepeers.Table
	sysctlFile string
	logger     logr.Logger
}

type Option func(*Configurator)

func WithSysctlFile(path string) Option {
	return func(c *Configurator) {
		if path != "" {
			c.sysctlFile = path
		}
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(c *Configurator) {
		c.logger = logger
	}
}

func New(runner executor.Runner, enabler ServiceEnabler, peers livepeers.Table, opts ...Option) *Configurator {
	c := &Configurator{
		runner:     runner,
		enabler:    enabler,
		peers:      peers,
		sysctlFile: DefaultSysctlFile,
		logger:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnableForwarding uncomments net.ipv4.ip_forward=1 in the sysctl file.
// Running it again leaves the file unchanged.
func (c *Configurator) EnableForwarding(ctx context.Context) error {
	return c.run(ctx, "sed", "-i", forwardingSedExpr, c.sysctlFile)
}

func (c *Configurator) ReloadSysctl(ctx context.Context) error {
	return c.run(ctx, "sysctl", "-p", c.sysctlFile)
}

func (c *Configurator) EnableAtBoot(ctx context.Context, iface string) error {
	if err := c.enabler.EnableService(ctx, iface); err != nil {
		return err
	}
	c.logger.Info("enabled at boot", "service", fmt.Sprintf(wireguardServiceFormat, iface))
	return nil
}

// FixOwnership hands the wireguard config directory to root.
func (c *Configurator) FixOwnership(ctx context.Context, dir string) error {
	return c.run(ctx, "chown", "-R", privilegedOwner, dir)
}

// RestrictConfig makes the server config readable by its owner only.
func (c *Configurator) RestrictConfig(ctx context.Context, path string) error {
	return c.run(ctx, "chmod", ownerOnlyMode, path)
}

// RegisterLivePeer adds the peer to the running interface so it can connect
// without restarting the tunnel.
func (c *Configurator) RegisterLivePeer(ctx context.Context, pub models.Key, addr netip.Addr) error {
	allowed := netip.PrefixFrom(addr, addr.BitLen())
	if err := c.peers.RegisterPeer(ctx, pub, allowed); err != nil {
		return err
	}
	c.logger.Info("registered live peer", "allowedIPs", allowed.String())
	return nil
}

func (c *Configurator) run(ctx context.Context, name string, args ...string) error {
	_, err := executor.RunChecked(ctx, c.runner, executor.Cmd{Name: name, Args: args})
	return models.WrapKind(models.ErrProcessExecution, err)
}
