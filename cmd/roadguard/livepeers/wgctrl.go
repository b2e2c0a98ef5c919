package livepeers

import (
	"context"
	"fmt"
	"net"
	"net/netip"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"roadguard/models"
)

// WgctrlTable talks to the device directly through wgctrl.
type WgctrlTable struct {
	iface string
}

func NewWgctrlTable(iface string) *WgctrlTable {
	return &WgctrlTable{iface: iface}
}

func (t *WgctrlTable) PeerCount(_ context.Context) (uint32, error) {
	client, err := wgctrl.New()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to open wgctrl client: %w", models.ErrProcessExecution, err)
	}
	defer client.Close()

	dev, err := client.Device(t.iface)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to read device %s: %w", models.ErrProcessExecution, t.iface, err)
	}
	return uint32(len(dev.Peers)), nil
}

func (t *WgctrlTable) RegisterPeer(_ context.Context, pub models.Key, allowed netip.Prefix) error {
	pubKey, err := wgtypes.ParseKey(string(pub))
	if err != nil {
		return fmt.Errorf("%w: invalid peer public key: %w", models.ErrValidation, err)
	}

	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("%w: failed to open wgctrl client: %w", models.ErrProcessExecution, err)
	}
	defer client.Close()

	cfg := wgtypes.Config{
		Peers: []wgtypes.PeerConfig{
			{
				PublicKey:  pubKey,
				AllowedIPs: []net.IPNet{prefixToIPNet(allowed)},
			},
		},
	}
	if err := client.ConfigureDevice(t.iface, cfg); err != nil {
		return fmt.Errorf("%w: failed to configure device %s: %w", models.ErrProcessExecution, t.iface, err)
	}
	return nil
}

func prefixToIPNet(p netip.Prefix) net.IPNet {
	addr := p.Addr()
	return net.IPNet{
		IP:   net.IP(addr.AsSlice()),
		Mask: net.CIDRMask(p.Bits(), addr.BitLen()),
	}
}
