// Package livepeers reads and extends the peer table of the running tunnel
// interface. That table is the only record of which peers exist.
package livepeers

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"strings"

	"roadguard/cmd/roadguard/executor"
	"roadguard/models"
)

type Table interface {
	PeerCount(ctx context.Context) (uint32, error)
	RegisterPeer(ctx context.Context, pub models.Key, allowed netip.Prefix) error
}

// WgTable drives the table through `wg show` and `wg set`.
type WgTable struct {
	runner executor.Runner
	wgBin  string
	iface  string
}

func NewWgTable(runner executor.Runner, wgBin, iface string) *WgTable {
	if wgBin == "" {
		wgBin = "wg"
	}
	return &WgTable{runner: runner, wgBin: wgBin, iface: iface}
}

func (t *WgTable) PeerCount(ctx context.Context) (uint32, error) {
	out, err := executor.RunChecked(ctx, t.runner, executor.Cmd{
		Name: t.wgBin,
		Args: []string{"show", t.iface, "peers"},
	})
	if err != nil {
		return 0, models.WrapKind(models.ErrProcessExecution, fmt.Errorf("reading peers of %s: %w", t.iface, err))
	}
	return CountPeers(out), nil
}

func (t *WgTable) RegisterPeer(ctx context.Context, pub models.Key, allowed netip.Prefix) error {
	_, err := executor.RunChecked(ctx, t.runner, executor.Cmd{
		Name: t.wgBin,
		Args: []string{"set", t.iface, "peer", string(pub), "allowed-ips", allowed.String()},
	})
	if err != nil {
		return models.WrapKind(models.ErrProcessExecution, fmt.Errorf("registering peer on %s: %w", t.iface, err))
	}
	return nil
}

// CountPeers counts the public keys printed by `wg show <iface> peers`.
func CountPeers(out []byte) uint32 {
	var n uint32
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n
}
