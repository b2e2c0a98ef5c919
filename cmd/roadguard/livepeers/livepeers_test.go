package livepeers

import (
	"context"
	"fmt"
	"net/netip"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/cmd/roadguard/executor"
	"roadguard/models"
)

func TestCountPeers(t *testing.T) {
	assert.Equal(t, uint32(0), CountPeers(nil))
	assert.Equal(t, uint32(0), CountPeers([]byte("\n")))
	assert.Equal(t, uint32(2), CountPeers([]byte("xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg=\nTrMvSoP4jYQlY6RIzBgbssQqY3vxI2Pi+y71lOWWXX0=\n")))
}

func TestWgTablePeerCount(t *testing.T) {
	f := executor.NewFake().OnStdout("wg show wg0 peers", "A=\nB=\nC=\n")

	n, err := NewWgTable(f, "", "wg0").PeerCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)
}

func TestWgTablePeerCountInterfaceDown(t *testing.T) {
	f := executor.NewFake().OnFail("wg show wg0 peers", 1, "Unable to access interface: No such device")

	_, err := NewWgTable(f, "wg", "wg0").PeerCount(context.Background())
	require.ErrorIs(t, err, models.ErrProcessExecution)
	assert.Contains(t, models.Hint(err), "wg-quick@")
}

func TestWgTableMissingBinary(t *testing.T) {
	startErr := fmt.Errorf("%w: wg: %w", models.ErrProcessExecution, exec.ErrNotFound)
	f := executor.NewFake().OnError("wg ", startErr)
	table := NewWgTable(f, "wg", "wg0")

	_, err := table.PeerCount(context.Background())
	require.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, 1, strings.Count(err.Error(), models.ErrProcessExecution.Error()), err.Error())

	err = table.RegisterPeer(context.Background(), "Q=", netip.MustParsePrefix("10.253.3.2/32"))
	require.ErrorIs(t, err, exec.ErrNotFound)
	assert.Equal(t, 1, strings.Count(err.Error(), models.ErrProcessExecution.Error()), err.Error())
}

func TestWgTableRegisterPeer(t *testing.T) {
	f := executor.NewFake().OnStdout("wg set wg0 peer", "")

	err := NewWgTable(f, "wg", "wg0").RegisterPeer(context.Background(), "Q=", netip.MustParsePrefix("10.253.3.2/32"))
	require.NoError(t, err)
	assert.Equal(t, []string{"wg set wg0 peer Q= allowed-ips 10.253.3.2/32"}, f.CommandLines())
}

func TestPrefixToIPNet(t *testing.T) {
	n := prefixToIPNet(netip.MustParsePrefix("10.253.3.2/32"))
	assert.Equal(t, "10.253.3.2/32", n.String())
}
