package netinspect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadguard/cmd/roadguard/executor"
	"roadguard/models"
)

func TestParseDefaultRoute(t *testing.T) {
	for _, tc := range []struct {
		name string
		out  string
		want string
	}{
		{"single", "default via 10.0.0.1 dev eth0 proto dhcp src 10.0.0.5 metric 100\n", "eth0"},
		{"first of many", "default via 192.168.1.1 dev wlp3s0 proto dhcp metric 600\ndefault via 10.0.0.1 dev enp0s31f6 metric 700\n", "wlp3s0"},
		{"no gateway", "default dev ppp0 scope link\n", "ppp0"},
		{"trailing whitespace", "default via 10.0.0.1 dev ens3  \r\n", "ens3"},
		{"skips other routes", "10.0.0.0/24 dev eth1 proto kernel\ndefault via 10.0.0.1 dev eth1\n", "eth1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDefaultRoute([]byte(tc.out))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDefaultRouteMissing(t *testing.T) {
	for _, out := range []string{"", "10.0.0.0/24 dev eth1 proto kernel\n", "default via 10.0.0.1\n"} {
		_, err := ParseDefaultRoute([]byte(out))
		assert.ErrorIs(t, err, models.ErrNetworkDetection, out)
	}
}

func TestRouteInspector(t *testing.T) {
	f := executor.NewFake().OnStdout("ip -o -4 route show to default", "default via 10.0.0.1 dev eth0 proto static\n")

	iface, err := NewRouteInspector(f).DefaultInterface(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.NetworkInterface{Name: "eth0"}, iface)
}

func TestRouteInspectorToolFailure(t *testing.T) {
	f := executor.NewFake().OnFail("ip ", 1, "Cannot open netlink socket")

	_, err := NewRouteInspector(f).DefaultInterface(context.Background())
	require.ErrorIs(t, err, models.ErrNetworkDetection)
}
