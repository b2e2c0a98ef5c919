// Package netinspect finds the host's egress interface.
package netinspect

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"roadguard/cmd/roadguard/executor"
	"roadguard/models"
)

type Inspector interface {
	DefaultInterface(ctx context.Context) (models.NetworkInterface, error)
}

// RouteInspector asks iproute2 for the default route.
type RouteInspector struct {
	runner executor.Runner
	ipBin  string
}

func NewRouteInspector(runner executor.Runner) *RouteInspector {
	return &RouteInspector{runner: runner, ipBin: "ip"}
}

func (r *RouteInspector) DefaultInterface(ctx context.Context) (models.NetworkInterface, error) {
	out, err := executor.RunChecked(ctx, r.runner, executor.Cmd{
		Name: r.ipBin,
		Args: []string{"-o", "-4", "route", "show", "to", "default"},
	})
	if err != nil {
		return models.NetworkInterface{}, fmt.Errorf("%w: %w", models.ErrNetworkDetection, err)
	}
	name, err := ParseDefaultRoute(out)
	if err != nil {
		return models.NetworkInterface{}, err
	}
	return models.NetworkInterface{Name: name}, nil
}

// ParseDefaultRoute returns the device of the first default route in
// `ip route` output such as "default via 10.0.0.1 dev eth0 proto dhcp".
func ParseDefaultRoute(out []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "default" {
			continue
		}
		for i := 1; i+1 < len(fields); i++ {
			if fields[i] == "dev" {
				return strings.TrimSpace(fields[i+1]), nil
			}
		}
	}
	return "", fmt.Errorf("%w: no default route", models.ErrNetworkDetection)
}
