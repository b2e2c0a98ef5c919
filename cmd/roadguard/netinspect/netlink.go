package netinspect

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"

	"roadguard/models"
)

// NetlinkInspector reads the main routing table over netlink.
type NetlinkInspector struct{}

func NewNetlinkInspector() *NetlinkInspector {
	return &NetlinkInspector{}
}

func (*NetlinkInspector) DefaultInterface(_ context.Context) (models.NetworkInterface, error) {
	routes, err := netlink.RouteList(nil, netlink.FAMILY_V4)
	if err != nil {
		return models.NetworkInterface{}, fmt.Errorf("%w: failed to list routes: %w", models.ErrNetworkDetection, err)
	}

	for _, route := range routes {
		if !isDefault(route) || route.LinkIndex == 0 {
			continue
		}
		link, err := netlink.LinkByIndex(route.LinkIndex)
		if err != nil {
			return models.NetworkInterface{}, fmt.Errorf("%w: failed to get link %d: %w", models.ErrNetworkDetection, route.LinkIndex, err)
		}
		return models.NetworkInterface{Name: link.Attrs().Name}, nil
	}
	return models.NetworkInterface{}, fmt.Errorf("%w: no default route", models.ErrNetworkDetection)
}

func isDefault(route netlink.Route) bool {
	if route.Dst == nil {
		return true
	}
	ones, _ := route.Dst.Mask.Size()
	return ones == 0 && route.Dst.IP.IsUnspecified()
}
