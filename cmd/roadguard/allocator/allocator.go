// Package allocator derives client tunnel addresses from the live peer count.
package allocator

import (
	"fmt"
	"net/netip"

	"roadguard/models"
)

const (
	// .1 is the server, so peer n gets .(n+2).
	firstClientOctet = 2
	// .254 and .255 stay reserved.
	LastClientOctet = 253

	// MaxPeers is the number of clients one /24 can hold.
	MaxPeers = LastClientOctet - firstClientOctet + 1
)

// NextAddress returns the address of the next client given how many peers the
// server already has. It keeps the first three octets of base. Addresses are
// unique only while peers are never removed and re-added.
func NextAddress(base netip.Addr, peerCount uint32) (netip.Addr, error) {
	if !base.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: subnet base %s is not an IPv4 address", models.ErrValidation, base)
	}
	if peerCount > LastClientOctet-firstClientOctet {
		return netip.Addr{}, fmt.Errorf("%w: %d peers already allocated, %d is the limit", models.ErrPeerAllocationExhausted, peerCount, MaxPeers)
	}

	octets := base.As4()
	octets[3] = byte(peerCount + firstClientOctet)
	return netip.AddrFrom4(octets), nil
}
