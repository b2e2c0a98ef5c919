package netinspect

import (
	"fmt"
	"net"

	"github.com/pion/stun"

	"roadguard/models"
)

var DefaultSTUNServers = []string{
	"stun.l.google.com:19302",
	"stun1.l.google.com:19302",
}

// PublicHost asks the STUN servers in order for this host's public address.
func PublicHost(servers []string) (string, error) {
	if len(servers) == 0 {
		servers = DefaultSTUNServers
	}

	var lastErr error
	for _, server := range servers {
		host, err := trySTUNServer(server)
		if err == nil {
			return host, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w: all STUN servers failed: %w", models.ErrNetworkDetection, lastErr)
}

func trySTUNServer(server string) (string, error) {
	conn, err := net.Dial("udp", server)
	if err != nil {
		return "", fmt.Errorf("error dialing STUN server %s: %w", server, err)
	}
	defer conn.Close()

	client, err := stun.NewClient(conn)
	if err != nil {
		return "", fmt.Errorf("error creating STUN client: %w", err)
	}
	defer client.Close()

	var xorAddr stun.XORMappedAddress
	var resErr error
	if err := client.Do(stun.MustBuild(stun.TransactionID, stun.BindingRequest), func(res stun.Event) {
		if res.Error != nil {
			resErr = res.Error
			return
		}
		if getErr := xorAddr.GetFrom(res.Message); getErr != nil {
			resErr = fmt.Errorf("failed to get XOR-MAPPED-ADDRESS: %w", getErr)
		}
	}); err != nil {
		return "", fmt.Errorf("STUN request to %s failed: %w", server, err)
	}
	if resErr != nil {
		return "", fmt.Errorf("STUN request to %s failed: %w", server, resErr)
	}
	return xorAddr.IP.String(), nil
}
