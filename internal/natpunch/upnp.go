// Package natpunch makes a best-effort attempt to open a UDP port on the
// local gateway before ICE gathering starts, so symmetric NATs get one more
// chance at a direct candidate. Every failure here is non-fatal: ICE itself
// is the source of truth for connectivity, this is just a head start.
package natpunch

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/internetgateway1"
	"github.com/huin/goupnp/dcps/internetgateway2"
)

// Puncher holds the IGD clients discovered on the local network, adapted
// from the teacher's internal/upnp.UPnPClient — narrowed to the single UDP
// port mapping a WebRTC host candidate needs instead of the teacher's fixed
// TCP/UDP port block.
type Puncher struct {
	clients1 []*internetgateway1.WANIPConnection1
	clients2 []*internetgateway2.WANIPConnection1
	localIP  string
}

// Discover looks for an IGD on the local network. It returns an error if
// none is found; callers should treat that as "skip NAT punching", not as a
// reason to abort connection setup.
func Discover(ctx context.Context) (*Puncher, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p := &Puncher{localIP: localIP()}

	clients2, _, _ := internetgateway2.NewWANIPConnection1ClientsCtx(ctx)
	p.clients2 = clients2

	clients1, _, _ := internetgateway1.NewWANIPConnection1ClientsCtx(ctx)
	p.clients1 = clients1

	if len(p.clients1) == 0 && len(p.clients2) == 0 {
		return nil, fmt.Errorf("natpunch: no UPnP gateway found")
	}
	return p, nil
}

// MapGamePort maps a single external UDP port to the same local port on
// this host, under the description "pongmesh", for the duration of one
// match (0 = permanent until RemoveGamePort is called, matching the
// teacher's "Duration: 0" convention for a mapping the app itself tears
// down on exit).
func (p *Puncher) MapGamePort(port int) error {
	var lastErr error

	for _, client := range p.clients2 {
		err := client.AddPortMapping("", uint16(port), "UDP", uint16(port), p.localIP, true, "pongmesh", 0)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	for _, client := range p.clients1 {
		err := client.AddPortMapping("", uint16(port), "UDP", uint16(port), p.localIP, true, "pongmesh", 0)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("natpunch: add port mapping: %w", lastErr)
	}
	return fmt.Errorf("natpunch: no UPnP clients available")
}

// RemoveGamePort undoes MapGamePort, returning the last gateway error when
// no discovered client removed the mapping. Mappings are made with lease 0,
// so one that is never removed stays on the gateway.
func (p *Puncher) RemoveGamePort(port int) error {
	var lastErr error
	for _, client := range p.clients2 {
		if err := client.DeletePortMapping("", uint16(port), "UDP"); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	for _, client := range p.clients1 {
		if err := client.DeletePortMapping("", uint16(port), "UDP"); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return lastErr
}

// ExternalIP reports the gateway's public address, when available.
func (p *Puncher) ExternalIP() (string, error) {
	for _, client := range p.clients2 {
		if ip, err := client.GetExternalIPAddress(); err == nil && ip != "" {
			return ip, nil
		}
	}
	for _, client := range p.clients1 {
		if ip, err := client.GetExternalIPAddress(); err == nil && ip != "" {
			return ip, nil
		}
	}
	return "", fmt.Errorf("natpunch: failed to get external IP")
}

func localIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// GatewayName returns the friendly name of the first discovered IGD, used
// only for the CLI's startup output (host and join alike).
func GatewayName(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	devices, err := goupnp.DiscoverDevicesCtx(ctx, internetgateway2.URN_WANIPConnection_1)
	if err != nil || len(devices) == 0 {
		devices, err = goupnp.DiscoverDevicesCtx(ctx, internetgateway1.URN_WANIPConnection_1)
	}
	if err != nil {
		return "", err
	}
	if len(devices) > 0 {
		return devices[0].Root.Device.FriendlyName, nil
	}
	return "", fmt.Errorf("natpunch: no gateway found")
}
