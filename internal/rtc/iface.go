// Package rtc wraps pion/webrtc into the session runtime's callback-driven
// peer connection, and picks which local network interfaces ICE is allowed
// to gather candidates from.
package rtc

import (
	"net"
	"sort"
)

// ifaceClass ranks a local IPv4 interface by how likely it is to produce a
// usable direct path to a peer on another network. Grounded on the
// teacher's getLocalIP/findGameListeningAddr interface scan in
// cmd/sfo-helper/main.go, extended with the classification spec.md §4.3.1
// calls for.
type ifaceClass int

const (
	classUnknownPrivate ifaceClass = iota
	classCorporate
	classHomeLAN
	classVPN
	classLoopback
)

// classifyIPv4 buckets a private IPv4 address by the heuristics in
// spec.md §4.3.1: a 10.0.0.0/8 address is treated as VPN-like (most
// consumer and corporate VPN products hand out addresses in this range),
// 192.168.0.0/16 as a home LAN, 172.16.0.0/12 as corporate, and anything
// else private falls back to "unknown private".
func classifyIPv4(ip net.IP) ifaceClass {
	if ip.IsLoopback() {
		return classLoopback
	}
	v4 := ip.To4()
	if v4 == nil {
		return classUnknownPrivate
	}
	switch {
	case v4[0] == 10:
		return classVPN
	case v4[0] == 192 && v4[1] == 168:
		return classHomeLAN
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return classCorporate
	default:
		return classUnknownPrivate
	}
}

// priority orders classes by selection preference: VPN > home LAN > any
// other private address > loopback. classCorporate and classUnknownPrivate
// share a tier — neither is preferred over the other per spec.md §4.3.1.
func (c ifaceClass) priority() int {
	switch c {
	case classVPN:
		return 3
	case classHomeLAN:
		return 2
	case classCorporate, classUnknownPrivate:
		return 1
	default: // classLoopback
		return 0
	}
}

// candidateIface is one classified, up, non-loopback-unless-nothing-else
// network interface.
type candidateIface struct {
	name  string
	ip    net.IP
	class ifaceClass
}

// discoverInterfaces enumerates every up IPv4 interface on the host and
// classifies it. Loopback is included (lowest priority) so a single-NIC
// loopback-only test environment still has something to select.
func discoverInterfaces() ([]candidateIface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var found []candidateIface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil {
				continue
			}
			found = append(found, candidateIface{
				name:  iface.Name,
				ip:    ip,
				class: classifyIPv4(ip),
			})
		}
	}
	return found, nil
}

// SelectInterfaces picks the single interface ICE gathering should be
// restricted to, per §4.3.1's rule: prefer VPN, then home LAN, then any
// other private network, falling back to loopback only if nothing else
// exists. Binding to exactly one interface — rather than leaving every
// interface eligible — is what makes the "STUN and ICE must share a
// socket" requirement of §4.3.2 hold: pion's ICE agent only gathers a
// host/reflexive candidate pair per interface it's allowed to touch, so
// restricting to one is what pins both to the same local address. Ties
// within a class are broken by whichever interface net.Interfaces()
// enumerates first — the spec has no tie-break rule of its own. Returns an
// empty slice, never an error, when no IPv4 interface is found at all;
// NewEngine treats an empty allow-list as "gather on everything".
func SelectInterfaces() ([]string, error) {
	found, err := discoverInterfaces()
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}

	return []string{selectTop(found)}, nil
}

// selectTop returns the name of whichever candidate has the highest
// priority() class, keeping found's original (enumeration) order as the
// tie-break. Split out from SelectInterfaces so the ranking rule can be
// tested without depending on the host's real network interfaces.
func selectTop(found []candidateIface) string {
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].class.priority() > found[j].class.priority()
	})
	return found[0].name
}
