package rtc

import (
	"net"
	"testing"
)

func TestClassifyIPv4(t *testing.T) {
	cases := []struct {
		ip   string
		want ifaceClass
	}{
		{"10.8.0.2", classVPN},
		{"192.168.1.42", classHomeLAN},
		{"172.16.5.9", classCorporate},
		{"172.31.255.1", classCorporate},
		{"100.64.0.5", classUnknownPrivate},
		{"127.0.0.1", classLoopback},
	}
	for _, c := range cases {
		got := classifyIPv4(net.ParseIP(c.ip))
		if got != c.want {
			t.Errorf("classifyIPv4(%s) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestPriorityOrdering(t *testing.T) {
	if classVPN.priority() <= classHomeLAN.priority() {
		t.Error("VPN should outrank home LAN")
	}
	if classHomeLAN.priority() <= classCorporate.priority() {
		t.Error("home LAN should outrank corporate/unknown private")
	}
	if classCorporate.priority() <= classLoopback.priority() {
		t.Error("any private address should outrank loopback")
	}
	if classUnknownPrivate.priority() != classCorporate.priority() {
		t.Error("corporate and unknown-private should share a tier")
	}
}

func TestSelectTopPrefersVPNOverHomeLAN(t *testing.T) {
	found := []candidateIface{
		{name: "eth0", ip: net.ParseIP("192.168.1.42"), class: classHomeLAN},
		{name: "tun0", ip: net.ParseIP("10.8.0.2"), class: classVPN},
	}
	if got := selectTop(found); got != "tun0" {
		t.Errorf("selectTop = %q, want tun0 (VPN over home LAN)", got)
	}
}

func TestSelectTopFallsBackToHomeLANWithoutVPN(t *testing.T) {
	found := []candidateIface{
		{name: "lo", ip: net.ParseIP("127.0.0.1"), class: classLoopback},
		{name: "eth0", ip: net.ParseIP("192.168.1.42"), class: classHomeLAN},
	}
	if got := selectTop(found); got != "eth0" {
		t.Errorf("selectTop = %q, want eth0 (home LAN over loopback)", got)
	}
}

func TestSelectTopFallsBackToLoopbackWhenNothingElse(t *testing.T) {
	found := []candidateIface{
		{name: "lo", ip: net.ParseIP("127.0.0.1"), class: classLoopback},
	}
	if got := selectTop(found); got != "lo" {
		t.Errorf("selectTop = %q, want lo", got)
	}
}
