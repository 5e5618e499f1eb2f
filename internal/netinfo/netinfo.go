package netinfo

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultEmulatorAliases reach the host loopback from local device emulators.
var DefaultEmulatorAliases = []string{"10.0.2.2"}

// Addresses lists non-internal IPv4 addresses of interfaces that are up,
// followed by aliases that are not already present.
func Addresses(aliases []string) []string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return dedupe(nil, aliases)
	}

	var out []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, ipv4s(addrs)...)
	}
	return dedupe(out, aliases)
}

func ipv4s(addrs []net.Addr) []string {
	var out []string
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			out = append(out, v4.String())
		}
	}
	return out
}

func dedupe(addrs, extra []string) []string {
	seen := make(map[string]struct{}, len(addrs)+len(extra))
	out := make([]string, 0, len(addrs)+len(extra))
	for _, list := range [][]string{addrs, extra} {
		for _, a := range list {
			if a == "" {
				continue
			}
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// BaseURL builds the coordinator URL a peer on the LAN would use.
func BaseURL(host string, port int) string {
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(port)))
}
