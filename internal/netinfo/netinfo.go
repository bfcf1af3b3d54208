// Package netinfo reports the address other devices on the network can use
// to reach this host.
package netinfo

import "net"

// NotAvailable is reported when the host has no usable IPv4 address.
const NotAvailable = "Not Available"

// LocalIPv4 returns the first non-loopback IPv4 address of the host.
func LocalIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return NotAvailable
	}
	return firstIPv4(addrs)
}

func firstIPv4(addrs []net.Addr) string {
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
			return v4.String()
		}
	}
	return NotAvailable
}
