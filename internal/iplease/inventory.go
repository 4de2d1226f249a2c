package iplease

import (
	"net"
	"os"
	"strings"

	"github.com/galileobot/galileo/pkg/config"
)

// ResolveIPs turns an IPConfig's inventory source into a concrete IP list.
// "static" reads cfg.Static directly; "env" splits cfg.EnvVar's value on
// commas.
func ResolveIPs(cfg config.IPConfig) ([]net.IP, error) {
	var raw []string
	switch cfg.Source {
	case "", "static":
		raw = cfg.Static
	case "env":
		value := os.Getenv(cfg.EnvVar)
		if value == "" {
			return nil, InterfaceDiscoveryErr(nil)
		}
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				raw = append(raw, trimmed)
			}
		}
	default:
		return nil, InterfaceDiscoveryErr(nil)
	}

	ips := make([]net.IP, 0, len(raw))
	for _, entry := range raw {
		ip := net.ParseIP(entry)
		if ip == nil {
			return nil, InvalidManualIp(entry, "not a valid IP address")
		}
		ips = append(ips, ip)
	}
	return ips, nil
}
