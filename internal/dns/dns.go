// Package dns resolves the signaling server hostname, falling back to
// public resolvers when the system resolver fails (captive portals and
// broken VPN DNS are common on player machines).
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

var publicDNS = []string{
	"1.1.1.1",                // Cloudflare
	"1.0.0.1",                // Cloudflare
	"8.8.8.8",                // Google
	"8.8.4.4",                // Google
	"9.9.9.9",                // Quad9
	"149.112.112.112",        // Quad9
	"2606:4700:4700::1111",   // Cloudflare
	"2001:4860:4860::8888",   // Google
}

// Lookup resolves a hostname to an IP address, trying the system
// resolver first and racing public resolvers on failure.
func Lookup(address string) (string, error) {
	if ip, err := localLookupIP(address); err == nil && ip != "" {
		return ip, nil
	}
	return remoteLookupWithRace(address)
}

func localLookupIP(address string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	r := &net.Resolver{}
	ips, err := r.LookupHost(ctx, address)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no IP addresses found")
	}

	// Prefer IPv4
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

func remoteLookupWithRace(address string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	results := make(chan result, len(publicDNS))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, server := range publicDNS {
		go func(server string) {
			ip, err := remoteLookupIP(ctx, address, server)
			results <- result{ip: ip, err: err}
		}(server)
	}

	for range publicDNS {
		select {
		case res := <-results:
			if res.err == nil && res.ip != "" {
				return res.ip, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("DNS lookup timed out during public DNS race")
		}
	}
	return "", fmt.Errorf("failed to resolve %s: all public DNS servers failed", address)
}

func remoteLookupIP(ctx context.Context, address, dnsServer string) (string, error) {
	r := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			d := new(net.Dialer)
			return d.DialContext(ctx, network, net.JoinHostPort(dnsServer, "53"))
		},
	}

	ips, err := r.LookupHost(ctx, address)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	if len(ips) > 0 {
		return ips[0], nil
	}
	return "", errors.New("no IP addresses found")
}
