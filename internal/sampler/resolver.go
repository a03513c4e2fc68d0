package sampler

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/maximewewer/timedata/pkg/logger"
)

// Resolver expands a configured server into the peer addresses behind it.
// Each address is a distinct peer, so a pool name contributes one sample
// per host it resolves to.
type Resolver interface {
	Resolve(ctx context.Context, server string) ([]string, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, server string) ([]string, error)

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context, server string) ([]string, error) {
	return f(ctx, server)
}

// DNSResolver resolves servers through the system resolver
type DNSResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewDNSResolver creates a resolver bounding each lookup by timeout
func NewDNSResolver(timeout time.Duration) *DNSResolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &DNSResolver{
		resolver: &net.Resolver{PreferGo: true},
		timeout:  timeout,
	}
}

// Resolve returns the addresses of server, which may be a host, an IP
// literal or either of those with a port.
func (r *DNSResolver) Resolve(ctx context.Context, server string) ([]string, error) {
	host, port := splitPort(server)

	if addr, err := netip.ParseAddr(host); err == nil {
		return []string{joinPort(addr, port)}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}

	seen := make(map[netip.Addr]struct{}, len(addrs))
	peers := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		addr = addr.Unmap()
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		peers = append(peers, joinPort(addr, port))
	}

	logger.SafeDebug("sampler", "Resolved peer server", map[string]interface{}{
		"server": server,
		"peers":  len(peers),
	})

	return peers, nil
}

// splitPort separates an optional port from server
func splitPort(server string) (host, port string) {
	if h, p, err := net.SplitHostPort(server); err == nil {
		return h, p
	}
	return server, ""
}

func joinPort(addr netip.Addr, port string) string {
	if port == "" {
		return addr.String()
	}
	return net.JoinHostPort(addr.String(), port)
}
