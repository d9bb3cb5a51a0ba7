package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// RemotePort is where pacemaker_remote listens for its connection resource
const RemotePort = 3121

// TCPChecker performs TCP-based health checks
type TCPChecker struct {
	// Address is the TCP address to connect to (e.g., "node1.maas:3121")
	Address string

	// Network is "tcp", or "tcp4"/"tcp6" to force an address family
	Network string

	// Timeout is the connection timeout (default: 5 seconds)
	Timeout time.Duration
}

// NewTCPChecker creates a new TCP health checker
func NewTCPChecker(address string) *TCPChecker {
	return &TCPChecker{
		Address: address,
		Network: "tcp",
		Timeout: 5 * time.Second,
	}
}

// NewRemoteNodeChecker checks that a remote node accepts pacemaker_remote
// connections
func NewRemoteNodeChecker(host string) *TCPChecker {
	return NewTCPChecker(net.JoinHostPort(host, strconv.Itoa(RemotePort)))
}

// Check performs the TCP health check
func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{
		Timeout: t.Timeout,
	}

	network := t.Network
	if network == "" {
		network = "tcp"
	}
	conn, err := dialer.DialContext(ctx, network, t.Address)
	if err != nil {
		return failed(start, fmt.Sprintf("connection failed: %v", err))
	}
	defer conn.Close()

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("TCP connection to %s successful", t.Address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type
func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}

// WithNetwork restricts the dial to one address family
func (t *TCPChecker) WithNetwork(network string) *TCPChecker {
	t.Network = network
	return t
}

// WithTimeout sets the connection timeout
func (t *TCPChecker) WithTimeout(timeout time.Duration) *TCPChecker {
	t.Timeout = timeout
	return t
}
