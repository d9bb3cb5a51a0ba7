package dns

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"

	"github.com/cuemby/hacluster/pkg/health"
)

// DefaultResolvConf lists the nameservers record checks query
const DefaultResolvConf = "/etc/resolv.conf"

// RecordChecker verifies that the record a DNS resource publishes points
// at the expected address
type RecordChecker struct {
	FQDN    string
	IP      string
	Servers []string
	Timeout time.Duration
}

var _ health.Checker = (*RecordChecker)(nil)

// NewRecordChecker creates a checker querying the given nameservers
// (host:port)
func NewRecordChecker(fqdn, ip string, servers []string) *RecordChecker {
	return &RecordChecker{
		FQDN:    fqdn,
		IP:      ip,
		Servers: servers,
		Timeout: 5 * time.Second,
	}
}

// SystemNameservers reads the nameservers of a resolv.conf file
func SystemNameservers(path string) ([]string, error) {
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return servers, nil
}

// Check queries each nameserver until one answers
func (r *RecordChecker) Check(ctx context.Context) health.Result {
	start := time.Now()

	qtype := dns.TypeA
	if ip := net.ParseIP(r.IP); ip != nil && ip.To4() == nil {
		qtype = dns.TypeAAAA
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(r.FQDN), qtype)
	client := &dns.Client{Net: "udp", Timeout: r.Timeout}

	lastErr := fmt.Errorf("no nameservers configured")
	for _, server := range r.Servers {
		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		return r.evaluate(start, resp)
	}

	return health.Result{
		Healthy:   false,
		Message:   fmt.Sprintf("lookup of %s failed: %v", r.FQDN, lastErr),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

func (r *RecordChecker) evaluate(start time.Time, resp *dns.Msg) health.Result {
	result := health.Result{CheckedAt: start}

	var got []string
	for _, rr := range resp.Answer {
		switch rec := rr.(type) {
		case *dns.A:
			got = append(got, rec.A.String())
		case *dns.AAAA:
			got = append(got, rec.AAAA.String())
		}
	}

	want := net.ParseIP(r.IP)
	for _, addr := range got {
		if ip := net.ParseIP(addr); ip != nil && want != nil && ip.Equal(want) {
			result.Healthy = true
			result.Message = fmt.Sprintf("%s resolves to %s", r.FQDN, r.IP)
			result.Duration = time.Since(start)
			return result
		}
	}

	if len(got) == 0 {
		result.Message = fmt.Sprintf("%s has no address record (%s)", r.FQDN, dns.RcodeToString[resp.Rcode])
	} else {
		result.Message = fmt.Sprintf("%s resolves to %v, expected %s", r.FQDN, got, r.IP)
	}
	result.Duration = time.Since(start)
	return result
}

// Type returns the health check type
func (r *RecordChecker) Type() health.CheckType {
	return health.CheckTypeDNS
}
