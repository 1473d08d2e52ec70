package probe

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// DNS classification classes for a host that failed a transport-level check.
const (
	DNSResolves          = "resolves"
	DNSNXDomain          = "nxdomain"
	DNSNoRecords         = "no_records"
	DNSServfailOrTimeout = "servfail_or_timeout"
	DNSInvalidHost       = "invalid_host"
)

// DNSStatus describes what the OS resolver knows about a host.
type DNSStatus struct {
	Host        string   `json:"host"`
	Class       string   `json:"class"`
	IPs         []string `json:"ips,omitempty"`
	CNAME       string   `json:"cname,omitempty"`
	Nameservers []string `json:"nameservers,omitempty"`
	Err         string   `json:"error,omitempty"`
}

var dnsTimeout = 3 * time.Second

// DiagnoseDNS classifies why a target may be unreachable: the name does not
// exist, it exists without address records, resolution itself is failing, or
// it resolves fine and the service is simply not answering.
func DiagnoseDNS(ctx context.Context, target string) DNSStatus {
	host := HostOf(target)
	s := DNSStatus{Host: host}
	if host == "" || strings.Contains(host, "/") {
		s.Class = DNSInvalidHost
		return s
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()
	r := &net.Resolver{} // OS resolver

	ips, err := r.LookupIP(ctx, "ip", host)
	if err == nil && len(ips) > 0 {
		s.Class = DNSResolves
		for _, ip := range ips {
			s.IPs = append(s.IPs, ip.String())
		}
	} else if err != nil {
		s.Err = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfailOrTimeout
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, host); err == nil && !strings.EqualFold(cname, host+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoRecords
		}
	}

	if s.Class == "" {
		switch {
		case len(s.IPs) > 0:
			s.Class = DNSResolves
		case len(s.Nameservers) > 0:
			s.Class = DNSNoRecords
		case s.Err != "":
			s.Class = DNSServfailOrTimeout
		default:
			s.Class = DNSNXDomain
		}
	}
	return s
}

// HostOf extracts the hostname from a URL. Bare hosts pass through trimmed;
// values that cannot carry a hostname come back empty.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	if strings.Contains(raw, "://") {
		return ""
	}
	return strings.TrimSpace(raw)
}
