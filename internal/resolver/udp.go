package resolver

//
// Recursive UDP resolver, spec.md §4.3 point 1.
//
// Grounded on internal/netxlite/dnsencoder.go (query construction),
// dnsdecoder.go (reply parsing and Rcode mapping) and dnsoverudp.go
// (per-try UDP round trip), all rewritten around github.com/miekg/dns's
// dns.Msg rather than the teacher's model.DNSQuery/DNSTransport
// abstractions, since this design's Backend contract is narrower.
//

import (
	"context"
	"net"
	"time"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/model"
	"github.com/miekg/dns"
)

// UDPResolver is the recursive UDP backend.
type UDPResolver struct {
	Nameserver string // "host:port"; falls back to DefaultNameserver
	Attempts   int    // default 3
	Timeout    time.Duration // per-try timeout; default 5s
	Logger     model.Logger
}

// DefaultNameserver is used when Settings["dns/nameserver"] is empty.
const DefaultNameserver = "8.8.8.8:53"

// NewUDP builds a UDPResolver from Settings, per spec.md §6's
// dns/nameserver, dns/attempts, dns/timeout keys.
func NewUDP(settings model.Settings, logger model.Logger) *UDPResolver {
	ns := settings.String("dns/nameserver", "")
	if ns == "" {
		ns = DefaultNameserver
	} else if _, _, err := net.SplitHostPort(ns); err != nil {
		ns = net.JoinHostPort(ns, "53")
	}
	return &UDPResolver{
		Nameserver: ns,
		Attempts:   settings.Int("dns/attempts", 3),
		Timeout:    settings.Duration("dns/timeout", 5*time.Second),
		Logger:     model.ValidLoggerOrDefault(logger),
	}
}

var _ Backend = &UDPResolver{}

// Query implements Backend.Query.
func (r *UDPResolver) Query(ctx context.Context, class Class, qtype Type, name string) (*Message, error) {
	if !classSupported(class) {
		return nil, errs.UnsupportedClass()
	}
	wireType, wireName, err := toWireQuery(qtype, name)
	if err != nil {
		return nil, err
	}
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr *errs.Error
	for i := 0; i < attempts; i++ {
		msg, err := r.exchange(ctx, wireType, wireName)
		if err == nil {
			return toMessage(qtype, name, msg)
		}
		lastErr = err
		r.Logger.Debugf("resolver: attempt %d/%d failed: %s", i+1, attempts, err)
	}
	return nil, errs.DnsGeneric("all retries exhausted: " + lastErr.Error())
}

func (r *UDPResolver) exchange(ctx context.Context, wireType uint16, name string) (*dns.Msg, *errs.Error) {
	query := new(dns.Msg)
	query.Id = dns.Id()
	query.RecursionDesired = true
	query.SetQuestion(dns.Fqdn(name), wireType)

	packed, err := query.Pack()
	if err != nil {
		return nil, errs.Format(err.Error())
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(dialCtx, "udp", r.Nameserver)
	if err != nil {
		return nil, errs.Timeout()
	}
	defer conn.Close()
	if deadline, ok := dialCtx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(packed); err != nil {
		return nil, errs.Network(err.Error())
	}
	reply := make([]byte, 1<<16)
	n, err := conn.Read(reply)
	if err != nil {
		return nil, errs.Timeout()
	}

	resp := new(dns.Msg)
	if err := resp.Unpack(reply[:n]); err != nil {
		return nil, errs.Format(err.Error())
	}
	if resp.Id != query.Id {
		return nil, errs.Format("reply with wrong query ID")
	}
	return resp, nil
}

// toWireQuery maps Type (including the REVERSE_A/REVERSE_AAAA pseudo
// types) to an actual wire qtype and the name to query.
func toWireQuery(t Type, name string) (uint16, string, error) {
	switch t {
	case TypeA:
		return dns.TypeA, normalizeHostname(name), nil
	case TypeAAAA:
		return dns.TypeAAAA, normalizeHostname(name), nil
	case TypeCNAME:
		return dns.TypeCNAME, normalizeHostname(name), nil
	case TypeNS:
		return dns.TypeNS, normalizeHostname(name), nil
	case TypePTR:
		return dns.TypePTR, name, nil
	case TypeMX:
		return dns.TypeMX, normalizeHostname(name), nil
	case TypeTXT:
		return dns.TypeTXT, normalizeHostname(name), nil
	case TypeSOA:
		return dns.TypeSOA, normalizeHostname(name), nil
	case TypeReverseA:
		rev := ReverseIPv4(name)
		if rev == "" {
			return 0, "", errs.Value("not a valid IPv4 address: " + name)
		}
		return dns.TypePTR, rev, nil
	case TypeReverseAAAA:
		rev := ReverseIPv6(name)
		if rev == "" {
			return 0, "", errs.Value("not a valid IPv6 address: " + name)
		}
		return dns.TypePTR, rev, nil
	default:
		return 0, "", errs.UnsupportedType()
	}
}

func toMessage(requestedType Type, requestedName string, msg *dns.Msg) (*Message, error) {
	switch msg.Rcode {
	case dns.RcodeSuccess:
		// fallthrough
	case dns.RcodeNameError:
		return nil, errs.New(errs.FormatError, errs.FailureDNSNXDOMAINError, "NXDOMAIN")
	case dns.RcodeRefused:
		return nil, errs.DnsGeneric("query refused")
	case dns.RcodeServerFailure:
		return nil, errs.DnsGeneric("server failure")
	default:
		return nil, errs.Format("unexpected Rcode")
	}
	out := &Message{Queries: []Query{{Type: requestedType, Name: requestedName}}}
	for _, rr := range msg.Answer {
		ans := Answer{Name: rr.Header().Name, TTL: rr.Header().Ttl}
		switch v := rr.(type) {
		case *dns.A:
			ans.Type = TypeA
			ans.IPv4 = v.A.String()
		case *dns.AAAA:
			ans.Type = TypeAAAA
			ans.IPv6 = v.AAAA.String()
		case *dns.CNAME:
			ans.Type = TypeCNAME
			ans.Hostname = v.Target
		case *dns.NS:
			ans.Type = TypeNS
			ans.Hostname = v.Ns
		case *dns.PTR:
			ans.Type = TypePTR
			ans.Hostname = v.Ptr
		case *dns.MX:
			ans.Type = TypeMX
			ans.Hostname = v.Mx
		case *dns.TXT:
			ans.Type = TypeTXT
			ans.Text = joinTXT(v.Txt)
		case *dns.SOA:
			ans.Type = TypeSOA
			ans.Hostname = v.Ns
		default:
			continue
		}
		out.Answers = append(out.Answers, ans)
	}
	return out, nil
}

func joinTXT(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
