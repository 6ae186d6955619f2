package resolver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/miekg/dns"
)

func TestUnreverseIPv4RoundTrip(t *testing.T) {
	addrs := []string{"127.0.0.1", "8.8.8.8", "192.168.1.254", "0.0.0.0", "255.255.255.255"}
	for _, a := range addrs {
		rev := ReverseIPv4(a)
		if rev == "" {
			t.Fatalf("ReverseIPv4(%q) returned empty", a)
		}
		got := UnreverseIPv4(rev)
		if got != a {
			t.Fatalf("round trip failed: %q -> %q -> %q", a, rev, got)
		}
	}
}

func TestUnreverseIPv4Malformed(t *testing.T) {
	cases := []string{"", "not.a.reverse.name", "1.2.3.in-addr.arpa", "999.0.0.127.in-addr.arpa"}
	for _, c := range cases {
		if got := UnreverseIPv4(c); got != "" {
			t.Fatalf("UnreverseIPv4(%q) = %q, want empty", c, got)
		}
	}
}

func TestUnreverseIPv6RoundTrip(t *testing.T) {
	addrs := []string{"::1", "2001:db8::1", "fe80::1"}
	for _, a := range addrs {
		rev := ReverseIPv6(a)
		if rev == "" {
			t.Fatalf("ReverseIPv6(%q) returned empty", a)
		}
		got := UnreverseIPv6(rev)
		if got == "" {
			t.Fatalf("UnreverseIPv6 round trip returned empty for %q (rev=%q)", a, rev)
		}
		if net.ParseIP(got).String() != net.ParseIP(a).String() {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", a, rev, got)
		}
	}
}

func TestToMessageDecodesMixedAnswers(t *testing.T) {
	msg := new(dns.Msg)
	msg.Rcode = dns.RcodeSuccess
	a, _ := dns.NewRR("example.com. 300 IN A 93.184.216.34")
	cname, _ := dns.NewRR("www.example.com. 300 IN CNAME example.com.")
	msg.Answer = []dns.RR{a, cname}

	got, err := toMessage(TypeA, "example.com", msg)
	if err != nil {
		t.Fatalf("toMessage returned error: %v", err)
	}
	want := &Message{
		Queries: []Query{{Type: TypeA, Name: "example.com"}},
		Answers: []Answer{
			{Name: "example.com.", TTL: 300, Type: TypeA, IPv4: "93.184.216.34"},
			{Name: "www.example.com.", TTL: 300, Type: TypeCNAME, Hostname: "example.com."},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("toMessage mismatch (-want +got):\n%s", diff)
	}
}

func TestSystemResolverOnlySupportsIN(t *testing.T) {
	s := NewSystem(nil)
	_, err := s.Query(context.Background(), ClassCH, TypeA, "example.com")
	if err == nil {
		t.Fatal("expected error for unsupported class")
	}
}

func TestSystemResolverUnsupportedType(t *testing.T) {
	s := NewSystem(nil)
	_, err := s.Query(context.Background(), ClassIN, TypeMX, "example.com")
	if err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestSystemResolverLoopback(t *testing.T) {
	s := NewSystem(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := s.Query(ctx, ClassIN, TypeA, "localhost")
	if err != nil {
		t.Skipf("environment has no working resolver: %v", err)
	}
	found := false
	for _, a := range msg.Answers {
		if a.IPv4 != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one IPv4 answer for localhost, got %+v", msg.Answers)
	}
}
