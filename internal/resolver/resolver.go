// Package resolver implements the DNS resolver abstraction described in
// SPEC_FULL.md §6.3 (spec.md §4.3, C3): a recursive UDP backend built on
// github.com/miekg/dns (grounded on the teacher's
// internal/netxlite/dnsencoder.go, dnsdecoder.go and dnsoverudp.go) and a
// system backend that delegates to the platform resolver in a background
// task and hands the result back through a reactor.
package resolver

import (
	"context"

	"golang.org/x/net/idna"
)

// hostnameProfile performs the IDNA ToASCII conversion this package
// applies to every hostname-bearing query before it hits the wire,
// grounded on the teacher's internal/netxlite/resolver.go resolverIDNA
// wrapper.
var hostnameProfile = idna.New(idna.MapForLookup(), idna.Transitional(false))

// normalizeHostname converts name to its ASCII (punycode) form. IPv4
// literals and other lowercase ASCII names come back from ToASCII
// unchanged; names that fail ToASCII (IPv6 literals, for example) are
// returned as given.
func normalizeHostname(name string) string {
	if ascii, err := hostnameProfile.ToASCII(name); err == nil {
		return ascii
	}
	return name
}

// Class enumerates the DNS classes spec.md §3 lists.
type Class uint16

const (
	ClassIN Class = 1
	ClassCH Class = 3
	ClassHS Class = 4
)

// Type enumerates the record types spec.md §3 lists, including the two
// pseudo-types REVERSE_A/REVERSE_AAAA that this design — like the
// original Measurement Kit resolver in
// _examples/original_source/src/dns — uses to mean "do a PTR lookup,
// but accept a plain dotted-quad/colon-hex address and reverse it for
// me" rather than requiring the caller to pre-reverse the name.
type Type uint16

const (
	TypeA Type = 1
	TypeNS Type = 2
	TypeCNAME Type = 5
	TypeSOA Type = 6
	TypePTR Type = 12
	TypeMX Type = 15
	TypeTXT Type = 16
	TypeAAAA Type = 28
	// TypeReverseA and TypeReverseAAAA are not wire types:
	// UDPResolver.Query rewrites them into a PTR query over the
	// reversed-label name built from the caller-supplied literal address;
	// SystemResolver.Query rejects them with UnsupportedTypeError.
	TypeReverseA Type = 0xff01
	TypeReverseAAAA Type = 0xff02
)

// Query is a DNS query as described in spec.md §3.
type Query struct {
	Class Class
	Type  Type
	Name  string
}

// Answer holds one resource record's decoded value. Only the field(s)
// relevant to Type are populated.
type Answer struct {
	Name     string
	Class    Class
	Type     Type
	TTL      uint32
	IPv4     string
	IPv6     string
	Hostname string
	Text     string
}

// Message carries a list of queries and answers.
type Message struct {
	Queries []Query
	Answers []Answer
}

// Backend is the contract shared by the recursive UDP resolver and the
// system resolver, per spec.md §4.3.
type Backend interface {
	Query(ctx context.Context, class Class, qtype Type, name string) (*Message, error)
}

// classSupported reports whether class is one spec.md §3 names.
func classSupported(c Class) bool {
	switch c {
	case ClassIN, ClassCH, ClassHS:
		return true
	default:
		return false
	}
}
