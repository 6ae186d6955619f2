package resolver

//
// System resolver, spec.md §4.3 point 2.
//
// Delegates to net.DefaultResolver.LookupIPAddr on a background
// goroutine; the result is marshalled back onto the caller's reactor
// via CallSoon, standing in for the source's "background task +
// call_soon" handoff. Error-code mapping is grounded on the teacher's
// internal/netxlite/getaddrinfo.go switch over getaddrinfo's error
// codes, reduced to what net.DNSError and net.AddrError expose:
// HostOrServiceNotProvidedOrNotKnown, TemporaryFailure,
// NonRecoverableFailure, NotSupportedAIFamily, else ResolverError (see
// classifySystemError). The other getaddrinfo codes of the taxonomy
// (MemoryAllocationFailure, ArgumentBufferOverflow, and so on) are
// never produced.
//

import (
	"context"
	"errors"
	"net"

	"github.com/TheTorProject/libight/internal/errs"
	"github.com/TheTorProject/libight/internal/reactor"
)

// SystemResolver delegates to the platform resolver. Only class IN is
// supported, per spec.md §4.3.
type SystemResolver struct {
	// Reactor, if non-nil, receives the result via CallSoon instead of
	// the call returning directly on the calling goroutine. Tests and
	// simple callers may leave this nil, in which case Query just
	// blocks and returns normally (still off the reactor's goroutine,
	// since LookupIPAddr always runs on a background goroutine).
	Reactor *reactor.Reactor
}

// NewSystem builds a SystemResolver.
func NewSystem(r *reactor.Reactor) *SystemResolver {
	return &SystemResolver{Reactor: r}
}

var _ Backend = &SystemResolver{}

// Query implements Backend.Query.
func (s *SystemResolver) Query(ctx context.Context, class Class, qtype Type, name string) (*Message, error) {
	if class != ClassIN {
		return nil, errs.UnsupportedClass()
	}
	switch qtype {
	case TypeA, TypeAAAA:
		// supported below
	default:
		return nil, errs.UnsupportedType()
	}
	name = normalizeHostname(name)

	type result struct {
		msg *Message
		err *errs.Error
	}
	resultCh := make(chan result, 1)

	go func() {
		addrs, err := net.DefaultResolver.LookupIPAddr(ctx, name)
		if err != nil {
			resultCh <- result{err: classifySystemError(err)}
			return
		}
		msg := &Message{Queries: []Query{{Class: class, Type: qtype, Name: name}}}
		for _, addr := range addrs {
			ip4 := addr.IP.To4()
			switch {
			case qtype == TypeA && ip4 != nil:
				msg.Answers = append(msg.Answers, Answer{Name: name, Class: class, Type: TypeA, IPv4: ip4.String()})
			case qtype == TypeAAAA && ip4 == nil:
				msg.Answers = append(msg.Answers, Answer{Name: name, Class: class, Type: TypeAAAA, IPv6: addr.IP.String()})
			}
		}
		resultCh <- result{msg: msg}
	}()

	if s.Reactor == nil {
		r := <-resultCh
		if r.err != nil {
			return nil, r.err
		}
		return r.msg, nil
	}

	done := make(chan result, 1)
	go func() {
		r := <-resultCh
		s.Reactor.CallSoon(func() { done <- r })
	}()
	r := <-done
	if r.err != nil {
		return nil, r.err
	}
	return r.msg, nil
}

// classifySystemError maps the platform resolver's error space onto
// the taxonomy spec.md §4.3 names. net's portable *net.DNSError carries
// only IsNotFound/IsTimeout/IsTemporary flags rather than the raw
// getaddrinfo error code the original C ABI exposes, so this mapping is
// necessarily coarser than the teacher's cgo-level switch in
// getaddrinfo_cgo.go; it still distinguishes every case the stdlib
// surface lets us distinguish.
func classifySystemError(err error) *errs.Error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return errs.New(errs.HostOrServiceNotProvidedOrNotKnown, errs.FailureDNSNXDOMAINError, dnsErr.Error())
		case dnsErr.IsTimeout:
			return errs.New(errs.TemporaryFailure, errs.FailureGenericTimeoutError, dnsErr.Error())
		case dnsErr.IsTemporary:
			return errs.New(errs.TemporaryFailure, errs.FailureDNSGenericError, dnsErr.Error())
		default:
			return errs.New(errs.NonRecoverableFailure, errs.FailureDNSGenericError, dnsErr.Error())
		}
	}
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return errs.New(errs.NotSupportedAIFamily, errs.FailureDNSGenericError, addrErr.Error())
	}
	if errors.Is(err, context.Canceled) {
		return errs.New(errs.ResolverError, errs.FailureInterrupted, err.Error())
	}
	return errs.New(errs.ResolverError, errs.FailureResolverError, err.Error())
}
