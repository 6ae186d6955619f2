package errs

//
// Go-error → OONI-failure classification.
//
// Grounded on internal/engine/netx/errorx.go's toFailureString: syscall
// errno switch, context.Canceled, x509 error types, then string-suffix
// fallbacks, then an "unknown_failure: ..." catch-all.
//

import (
	"context"
	"crypto/x509"
	"errors"
	"net"
	"regexp"
	"strings"
	"syscall"
)

// ClassifyGeneric maps an arbitrary Go error to an *Error using the
// generic classifier. Callers that have a more specific classifier
// (e.g. internal/connect's classifyTLSError) try that first and fall
// back to this one.
func ClassifyGeneric(err error) *Error {
	if err == nil {
		return nil
	}
	var wrapped *Error
	if errors.As(err, &wrapped) {
		return wrapped
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if f := classifyErrno(errno); f != "" {
			return New(NetworkError, f, err.Error())
		}
	}
	if errors.Is(err, context.Canceled) {
		return New(NetworkError, FailureInterrupted, err.Error())
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return New(SslInvalidHostnameError, FailureSSLInvalidHostname, err.Error())
	}
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &unknownAuth) {
		return New(SslInvalidCertificateError, FailureSSLUnknownAuthority, err.Error())
	}
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &certInvalid) {
		return New(SslInvalidCertificateError, FailureSSLInvalidCertificate, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return New(TimeoutError, FailureGenericTimeoutError, err.Error())
	}
	if f := classifyStringSuffix(err.Error()); f != "" {
		return New(NetworkError, f, err.Error())
	}
	return New(GenericError, FailureGenericError+": "+Scrub(err.Error()), err.Error())
}

func classifyErrno(errno syscall.Errno) string {
	switch errno {
	case syscall.ECONNRESET:
		return FailureConnectionReset
	case syscall.ECONNREFUSED:
		return FailureConnectionRefused
	case syscall.ETIMEDOUT:
		return FailureGenericTimeoutError
	default:
		return ""
	}
}

func classifyStringSuffix(s string) string {
	switch {
	case strings.HasSuffix(s, "operation was canceled"):
		return FailureInterrupted
	case strings.HasSuffix(s, "EOF"):
		return FailureEOFError
	case strings.HasSuffix(s, "context deadline exceeded"):
		return FailureGenericTimeoutError
	case strings.HasSuffix(s, "i/o timeout"):
		return FailureGenericTimeoutError
	case strings.HasSuffix(s, "TLS handshake timeout"):
		return FailureGenericTimeoutError
	case strings.HasSuffix(s, "no such host"):
		return FailureDNSNXDOMAINError
	case strings.HasSuffix(s, "connection refused"):
		return FailureConnectionRefused
	case strings.HasSuffix(s, "connection reset by peer"):
		return FailureConnectionReset
	default:
		return ""
	}
}

// scrubPattern matches IPv4 dotted quads and bracketed IPv6 addresses
// ("[2001:db8::1]"); IPv6 addresses without brackets are not matched.
// It follows the teacher's per-measurement IP scrubbing in
// internal/model.ScrubMeasurement in purpose, not in regex: an
// "unknown_failure: ..." string does not carry a matched address of the
// probe or of a collaborating server into a report.
var scrubPattern = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b|\[[0-9a-fA-F:]+\]`)

// Scrub replaces every IPv4 dotted quad and bracketed IPv6 address in s
// with "[scrubbed]".
func Scrub(s string) string {
	return scrubPattern.ReplaceAllString(s, "[scrubbed]")
}
