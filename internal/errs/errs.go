// Package errs implements the tagged-error model described in
// SPEC_FULL.md §6.9. It is grounded on the teacher's
// internal/engine/netx/errorx.ErrWrapper and internal/netxlite's
// ErrWrapper, generalized from a single WrappedErr to an explicit
// Children slice so that the connect cascade (SPEC_FULL.md §6.5) can
// collapse several sibling failures into one parent error.
package errs

import "strings"

// Code is a stable taxonomy tag. Unlike the OONI failure string, codes
// are not meant to be serialized into reports; they exist so that two
// errors can be compared for equality per spec.md §3 ("two errors are
// equal iff their codes match").
type Code int

const (
	NoError Code = iota
	GenericError
	ValueError
	NotInitializedError
	MockedError
	JSONParseError
	JSONKeyError
	JSONDomainError

	// Net
	SocketError
	ConnectFailedError
	TimeoutError
	EofError
	NetworkError
	DnsGenericError

	// SOCKS5
	BadSocksVersionError
	NoAvailableSocksAuthenticationError
	SocksError
	BadSocksReservedFieldError
	BadSocksAtypeValueError
	SocksAddressTooLongError
	SocksInvalidPortError

	// TLS
	SslCtxNewError
	SslNewError
	SslCtxLoadVerifyLocationsError
	MissingCaBundlePathError
	SslInvalidCertificateError
	SslNoCertificateError
	SslInvalidHostnameError

	// DNS (system resolver mapping, spec.md §4.3 point 2)
	ResolverError
	TemporaryFailure
	NonRecoverableFailure
	NotSupportedAIFamily
	MemoryAllocationFailure
	HostOrServiceNotProvidedOrNotKnown
	ArgumentBufferOverflow
	UnknownResolvedProtocol
	NotSupportedServname
	NotSupportedAISocktype
	InvalidFlagsValue
	InvalidHintsValue
	UnsupportedClassError
	UnsupportedTypeError
	FormatError

	// HTTP
	UpgradeError
	ParserError
	UrlParserError
	MissingUrlSchemaError
	MissingUrlHostError
	MissingUrlError
	HttpRequestFailedError

	// Runner
	MissingRequiredInputFileError
	CannotOpenInputFileError
	FileIoError

	// Orchestrator
	MissingRequiredValueError
	RegistryWrongUsernamePasswordError
	RegistryMissingUsernamePasswordError
	RegistryInvalidRequestError
	RegistryEmptyClientIdError

	// Composition
	SequentialOperationError
)

// Error is a tagged error value, as described in spec.md §3: {code,
// reason, ooni_failure, children}. The zero value (Code == NoError)
// means "no error" and satisfies the error interface as a non-nil
// *Error whose Error() returns "" — callers should compare Code, not
// nil-ness, when the zero value might flow through; constructors below
// never return the zero value, so ordinary `err != nil` checks work for
// everything this package constructs.
type Error struct {
	Code         Code
	Reason       string
	OONIFailure  string
	Children     []*Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil || e.Code == NoError {
		return ""
	}
	if e.Reason != "" {
		return e.Reason
	}
	return e.OONIFailure
}

// Equal implements spec.md's "two errors are equal iff their codes
// match" rule.
func (e *Error) Equal(other *Error) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Code == other.Code
}

// WithChildren returns a copy of e with the given children attached,
// used by callers that want to wrap an error as the parent of other
// errors (spec.md §4.9 policy (b)/(c)).
func (e *Error) WithChildren(children ...*Error) *Error {
	cp := *e
	cp.Children = append(append([]*Error{}, cp.Children...), children...)
	return &cp
}

// New constructs a leaf Error.
func New(code Code, ooniFailure, reason string) *Error {
	return &Error{Code: code, OONIFailure: ooniFailure, Reason: reason}
}

// Collapse builds a parent error whose Children are the given non-nil
// errors, used by the connect cascade (spec.md §4.5 step 2) when every
// address attempt fails.
func Collapse(code Code, ooniFailure string, children ...*Error) *Error {
	var kept []*Error
	for _, c := range children {
		if c != nil {
			kept = append(kept, c)
		}
	}
	return &Error{Code: code, OONIFailure: ooniFailure, Children: kept}
}

// ChildrenFailures returns the OONIFailure string of every child,
// useful for diagnostics (spec.md §8 scenario 4).
func (e *Error) ChildrenFailures() []string {
	var out []string
	for _, c := range e.Children {
		out = append(out, c.OONIFailure)
	}
	return out
}

// String renders a short human form, e.g. for logging.
func (e *Error) String() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(e.OONIFailure)
	if len(e.Children) > 0 {
		b.WriteString(" (")
		for i, c := range e.Children {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(c.String())
		}
		b.WriteString(")")
	}
	return b.String()
}
