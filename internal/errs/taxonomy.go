package errs

import "strconv"

// OONI failure strings. These are stable identifiers used by report
// consumers; per spec.md §4.9 they must not change across versions.
// Names and values are grounded on
// internal/engine/netx/errorx.go's FailureXXX constants, extended with
// the fuller taxonomy spec.md §7 requires.
const (
	FailureConnectionRefused    = "connection_refused"
	FailureConnectionReset      = "connection_reset"
	FailureDNSBogonError        = "dns_bogon_error"
	FailureDNSNXDOMAINError     = "dns_nxdomain_error"
	FailureDNSGenericError      = "dns_lookup_error"
	FailureEOFError             = "eof_error"
	FailureGenericTimeoutError  = "generic_timeout_error"
	FailureInterrupted          = "interrupted"
	FailureSSLInvalidHostname   = "ssl_invalid_hostname"
	FailureSSLUnknownAuthority  = "ssl_unknown_authority"
	FailureSSLInvalidCertificate = "ssl_invalid_certificate"
	FailureSSLNoCertificate     = "ssl_no_certificate"
	FailureJSONParseError       = "json_parse_error"
	FailureConnectFailed        = "connect_error"
	FailureSocksError           = "socks_error"
	FailureHTTPRequestFailed    = "http_request_failed"
	FailureGenericError         = "unknown_failure"
	FailureValueError           = "value_error"
	FailureResolverError        = "resolver_error"
	FailureFileIoError          = "file_io_error"
)

// Constructors for the leaf errors named in spec.md §7.

func Generic(reason string) *Error { return New(GenericError, FailureGenericError+": "+reason, reason) }
func Value(reason string) *Error   { return New(ValueError, FailureValueError, reason) }
func NotInitialized(reason string) *Error {
	return New(NotInitializedError, FailureGenericError+": not initialized", reason)
}
func Mocked(reason string) *Error { return New(MockedError, FailureGenericError+": mocked", reason) }
func JSONParse(reason string) *Error {
	return New(JSONParseError, FailureJSONParseError, reason)
}
func JSONKey(reason string) *Error  { return New(JSONKeyError, FailureJSONParseError, reason) }
func JSONDomain(reason string) *Error {
	return New(JSONDomainError, FailureJSONParseError, reason)
}

func Socket(reason string) *Error        { return New(SocketError, FailureGenericError+": "+reason, reason) }
func ConnectFailed(children ...*Error) *Error {
	return Collapse(ConnectFailedError, FailureConnectFailed, children...)
}
func Timeout() *Error  { return New(TimeoutError, FailureGenericTimeoutError, "operation timed out") }
func EOF() *Error      { return New(EofError, FailureEOFError, "unexpected EOF") }
func Network(reason string) *Error { return New(NetworkError, FailureGenericError+": "+reason, reason) }
func DnsGeneric(reason string) *Error {
	return New(DnsGenericError, FailureDNSGenericError, reason)
}

func BadSocksVersion() *Error {
	return New(BadSocksVersionError, FailureSocksError, "invalid SOCKS version in reply")
}
func NoAvailableSocksAuthentication() *Error {
	return New(NoAvailableSocksAuthenticationError, FailureSocksError, "no acceptable SOCKS authentication method")
}
func Socks(reason string) *Error {
	return New(SocksError, FailureSocksError, reason)
}
func BadSocksReservedField() *Error {
	return New(BadSocksReservedFieldError, FailureSocksError, "SOCKS reply RSV field is not zero")
}
func BadSocksAtypeValue() *Error {
	return New(BadSocksAtypeValueError, FailureSocksError, "unrecognized SOCKS ATYPE value")
}
func SocksAddressTooLong() *Error {
	return New(SocksAddressTooLongError, FailureSocksError, "SOCKS5 domain name exceeds 255 bytes")
}
func SocksInvalidPort() *Error {
	return New(SocksInvalidPortError, FailureSocksError, "SOCKS5 port out of range")
}

func SslCtxNew(reason string) *Error { return New(SslCtxNewError, FailureGenericError+": "+reason, reason) }
func SslNew(reason string) *Error    { return New(SslNewError, FailureGenericError+": "+reason, reason) }
func SslCtxLoadVerifyLocations(reason string) *Error {
	return New(SslCtxLoadVerifyLocationsError, FailureGenericError+": "+reason, reason)
}
func MissingCaBundlePath() *Error {
	return New(MissingCaBundlePathError, FailureGenericError+": missing CA bundle path", "missing CA bundle path")
}
func SslInvalidCertificate(chainErr string) *Error {
	return New(SslInvalidCertificateError, FailureSSLInvalidCertificate, chainErr)
}
func SslNoCertificate() *Error {
	return New(SslNoCertificateError, FailureSSLNoCertificate, "peer did not present a certificate")
}
func SslInvalidHostname(reason string) *Error {
	return New(SslInvalidHostnameError, FailureSSLInvalidHostname, reason)
}

func Resolver(reason string) *Error { return New(ResolverError, FailureResolverError, reason) }
func UnsupportedClass() *Error {
	return New(UnsupportedClassError, FailureResolverError, "unsupported DNS class")
}
func UnsupportedType() *Error {
	return New(UnsupportedTypeError, FailureResolverError, "unsupported DNS type")
}
func Format(reason string) *Error { return New(FormatError, FailureDNSGenericError, reason) }

func Upgrade(reason string) *Error    { return New(UpgradeError, FailureGenericError+": "+reason, reason) }
func Parser(reason string) *Error     { return New(ParserError, FailureGenericError+": "+reason, reason) }
func UrlParser(reason string) *Error  { return New(UrlParserError, FailureGenericError+": "+reason, reason) }
func MissingUrlSchema() *Error {
	return New(MissingUrlSchemaError, FailureValueError, "missing URL schema")
}
func MissingUrlHost() *Error {
	return New(MissingUrlHostError, FailureValueError, "missing URL host")
}
func MissingUrl() *Error {
	return New(MissingUrlError, FailureValueError, "missing URL")
}
func HttpRequestFailed(statusCode int) *Error {
	e := New(HttpRequestFailedError, FailureHTTPRequestFailed, "")
	e.Reason = httpStatusReason(statusCode)
	return e
}

func MissingRequiredInputFile() *Error {
	return New(MissingRequiredInputFileError, FailureGenericError+": missing input file", "missing required input file")
}
func CannotOpenInputFile(reason string) *Error {
	return New(CannotOpenInputFileError, FailureFileIoError, reason)
}
func FileIo(reason string) *Error { return New(FileIoError, FailureFileIoError, reason) }

func MissingRequiredValue(reason string) *Error {
	return New(MissingRequiredValueError, FailureValueError, reason)
}
func RegistryWrongUsernamePassword() *Error {
	return New(RegistryWrongUsernamePasswordError, FailureGenericError+": wrong-username-password", "wrong-username-password")
}
func RegistryMissingUsernamePassword() *Error {
	return New(RegistryMissingUsernamePasswordError, FailureGenericError+": missing-username-password", "missing-username-password")
}
func RegistryInvalidRequest() *Error {
	return New(RegistryInvalidRequestError, FailureGenericError+": invalid request", "invalid request")
}
func RegistryEmptyClientId() *Error {
	return New(RegistryEmptyClientIdError, FailureGenericError+": empty client_id", "empty client_id")
}

func SequentialOperation(children ...*Error) *Error {
	return Collapse(SequentialOperationError, FailureGenericError+": sequential operation failed", children...)
}

func httpStatusReason(statusCode int) string {
	return "http status " + strconv.Itoa(statusCode)
}
