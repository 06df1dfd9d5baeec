// Package apierrors provides the error taxonomy of the OTRS client.
// Every failure that crosses a package boundary is an *Error carrying a Kind;
// callers match kinds with errors.Is against the sentinels below.
package apierrors

// Kind classifies a client failure.
type Kind string

// Error kinds
const (
	// Construction and programmer errors
	KindConfiguration        Kind = "configuration"
	KindUnsupportedMethod    Kind = "unsupported_method"
	KindMissingTemplateField Kind = "missing_template_field"

	// Session cache
	KindCorruptCache Kind = "corrupt_cache"

	// Service-reported errors
	KindAuthenticationFailed Kind = "authentication_failed"
	KindAccessDenied         Kind = "access_denied"
	KindInvalidParameter     Kind = "invalid_parameter"
	KindServiceError         Kind = "service_error"

	// Transport and wire errors
	KindBadResponse   Kind = "bad_response"
	KindProtocolError Kind = "protocol_error"
	KindTransport     Kind = "transport"

	// Domain argument errors
	KindArgumentMissing Kind = "argument_missing"
	KindArgumentInvalid Kind = "argument_invalid"
	KindInvalidArgument Kind = "invalid_argument"
)

// OTRS error code fragments. The service reports codes such as
// "TicketGet.AuthFail" or "TicketCreate.InvalidParameter"; only the fragment
// after the operation prefix is significant.
const (
	FragmentAuthFail         = "AuthFail"
	FragmentAccessDenied     = "AccessDenied"
	FragmentInvalidParameter = "InvalidParameter"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConfiguration        = &Error{Kind: KindConfiguration}
	ErrUnsupportedMethod    = &Error{Kind: KindUnsupportedMethod}
	ErrMissingTemplateField = &Error{Kind: KindMissingTemplateField}
	ErrCorruptCache         = &Error{Kind: KindCorruptCache}
	ErrAuthenticationFailed = &Error{Kind: KindAuthenticationFailed}
	ErrAccessDenied         = &Error{Kind: KindAccessDenied}
	ErrInvalidParameter     = &Error{Kind: KindInvalidParameter}
	ErrServiceError         = &Error{Kind: KindServiceError}
	ErrBadResponse          = &Error{Kind: KindBadResponse}
	ErrProtocolError        = &Error{Kind: KindProtocolError}
	ErrTransport            = &Error{Kind: KindTransport}
	ErrArgumentMissing      = &Error{Kind: KindArgumentMissing}
	ErrArgumentInvalid      = &Error{Kind: KindArgumentInvalid}
	ErrInvalidArgument      = &Error{Kind: KindInvalidArgument}
)

// serviceRules are checked in order; the first fragment contained in the
// error code wins.
var serviceRules = []Rule{
	{Fragment: FragmentAuthFail, Kind: KindAuthenticationFailed, Message: "Authentication failed"},
	{Fragment: FragmentAccessDenied, Kind: KindAccessDenied, Message: "Access denied"},
	{Fragment: FragmentInvalidParameter, Kind: KindInvalidParameter, Message: "Invalid parameter"},
}

func init() {
	for _, r := range serviceRules {
		Registry.Register(r)
	}
}
