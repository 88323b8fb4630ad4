package apple

import "fmt"

// ErrorKind classifies callback failures for the host application.
type ErrorKind string

const (
	// KindProviderDenied means Apple reported an error on the callback
	// (e.g. the user cancelled the consent screen).
	KindProviderDenied ErrorKind = "provider_denied"

	// KindMalformedCallback means the callback carried neither a code
	// nor an error parameter.
	KindMalformedCallback ErrorKind = "malformed_callback"

	// KindTokenExchangeFailed means the code-for-token exchange against
	// Apple's token endpoint failed. Not retried by this package.
	KindTokenExchangeFailed ErrorKind = "token_exchange_failed"

	// KindIdentityDecodeFailed means the identity token was missing,
	// failed verification, or did not carry the sub/email claims.
	KindIdentityDecodeFailed ErrorKind = "identity_decode_failed"

	// KindStateMismatch means the anti-forgery state was unknown,
	// already consumed, or expired.
	KindStateMismatch ErrorKind = "state_mismatch"
)

// AuthError is a callback failure surfaced to the host application.
// Code and Description carry the provider-supplied values when present.
type AuthError struct {
	Kind        ErrorKind
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("apple auth: %s (%s)", e.Code, e.Kind)
	}
	return fmt.Sprintf("apple auth: %s (%s): %s", e.Code, e.Kind, e.Description)
}
