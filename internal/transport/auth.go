package transport

import "net/http"

// Authenticator applies a platform's authentication scheme to outgoing
// requests. Credentials live on the authenticator, not the request path, so
// platform clients never handle raw tokens.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth applies no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BearerAuth sends the token as an Authorization bearer header. Used by the
// YNAB API.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// HeaderAuth sends the credential in a custom header.
type HeaderAuth struct {
	Header string
	Value  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Value)
}

// AkahuAuth implements Akahu's dual-token scheme: the user token as a bearer
// header plus the app token in X-Akahu-ID.
type AkahuAuth struct {
	UserToken string
	AppToken  string
}

// Apply implements the Authenticator interface for AkahuAuth.
func (a *AkahuAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.UserToken)
	req.Header.Set("X-Akahu-ID", a.AppToken)
}
