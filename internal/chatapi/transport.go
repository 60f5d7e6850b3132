package chatapi

import (
	"net/http"

	"github.com/google/uuid"
)

// credentialTransport adjunta la identidad vigente a cada request saliente.
type credentialTransport struct {
	base  http.RoundTripper
	creds CredentialSource
}

// NewCredentialTransport envuelve base (o http.DefaultTransport) con las cabeceras de identidad.
func NewCredentialTransport(base http.RoundTripper, creds CredentialSource) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &credentialTransport{base: base, creds: creds}
}

func (t *credentialTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(HeaderRequestID) == "" {
		r.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if t.creds != nil {
		c := t.creds.Credentials()
		switch {
		case c.BearerToken != "":
			r.Header.Set(HeaderAuthorization, "Bearer "+c.BearerToken)
		case c.SessionID != "":
			r.Header.Set(HeaderSessionID, c.SessionID)
		}
	}
	return t.base.RoundTrip(r)
}
