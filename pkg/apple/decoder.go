package apple

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const appleIssuerURL = "https://appleid.apple.com"

// IdentityTokenDecoder verifies a raw identity token and returns its
// claim set.
type IdentityTokenDecoder interface {
	Decode(ctx context.Context, rawToken string) (map[string]any, error)
}

// OIDCDecoder decodes Apple identity tokens using OIDC discovery and
// Apple's published signing keys.
type OIDCDecoder struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCDecoder discovers Apple's OIDC configuration and builds a
// verifier bound to the given client ID (the token audience).
func NewOIDCDecoder(ctx context.Context, clientID string) (*OIDCDecoder, error) {
	provider, err := oidc.NewProvider(ctx, appleIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	return &OIDCDecoder{verifier: verifier}, nil
}

func (d *OIDCDecoder) Decode(ctx context.Context, rawToken string) (map[string]any, error) {
	idToken, err := d.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	return claims, nil
}
