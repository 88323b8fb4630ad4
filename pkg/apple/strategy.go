package apple

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"golang.org/x/oauth2"
)

var appleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://appleid.apple.com/auth/authorize",
	TokenURL: "https://appleid.apple.com/auth/token",
	// Apple rejects client credentials sent via the Authorization header
	AuthStyle: oauth2.AuthStyleInParams,
}

// Config is the static strategy configuration. Built once at startup
// and read-only afterwards; requests never mutate it.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// DefaultScope is requested when the inbound request carries no
	// scope override. Defaults to "name email".
	DefaultScope string

	// UIDField names the profile key returned by UID. Defaults to "uid".
	UIDField string

	// Prompt and AccessType are added to the authorize URL when
	// non-empty, unless overridden per request.
	Prompt     string
	AccessType string

	// Endpoint overrides Apple's OAuth2 endpoints. Used by tests.
	Endpoint oauth2.Endpoint
}

func (c Config) withDefaults() Config {
	if c.DefaultScope == "" {
		c.DefaultScope = "name email"
	}
	if c.UIDField == "" {
		c.UIDField = "uid"
	}
	if c.Endpoint.AuthURL == "" && c.Endpoint.TokenURL == "" {
		c.Endpoint = appleEndpoint
	}
	return c
}

// Strategy implements the two-phase Sign In with Apple handshake:
// building the authorize redirect and handling the provider callback.
type Strategy struct {
	cfg     Config
	decoder IdentityTokenDecoder
}

func NewStrategy(cfg Config, decoder IdentityTokenDecoder) *Strategy {
	return &Strategy{
		cfg:     cfg.withDefaults(),
		decoder: decoder,
	}
}

func (s *Strategy) Name() string {
	return "apple"
}

// AuthorizeURL builds the Apple authorization URL for the given state.
// Parameter precedence, later wins on collision: base scope, configured
// prompt/access_type when non-empty, then request-supplied values.
func (s *Strategy) AuthorizeURL(state string, opts RequestOptions) string {
	scope := pick(opts.Scope, s.cfg.DefaultScope)

	params := map[string]string{}
	if s.cfg.Prompt != "" {
		params["prompt"] = s.cfg.Prompt
	}
	if s.cfg.AccessType != "" {
		params["access_type"] = s.cfg.AccessType
	}
	if opts.AccessType != "" {
		params["access_type"] = opts.AccessType
	}
	if opts.Prompt != "" {
		params["prompt"] = opts.Prompt
	}
	if opts.ResponseMode != "" {
		params["response_mode"] = opts.ResponseMode
	}

	authOpts := make([]oauth2.AuthCodeOption, 0, len(params))
	for k, v := range params {
		authOpts = append(authOpts, oauth2.SetAuthURLParam(k, v))
	}

	conf := s.oauthConfig(opts, strings.Fields(scope))
	authURL := conf.AuthCodeURL(state, authOpts...)

	// Apple is picky here and requires %20 instead of + in the scope
	return strings.ReplaceAll(authURL, "+", "%20")
}

// CallbackParams are the parameters Apple sends to the redirect URL.
// With response_mode=form_post they arrive in the POST body.
type CallbackParams struct {
	Code             string
	State            string
	User             string // JSON user blob, first consent only
	Error            string
	ErrorDescription string
}

// CallbackState is the request-scoped result of a successful callback.
// It must never be shared across requests; call Cleanup once the host
// has extracted what it needs.
type CallbackState struct {
	Token      *oauth2.Token
	RawIDToken string
	Profile    map[string]any
}

// Cleanup clears the stored token and profile so a reused request
// context cannot observe credentials from a prior exchange. Idempotent
// and safe on nil.
func (st *CallbackState) Cleanup() {
	if st == nil {
		return
	}
	st.Token = nil
	st.RawIDToken = ""
	st.Profile = nil
}

// HandleCallback processes the provider callback. The three input
// shapes are mutually exclusive and matched in priority order: code,
// then provider error, then malformed.
func (s *Strategy) HandleCallback(ctx context.Context, p CallbackParams, opts RequestOptions) (*CallbackState, *AuthError) {
	switch {
	case p.Code != "":
		return s.exchange(ctx, p, opts)
	case p.Error != "":
		return nil, &AuthError{
			Kind:        KindProviderDenied,
			Code:        "auth_failed",
			Description: pick(p.ErrorDescription, p.Error),
		}
	default:
		return nil, &AuthError{
			Kind:        KindMalformedCallback,
			Code:        "missing_code",
			Description: "callback carried neither code nor error",
		}
	}
}

func (s *Strategy) exchange(ctx context.Context, p CallbackParams, opts RequestOptions) (*CallbackState, *AuthError) {
	// Apple only sends the user blob on first consent; default to an
	// empty profile on repeat logins or an unparsable fragment.
	profile := map[string]any{}
	if p.User != "" {
		if err := json.Unmarshal([]byte(p.User), &profile); err != nil {
			profile = map[string]any{}
		}
	}

	conf := s.oauthConfig(opts, strings.Fields(pick(opts.Scope, s.cfg.DefaultScope)))
	token, err := conf.Exchange(ctx, p.Code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.ErrorCode != "" {
			return nil, &AuthError{
				Kind:        KindTokenExchangeFailed,
				Code:        re.ErrorCode,
				Description: re.ErrorDescription,
			}
		}
		return nil, &AuthError{
			Kind:        KindTokenExchangeFailed,
			Code:        "token_exchange_failed",
			Description: err.Error(),
		}
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, &AuthError{
			Kind:        KindIdentityDecodeFailed,
			Code:        "missing_id_token",
			Description: "no id_token in token response",
		}
	}

	claims, err := s.decoder.Decode(ctx, rawIDToken)
	if err != nil {
		return nil, &AuthError{
			Kind:        KindIdentityDecodeFailed,
			Code:        "invalid_id_token",
			Description: err.Error(),
		}
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if sub == "" || email == "" {
		return nil, &AuthError{
			Kind:        KindIdentityDecodeFailed,
			Code:        "missing_claims",
			Description: "identity token missing sub or email claim",
		}
	}

	// The identity token is authoritative for these two keys
	profile["uid"] = sub
	profile["email"] = email

	return &CallbackState{
		Token:      token,
		RawIDToken: rawIDToken,
		Profile:    profile,
	}, nil
}

// oauthConfig builds the per-request oauth2 configuration. The request
// credential pair replaces the static one only when both fields are
// present; a partial pair falls back to the configured credentials.
func (s *Strategy) oauthConfig(opts RequestOptions, scopes []string) *oauth2.Config {
	clientID, clientSecret := s.cfg.ClientID, s.cfg.ClientSecret
	if opts.ClientID != "" && opts.ClientSecret != "" {
		clientID, clientSecret = opts.ClientID, opts.ClientSecret
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  s.cfg.RedirectURL,
		Endpoint:     s.cfg.Endpoint,
		Scopes:       scopes,
	}
}
