package apple

import (
	"strings"

	"golang.org/x/oauth2"
)

// Credentials is the token portion of the normalized auth result.
type Credentials struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	Expires      bool     `json:"expires"`
	ExpiresAt    int64    `json:"expires_at,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	TokenType    string   `json:"token_type,omitempty"`
}

// Info is the profile portion of the normalized auth result. First and
// last name are only populated on first consent, when Apple includes
// the user blob.
type Info struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// RawInfo carries the unprocessed exchange output for audit/debugging.
type RawInfo struct {
	Token *oauth2.Token  `json:"token"`
	User  map[string]any `json:"user"`
}

type Extra struct {
	RawInfo RawInfo `json:"raw_info"`
}

// AuthResult is the normalized record handed to the host application
// after a successful callback.
type AuthResult struct {
	Provider    string      `json:"provider"`
	UID         string      `json:"uid"`
	Credentials Credentials `json:"credentials"`
	Info        Info        `json:"info"`
	Extra       Extra       `json:"extra"`
}

// UID returns the configured uid field from the stored profile, or
// empty when the profile or field is absent.
func (s *Strategy) UID(st *CallbackState) string {
	if st == nil || st.Profile == nil {
		return ""
	}
	uid, _ := st.Profile[s.cfg.UIDField].(string)
	return uid
}

// Credentials maps the stored token into the result shape. Expires is
// true iff the token carries an expiry. The granted scope string is
// space-delimited per Apple's token response.
func (s *Strategy) Credentials(st *CallbackState) Credentials {
	if st == nil || st.Token == nil {
		return Credentials{}
	}

	creds := Credentials{
		Token:        st.Token.AccessToken,
		RefreshToken: st.Token.RefreshToken,
		TokenType:    st.Token.TokenType,
	}
	if !st.Token.Expiry.IsZero() {
		creds.Expires = true
		creds.ExpiresAt = st.Token.Expiry.Unix()
	}
	if scope, ok := st.Token.Extra("scope").(string); ok {
		creds.Scopes = strings.Fields(scope)
	}
	return creds
}

// Info extracts email and the optional nested name structure from the
// stored profile.
func (s *Strategy) Info(st *CallbackState) Info {
	if st == nil || st.Profile == nil {
		return Info{}
	}

	info := Info{}
	info.Email, _ = st.Profile["email"].(string)
	if name, ok := st.Profile["name"].(map[string]any); ok {
		info.FirstName, _ = name["firstName"].(string)
		info.LastName, _ = name["lastName"].(string)
	}
	return info
}

// Extra returns the stored token and profile verbatim.
func (s *Strategy) Extra(st *CallbackState) Extra {
	if st == nil {
		return Extra{}
	}
	return Extra{RawInfo: RawInfo{Token: st.Token, User: st.Profile}}
}

// Result assembles the full normalized auth result from a successful
// callback state.
func (s *Strategy) Result(st *CallbackState) *AuthResult {
	return &AuthResult{
		Provider:    s.Name(),
		UID:         s.UID(st),
		Credentials: s.Credentials(st),
		Info:        s.Info(st),
		Extra:       s.Extra(st),
	}
}
