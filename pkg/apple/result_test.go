package apple

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func tokenWithExtras(base *oauth2.Token, extras map[string]any) *oauth2.Token {
	return base.WithExtra(extras)
}

func TestUID_ConfiguredField(t *testing.T) {
	s := newTestStrategy(Config{UIDField: "email"}, nil)
	st := &CallbackState{Profile: map[string]any{"uid": "U1", "email": "a@b.com"}}

	if got := s.UID(st); got != "a@b.com" {
		t.Errorf("expected uid from configured field, got %q", got)
	}
}

func TestUID_AbsentProfile(t *testing.T) {
	s := newTestStrategy(Config{}, nil)

	if got := s.UID(nil); got != "" {
		t.Errorf("expected empty uid for nil state, got %q", got)
	}
	if got := s.UID(&CallbackState{}); got != "" {
		t.Errorf("expected empty uid for empty state, got %q", got)
	}
}

func TestCredentials_ExpiresIffExpirySet(t *testing.T) {
	s := newTestStrategy(Config{}, nil)

	expiry := time.Now().Add(time.Hour)
	st := &CallbackState{Token: &oauth2.Token{AccessToken: "at", Expiry: expiry}}
	creds := s.Credentials(st)
	if !creds.Expires {
		t.Error("expected Expires=true for token with expiry")
	}
	if creds.ExpiresAt != expiry.Unix() {
		t.Errorf("expected expires_at %d, got %d", expiry.Unix(), creds.ExpiresAt)
	}

	st = &CallbackState{Token: &oauth2.Token{AccessToken: "at"}}
	creds = s.Credentials(st)
	if creds.Expires {
		t.Error("expected Expires=false for token without expiry")
	}
	if creds.ExpiresAt != 0 {
		t.Errorf("expected zero expires_at, got %d", creds.ExpiresAt)
	}
}

func TestCredentials_ScopesSpaceDelimited(t *testing.T) {
	s := newTestStrategy(Config{}, nil)
	st := &CallbackState{
		Token: tokenWithExtras(&oauth2.Token{AccessToken: "at", TokenType: "Bearer", RefreshToken: "rt"},
			map[string]any{"scope": "name email"}),
	}

	creds := s.Credentials(st)
	if len(creds.Scopes) != 2 || creds.Scopes[0] != "name" || creds.Scopes[1] != "email" {
		t.Errorf("expected scopes [name email], got %v", creds.Scopes)
	}
	if creds.Token != "at" || creds.RefreshToken != "rt" || creds.TokenType != "Bearer" {
		t.Errorf("expected verbatim token fields, got %+v", creds)
	}
}

func TestCredentials_EmptyState(t *testing.T) {
	s := newTestStrategy(Config{}, nil)

	creds := s.Credentials(nil)
	if creds.Token != "" || creds.Expires || creds.Scopes != nil {
		t.Errorf("expected zero credentials for nil state, got %+v", creds)
	}
}

func TestInfo_NameAbsentOnRepeatLogin(t *testing.T) {
	s := newTestStrategy(Config{}, nil)
	st := &CallbackState{Profile: map[string]any{"uid": "U1", "email": "a@b.com"}}

	info := s.Info(st)
	if info.Email != "a@b.com" {
		t.Errorf("expected email, got %q", info.Email)
	}
	if info.FirstName != "" || info.LastName != "" {
		t.Errorf("expected empty names without name sub-map, got %+v", info)
	}
}

func TestInfo_NestedName(t *testing.T) {
	s := newTestStrategy(Config{}, nil)
	st := &CallbackState{Profile: map[string]any{
		"email": "a@b.com",
		"name":  map[string]any{"firstName": "Jane", "lastName": "Doe"},
	}}

	info := s.Info(st)
	if info.FirstName != "Jane" || info.LastName != "Doe" {
		t.Errorf("expected nested name, got %+v", info)
	}
}

func TestExtra_Verbatim(t *testing.T) {
	s := newTestStrategy(Config{}, nil)
	token := &oauth2.Token{AccessToken: "at"}
	profile := map[string]any{"uid": "U1"}
	st := &CallbackState{Token: token, Profile: profile}

	extra := s.Extra(st)
	if extra.RawInfo.Token != token {
		t.Error("expected raw_info.token to be the stored token")
	}
	if extra.RawInfo.User["uid"] != "U1" {
		t.Error("expected raw_info.user to be the stored profile")
	}
}

func TestCleanup_ClearsStoredState(t *testing.T) {
	s := newTestStrategy(Config{}, nil)
	st := &CallbackState{
		Token:      &oauth2.Token{AccessToken: "at"},
		RawIDToken: "raw",
		Profile:    map[string]any{"uid": "U1", "email": "a@b.com"},
	}

	st.Cleanup()

	if got := s.UID(st); got != "" {
		t.Errorf("expected no uid after cleanup, got %q", got)
	}
	if creds := s.Credentials(st); creds.Token != "" || creds.Expires {
		t.Errorf("expected no credentials after cleanup, got %+v", creds)
	}
	if info := s.Info(st); info != (Info{}) {
		t.Errorf("expected no info after cleanup, got %+v", info)
	}

	// Idempotent, and safe on nil
	st.Cleanup()
	var nilState *CallbackState
	nilState.Cleanup()
}

func TestResult_Assembly(t *testing.T) {
	s := newTestStrategy(Config{}, nil)
	st := &CallbackState{
		Token: tokenWithExtras(&oauth2.Token{AccessToken: "at", TokenType: "Bearer"},
			map[string]any{"scope": "email"}),
		Profile: map[string]any{"uid": "U1", "email": "a@b.com"},
	}

	result := s.Result(st)
	if result.Provider != "apple" {
		t.Errorf("expected provider apple, got %q", result.Provider)
	}
	if result.UID != "U1" {
		t.Errorf("expected uid U1, got %q", result.UID)
	}
	if result.Info.Email != "a@b.com" {
		t.Errorf("expected email, got %q", result.Info.Email)
	}
	if len(result.Credentials.Scopes) != 1 || result.Credentials.Scopes[0] != "email" {
		t.Errorf("expected scopes [email], got %v", result.Credentials.Scopes)
	}
	if result.Extra.RawInfo.Token != st.Token {
		t.Error("expected raw token in extra")
	}
}
