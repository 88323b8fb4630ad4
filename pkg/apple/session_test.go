package apple

import (
	"errors"
	"testing"
	"time"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	s := NewInMemorySessionStore()
	defer s.Cleanup()

	result := &AuthResult{Provider: "apple", UID: "U1"}
	session, err := s.Create(result, time.Hour)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected non-empty session id")
	}

	got, err := s.Get(session.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Result.UID != "U1" {
		t.Errorf("expected uid U1, got %q", got.Result.UID)
	}
}

func TestSessionStore_Expired(t *testing.T) {
	s := NewInMemorySessionStore()
	defer s.Cleanup()

	session, err := s.Create(&AuthResult{UID: "U1"}, -time.Second)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := s.Get(session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	s := NewInMemorySessionStore()
	defer s.Cleanup()

	session, _ := s.Create(&AuthResult{UID: "U1"}, time.Hour)
	if err := s.Delete(session.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := s.Get(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
