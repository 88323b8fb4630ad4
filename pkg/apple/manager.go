package apple

import (
	"context"
	"fmt"
	"time"

	"applesso/pkg/logger"
)

// UserStore persists authenticated users. Implementations must keep
// repeat logins from blanking out profile fields Apple only sends once.
type UserStore interface {
	Upsert(ctx context.Context, result *AuthResult) error
}

// Manager ties the strategy to its state, session and user stores and
// drives the full request/callback flow for the HTTP layer.
type Manager struct {
	strategy       *Strategy
	states         StateStore
	sessions       SessionStore
	users          UserStore
	log            logger.Logger
	stateTimeout   time.Duration
	sessionTimeout time.Duration
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithUserStore enables user persistence on successful callbacks.
func WithUserStore(users UserStore) ManagerOption {
	return func(m *Manager) { m.users = users }
}

// WithStateStore replaces the default in-memory state store.
func WithStateStore(states StateStore) ManagerOption {
	return func(m *Manager) { m.states = states }
}

func NewManager(strategy *Strategy, log logger.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		strategy:       strategy,
		states:         NewInMemoryStateStore(),
		sessions:       NewInMemorySessionStore(),
		log:            log,
		stateTimeout:   10 * time.Minute,
		sessionTimeout: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AuthURL generates a fresh anti-forgery state, stores it, and returns
// the Apple authorization URL to redirect the user-agent to.
func (m *Manager) AuthURL(ctx context.Context, opts RequestOptions) (string, error) {
	state, err := GenerateRandomString(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	if err := m.states.Save(ctx, state, m.stateTimeout); err != nil {
		return "", fmt.Errorf("failed to save state: %w", err)
	}

	return m.strategy.AuthorizeURL(state, opts), nil
}

// HandleCallback validates and consumes the state, runs the strategy's
// callback phase, assembles the auth result and opens a session. The
// per-request callback state is cleaned up on every path, error paths
// included.
func (m *Manager) HandleCallback(ctx context.Context, p CallbackParams, opts RequestOptions) (string, *AuthResult, error) {
	if p.State == "" {
		return "", nil, &AuthError{
			Kind:        KindStateMismatch,
			Code:        "invalid_state",
			Description: "callback carried no state parameter",
		}
	}
	if err := m.states.Consume(ctx, p.State); err != nil {
		return "", nil, &AuthError{
			Kind:        KindStateMismatch,
			Code:        "invalid_state",
			Description: err.Error(),
		}
	}

	st, aerr := m.strategy.HandleCallback(ctx, p, opts)
	defer st.Cleanup()
	if aerr != nil {
		m.log.Warn("apple callback failed",
			logger.Field{Key: "kind", Value: string(aerr.Kind)},
			logger.Field{Key: "code", Value: aerr.Code},
		)
		return "", nil, aerr
	}

	result := m.strategy.Result(st)

	if m.users != nil {
		// Persistence failures must not lose the login
		if err := m.users.Upsert(ctx, result); err != nil {
			m.log.Error("failed to persist user", logger.Err(err),
				logger.Field{Key: "uid", Value: result.UID})
		}
	}

	session, err := m.sessions.Create(result, m.sessionTimeout)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.log.Info("apple sign-in completed",
		logger.Field{Key: "uid", Value: result.UID},
	)

	return session.ID, result, nil
}

// GetSession retrieves a session by ID
func (m *Manager) GetSession(sessionID string) (*Session, error) {
	return m.sessions.Get(sessionID)
}

// DeleteSession deletes a session (logout)
func (m *Manager) DeleteSession(sessionID string) error {
	return m.sessions.Delete(sessionID)
}

// Cleanup stops the background eviction of the underlying stores.
func (m *Manager) Cleanup() {
	m.states.Cleanup()
	m.sessions.Cleanup()
}
