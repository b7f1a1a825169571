package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maltier/internal/challenge"
	"github.com/desertthunder/maltier/internal/models"
	"github.com/desertthunder/maltier/internal/services"
	"github.com/desertthunder/maltier/internal/shared"
	"github.com/desertthunder/maltier/internal/store"
	"golang.org/x/sync/singleflight"
)

// Manager owns the session state machine. It is constructed explicitly and
// passed to whichever layer handles requests; there is no ambient instance.
type Manager struct {
	challenges *challenge.Store
	store      *store.Store
	oauth      services.TokenExchanger
	logger     *log.Logger

	refreshes singleflight.Group

	now          func() time.Time
	newSessionID func() string
}

// ManagerOpts contains dependencies for creating a Manager.
type ManagerOpts struct {
	Challenges *challenge.Store
	Store      *store.Store
	OAuth      services.TokenExchanger
	Logger     *log.Logger
}

// NewManager creates a session manager with the provided dependencies.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		challenges:   opts.Challenges,
		store:        opts.Store,
		oauth:        opts.OAuth,
		logger:       opts.Logger,
		now:          time.Now,
		newSessionID: shared.GenerateSessionID,
	}
}

// BeginAuthorization registers the client-supplied code verifier under a fresh
// state token and returns the state for callback correlation.
func (m *Manager) BeginAuthorization(verifier string) (string, error) {
	state := shared.GenerateID()
	if err := m.challenges.Register(state, verifier); err != nil {
		return "", err
	}

	m.logger.Debug("registered authorization challenge", "state", state)
	return state, nil
}

// CompleteAuthorization resolves a provider callback into a persisted session.
//
// The challenge is consumed first, so a replayed or forged state fails before
// any provider traffic. A session id collision surfaces from the store as a
// fatal error rather than an overwrite.
func (m *Manager) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	verifier, err := m.challenges.Consume(state)
	if err != nil {
		return "", err
	}

	token, err := m.oauth.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return "", err
	}

	var userName string
	if identity, err := m.oauth.Identity(ctx, token.AccessToken); err != nil {
		m.logger.Warn("failed to fetch user identity", "err", err)
	} else {
		userName = identity.Name
	}

	sess := &models.Session{
		ID:           m.newSessionID(),
		UserName:     userName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    m.now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}

	if err := m.store.Create(sess); err != nil {
		return "", err
	}

	m.logger.Info("session authorized", "session", sess.ID, "user", userName)
	return sess.ID, nil
}

// Logout removes the session and persists the store. Removing an unknown id
// returns [shared.ErrSessionNotFound].
func (m *Manager) Logout(sessionID string) error {
	if err := m.store.Delete(sessionID); err != nil {
		return err
	}

	m.logger.Info("session removed", "session", sessionID)
	return nil
}

// ResolveAccessToken returns a usable access token for the session,
// refreshing it first when expired.
//
// Expiry is compared against one clock read; a token valid until exactly now
// is refreshed. Concurrent resolves for the same expired session share a
// single in-flight refresh.
func (m *Manager) ResolveAccessToken(ctx context.Context, sessionID string) (string, error) {
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return "", err
	}

	if !sess.Expired(m.now()) {
		return sess.AccessToken, nil
	}

	token, err, _ := m.refreshes.Do(sessionID, func() (any, error) {
		return m.refresh(ctx, sessionID)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

// refresh redeems the session's refresh token and overwrites its token
// material. On failure the session is left as-is for the caller to judge.
func (m *Manager) refresh(ctx context.Context, sessionID string) (string, error) {
	// Re-read inside the flight: a piggybacked caller may arrive after a
	// sibling refresh already landed.
	sess, err := m.store.Get(sessionID)
	if err != nil {
		return "", err
	}
	if !sess.Expired(m.now()) {
		return sess.AccessToken, nil
	}

	token, err := m.oauth.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	expiresAt := m.now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if err := m.store.UpdateTokens(sessionID, token.AccessToken, token.RefreshToken, expiresAt); err != nil {
		return "", err
	}

	m.logger.Info("session token refreshed", "session", sessionID)
	return token.AccessToken, nil
}

// Sessions returns snapshots of every stored session, ordered by id.
func (m *Manager) Sessions() []*models.Session {
	return m.store.List()
}
