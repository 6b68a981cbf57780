// Package remote is the single access point to the backend: auth
// operations, the ideas table, and the session-change subscription.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/strrl/idea-vault/internal/config"
	"github.com/strrl/idea-vault/pkg/models"
)

// Tokens this close to expiry are refreshed before use
const expiryMargin = 10 * time.Second

// Client is the process-wide remote handle. It is safe for concurrent use.
type Client struct {
	auth  AuthAPI
	ideas IdeasAPI
	store *SessionStore
	bus   *broadcaster
	now   func() time.Time

	mu      sync.Mutex
	session *models.Session
	loaded  bool
	watcher *sessionWatcher
}

// Option customises a Client
type Option func(*Client)

// WithClock replaces time.Now for expiry checks
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New builds a Client backed by the configured Supabase project
func New(cfg config.Config, opts ...Option) (*Client, error) {
	backend, err := newSupabaseBackend(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	if err != nil {
		return nil, err
	}
	return NewClient(backend, backend, NewSessionStore(cfg.SessionFile), opts...), nil
}

// NewClient wires a Client from its parts
func NewClient(auth AuthAPI, ideas IdeasAPI, store *SessionStore, opts ...Option) *Client {
	c := &Client{
		auth:  auth,
		ideas: ideas,
		store: store,
		bus:   newBroadcaster(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WatchSessionFile turns changes to the session file made by other
// processes into auth events
func (c *Client) WatchSessionFile() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		return nil
	}
	w, err := newSessionWatcher(c.store.Path(), c.syncFromStore)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		_ = w.Stop()
		return err
	}
	c.watcher = w
	log.Info().Str("path", c.store.Path()).Msg("Session file watcher started")
	return nil
}

// Close stops the watcher and drops every listener
func (c *Client) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	c.bus.removeAll()
	if w != nil {
		return w.Stop()
	}
	return nil
}

// OnAuthStateChange registers fn for every later session transition
func (c *Client) OnAuthStateChange(fn Listener) *Subscription {
	return c.bus.add(fn)
}

// GetSession returns the current session, or nil when signed out. An
// expired session is refreshed first; if that fails the session is dropped.
func (c *Client) GetSession(ctx context.Context) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.loaded {
		stored, err := c.store.Load(ctx)
		if err != nil {
			log.Warn().Err(err).Str("path", c.store.Path()).Msg("Ignoring unreadable session file")
			stored = nil
		}
		c.session = stored
		c.loaded = true
	}
	current := copySession(c.session)
	c.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if !current.Expired(c.now().Add(expiryMargin)) {
		return current, nil
	}
	return c.refresh(ctx, *current)
}

func (c *Client) refresh(ctx context.Context, expired models.Session) (*models.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Debug().Str("userId", expired.UserID.String()).Msg("Refreshing expired session")
	refreshed, err := c.auth.Refresh(expired.RefreshToken)
	if err != nil || refreshed == nil {
		log.Warn().Err(err).Msg("Session refresh failed, signing out locally")
		c.clearSession(ctx)
		return nil, nil
	}

	c.storeSession(ctx, *refreshed, models.AuthTokenRefreshed)
	return copySession(refreshed), nil
}

// SignUp registers an account. The returned error carries the backend's
// message. When the project requires email verification no session is
// created.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session, err := c.auth.SignUp(email, password)
	if err != nil {
		log.Info().Msg("Sign-up rejected")
		return err
	}
	if session == nil {
		log.Info().Msg("Sign-up accepted, email verification pending")
		return nil
	}

	c.storeSession(ctx, *session, models.AuthSignedIn)
	return nil
}

// SignIn authenticates with email and password
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session, err := c.auth.SignIn(email, password)
	if err != nil {
		log.Info().Msg("Sign-in rejected")
		return err
	}
	if session == nil {
		return errors.New("sign in returned no session")
	}

	c.storeSession(ctx, *session, models.AuthSignedIn)
	return nil
}

// SignOut ends the session. The backend logout is best effort; the local
// session is always dropped.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := copySession(c.session)
	c.mu.Unlock()

	if current != nil && current.AccessToken != "" {
		if err := c.auth.SignOut(current.AccessToken); err != nil {
			log.Warn().Err(err).Msg("Backend logout failed, clearing local session anyway")
		}
	}

	return c.clearSession(ctx)
}

// ListIdeas returns the signed-in account's ideas, newest first
func (c *Client) ListIdeas(ctx context.Context) ([]models.Idea, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, models.ErrNoSession
	}

	rows, err := c.ideas.SelectIdeas(session.AccessToken)
	if err != nil {
		return nil, err
	}

	// Row-level policy is authoritative; this only guards against a
	// misconfigured policy leaking other accounts' rows.
	owned := make([]models.Idea, 0, len(rows))
	for _, row := range rows {
		if row.UserID != session.UserID {
			continue
		}
		owned = append(owned, row)
	}
	if dropped := len(rows) - len(owned); dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Backend returned ideas owned by another account")
	}
	return owned, nil
}

// InsertIdea stores one idea and returns the row as the store saved it
func (c *Client) InsertIdea(ctx context.Context, idea models.NewIdea) (models.Idea, error) {
	if strings.TrimSpace(idea.Content) == "" {
		return models.Idea{}, models.ErrEmptyContent
	}

	session, err := c.GetSession(ctx)
	if err != nil {
		return models.Idea{}, err
	}
	if session == nil {
		return models.Idea{}, models.ErrNoSession
	}

	rows, err := c.ideas.InsertIdea(session.AccessToken, idea)
	if err != nil {
		return models.Idea{}, err
	}
	if len(rows) == 0 {
		return models.Idea{}, models.ErrNoRowReturned
	}
	log.Debug().Int64("ideaId", rows[0].ID).Msg("Idea stored")
	return rows[0], nil
}

func (c *Client) storeSession(ctx context.Context, session models.Session, kind models.AuthEventKind) {
	if err := c.store.Save(ctx, session); err != nil {
		log.Warn().Err(err).Msg("Failed to persist session, keeping it in memory only")
	}

	c.mu.Lock()
	c.session = copySession(&session)
	c.loaded = true
	c.mu.Unlock()

	log.Info().Str("event", string(kind)).Str("userId", session.UserID.String()).Msg("Session updated")
	c.bus.publish(models.AuthEvent{Kind: kind, Session: &session})
}

func (c *Client) clearSession(ctx context.Context) error {
	c.mu.Lock()
	hadSession := c.session != nil
	c.session = nil
	c.loaded = true
	c.mu.Unlock()

	var err error
	if clearErr := c.store.Clear(ctx); clearErr != nil {
		err = fmt.Errorf("clear session: %w", clearErr)
	}

	if hadSession {
		log.Info().Str("event", string(models.AuthSignedOut)).Msg("Session cleared")
		c.bus.publish(models.AuthEvent{Kind: models.AuthSignedOut})
	}
	return err
}

// syncFromStore reconciles memory with the session file after an external
// change. Writes made by this client match memory and are ignored.
func (c *Client) syncFromStore() {
	stored, err := c.store.Load(context.Background())
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable session file change")
		return
	}

	c.mu.Lock()
	prev := c.session
	var kind models.AuthEventKind
	switch {
	case stored == nil && prev == nil:
	case stored == nil:
		kind = models.AuthSignedOut
	case prev == nil:
		kind = models.AuthSignedIn
	case prev.AccessToken == stored.AccessToken:
	case prev.UserID == stored.UserID:
		kind = models.AuthTokenRefreshed
	default:
		kind = models.AuthSignedIn
	}
	if kind != "" {
		c.session = stored
		c.loaded = true
	}
	c.mu.Unlock()

	if kind == "" {
		return
	}
	log.Info().Str("event", string(kind)).Msg("Session changed by another process")
	c.bus.publish(models.AuthEvent{Kind: kind, Session: copySession(stored)})
}

func copySession(s *models.Session) *models.Session {
	if s == nil {
		return nil
	}
	dup := *s
	return &dup
}
