package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/strrl/idea-vault/internal/remote"
	"github.com/strrl/idea-vault/pkg/models"
)

// Backend is what the screens need from the remote handle
type Backend interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	ListIdeas(ctx context.Context) ([]models.Idea, error)
	InsertIdea(ctx context.Context, idea models.NewIdea) (models.Idea, error)
	OnAuthStateChange(fn remote.Listener) *remote.Subscription
}

var _ Backend = (*remote.Client)(nil)

// Message types for async operations
type (
	// SessionResolvedMsg carries the result of the startup session lookup
	SessionResolvedMsg struct {
		Session *models.Session
		Error   error
	}

	// AuthEventMsg is a session transition reported by the remote handle
	AuthEventMsg struct {
		Event models.AuthEvent
	}

	// AuthResultMsg is the outcome of a sign-in or sign-up attempt
	AuthResultMsg struct {
		Mode  authMode
		Error error
	}

	// IdeasLoadedMsg contains the account's ideas, newest first
	IdeasLoadedMsg struct {
		UserID uuid.UUID
		Ideas  []models.Idea
		Error  error
	}

	// IdeaSavedMsg contains the row the store saved
	IdeaSavedMsg struct {
		UserID uuid.UUID
		Idea   models.Idea
		Error  error
	}

	// SignedOutMsg reports that a sign-out call returned
	SignedOutMsg struct {
		Error error
	}
)

// Commands for async operations

func getSessionCmd(ctx context.Context, backend Backend) tea.Cmd {
	return func() tea.Msg {
		session, err := backend.GetSession(ctx)
		return SessionResolvedMsg{Session: session, Error: err}
	}
}

func authCmd(ctx context.Context, backend Backend, mode authMode, email, password string) tea.Cmd {
	return func() tea.Msg {
		var err error
		if mode == modeSignUp {
			err = backend.SignUp(ctx, email, password)
		} else {
			err = backend.SignIn(ctx, email, password)
		}
		return AuthResultMsg{Mode: mode, Error: err}
	}
}

func loadIdeasCmd(ctx context.Context, backend Backend, userID uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		ideas, err := backend.ListIdeas(ctx)
		return IdeasLoadedMsg{UserID: userID, Ideas: ideas, Error: err}
	}
}

func insertIdeaCmd(ctx context.Context, backend Backend, idea models.NewIdea) tea.Cmd {
	return func() tea.Msg {
		saved, err := backend.InsertIdea(ctx, idea)
		return IdeaSavedMsg{UserID: idea.UserID, Idea: saved, Error: err}
	}
}

func signOutCmd(ctx context.Context, backend Backend) tea.Cmd {
	return func() tea.Msg {
		return SignedOutMsg{Error: backend.SignOut(ctx)}
	}
}

// authBridge moves auth events from the remote handle's goroutines into
// the tea event loop
type authBridge struct {
	events chan models.AuthEvent
	done   chan struct{}
	once   sync.Once
	sub    *remote.Subscription
}

func newAuthBridge(backend Backend) *authBridge {
	b := &authBridge{
		events: make(chan models.AuthEvent, 8),
		done:   make(chan struct{}),
	}
	b.sub = backend.OnAuthStateChange(b.deliver)
	return b
}

func (b *authBridge) deliver(event models.AuthEvent) {
	select {
	case b.events <- event:
	case <-b.done:
		log.Debug().Str("event", string(event.Kind)).Msg("Dropping auth event after shutdown")
	}
}

// wait blocks until the next event; the returned command must be re-issued
// after every AuthEventMsg
func (b *authBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-b.events:
			return AuthEventMsg{Event: event}
		case <-b.done:
			return nil
		}
	}
}

// Close releases the subscription. Safe to call more than once.
func (b *authBridge) Close() {
	b.once.Do(func() {
		b.sub.Unsubscribe()
		close(b.done)
	})
}
