package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/idea-vault/internal/remote"
	"github.com/strrl/idea-vault/internal/remote/remotetest"
	"github.com/strrl/idea-vault/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoot(t *testing.T, client *remote.Client) (model, *authBridge) {
	t.Helper()
	bridge := newAuthBridge(client)
	t.Cleanup(bridge.Close)
	m := initialModel(context.Background(), client, bridge)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	return m, bridge
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	updated, ok := next.(model)
	require.True(t, ok)
	return updated
}

// nextEvent reads the event the remote handle delivered to the bridge
func nextEvent(t *testing.T, bridge *authBridge) AuthEventMsg {
	t.Helper()
	select {
	case event := <-bridge.events:
		return AuthEventMsg{Event: event}
	case <-time.After(time.Second):
		require.FailNow(t, "no auth event delivered")
		return AuthEventMsg{}
	}
}

func TestRootStartsLoading(t *testing.T) {
	m, _ := newTestRoot(t, newTestClient(t, remotetest.NewBackend()))

	assert.Equal(t, stateLoading, m.state)
	assert.NotContains(t, m.View(), "Iniciar sesión")
	assert.NotNil(t, m.Init())
}

func TestRootWithoutSessionShowsAuth(t *testing.T) {
	client := newTestClient(t, remotetest.NewBackend())
	m, _ := newTestRoot(t, client)

	resolved := find[SessionResolvedMsg](t, drain(t, getSessionCmd(context.Background(), client)))
	m = update(t, m, resolved)

	assert.Equal(t, stateUnauthenticated, m.state)
	assert.Nil(t, m.ideas)
	assert.Contains(t, m.View(), "Iniciar sesión")
}

func TestRootWithSessionShowsIdeas(t *testing.T) {
	client, _ := signedInClient(t)
	m, _ := newTestRoot(t, client)

	resolved := find[SessionResolvedMsg](t, drain(t, getSessionCmd(context.Background(), client)))
	m = update(t, m, resolved)

	assert.Equal(t, stateAuthenticated, m.state)
	require.NotNil(t, m.ideas)
	assert.Contains(t, m.View(), "Hola, ana@example.com")
}

func TestRootFollowsAuthEvents(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	backend.AddAccount("ben@example.com", "secreto456")
	client := newTestClient(t, backend)
	ctx := context.Background()

	m, bridge := newTestRoot(t, client)
	m = update(t, m, SessionResolvedMsg{})
	require.Equal(t, stateUnauthenticated, m.state)

	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))
	m = update(t, m, nextEvent(t, bridge))
	assert.Equal(t, stateAuthenticated, m.state)
	require.NotNil(t, m.ideas)
	anaScreen := m.ideas

	// Same account keeps the screen
	require.NoError(t, client.SignIn(ctx, "ana@example.com", "secreto123"))
	m = update(t, m, nextEvent(t, bridge))
	assert.Same(t, anaScreen, m.ideas)

	// Another account gets a fresh screen
	require.NoError(t, client.SignIn(ctx, "ben@example.com", "secreto456"))
	m = update(t, m, nextEvent(t, bridge))
	require.NotNil(t, m.ideas)
	assert.NotSame(t, anaScreen, m.ideas)
	assert.Contains(t, m.View(), "Hola, ben@example.com")

	require.NoError(t, client.SignOut(ctx))
	m = update(t, m, nextEvent(t, bridge))
	assert.Equal(t, stateUnauthenticated, m.state)
	assert.Nil(t, m.ideas)
	assert.Nil(t, m.session)
	assert.Contains(t, m.View(), "Iniciar sesión")
}

func TestRootIgnoresLateSessionLookup(t *testing.T) {
	client, _ := signedInClient(t)
	session, err := client.GetSession(context.Background())
	require.NoError(t, err)

	m, _ := newTestRoot(t, client)
	m = update(t, m, AuthEventMsg{Event: models.AuthEvent{Kind: models.AuthSignedIn, Session: session}})
	require.Equal(t, stateAuthenticated, m.state)

	m = update(t, m, SessionResolvedMsg{})
	assert.Equal(t, stateAuthenticated, m.state)
}

func TestRootSignInThroughForm(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client := newTestClient(t, backend)

	m, bridge := newTestRoot(t, client)
	m = update(t, m, SessionResolvedMsg{})
	m.auth.email.SetValue("ana@example.com")
	m.auth.password.SetValue("secreto123")

	next, cmd := m.Update(key(tea.KeyEnter))
	m = next.(model)
	m = update(t, m, find[AuthResultMsg](t, drain(t, cmd)))
	assert.Equal(t, stateUnauthenticated, m.state, "the form never switches screens itself")

	m = update(t, m, nextEvent(t, bridge))
	assert.Equal(t, stateAuthenticated, m.state)
}

func TestRootCtrlCQuits(t *testing.T) {
	m, _ := newTestRoot(t, newTestClient(t, remotetest.NewBackend()))

	_, cmd := m.Update(key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAuthBridgeClose(t *testing.T) {
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client := newTestClient(t, backend)

	bridge := newAuthBridge(client)
	bridge.Close()
	bridge.Close()

	assert.Nil(t, bridge.wait()())

	require.NoError(t, client.SignIn(context.Background(), "ana@example.com", "secreto123"))
	assert.Empty(t, bridge.events)
}
