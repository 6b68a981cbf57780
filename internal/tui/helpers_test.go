package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/strrl/idea-vault/internal/remote"
	"github.com/strrl/idea-vault/internal/remote/remotetest"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, backend *remotetest.Backend) *remote.Client {
	t.Helper()
	store := remote.NewSessionStore(filepath.Join(t.TempDir(), "session.toml"))
	client := remote.NewClient(backend, backend, store, remote.WithClock(func() time.Time {
		return backend.Base
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// signedInClient returns a client already signed in as ana@example.com
func signedInClient(t *testing.T) (*remote.Client, *remotetest.Backend) {
	t.Helper()
	backend := remotetest.NewBackend()
	backend.AddAccount("ana@example.com", "secreto123")
	client := newTestClient(t, backend)
	require.NoError(t, client.SignIn(context.Background(), "ana@example.com", "secreto123"))
	return client, backend
}

// drain runs cmd and every command it batches, returning the messages they
// produce. Commands that block, such as the auth event wait, are abandoned.
func drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, drain(t, c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// find returns the first message of type T
func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed
		}
	}
	var zero T
	require.Failf(t, "message not produced", "wanted %T in %v", zero, msgs)
	return zero
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}
