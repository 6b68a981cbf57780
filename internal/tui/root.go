// Package tui is the interactive terminal client: a session-gated root that
// shows either the sign-in form or the signed-in account's ideas.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/strrl/idea-vault/pkg/models"
)

type rootState int

const (
	stateLoading rootState = iota
	stateUnauthenticated
	stateAuthenticated
)

func (s rootState) String() string {
	switch s {
	case stateLoading:
		return "loading"
	case stateUnauthenticated:
		return "unauthenticated"
	case stateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("rootState(%d)", int(s))
	}
}

type model struct {
	ctx     context.Context
	backend Backend
	bridge  *authBridge
	state   rootState
	session *models.Session
	loading *LoadingIndicator
	auth    authModel
	ideas   *ideasModel
	width   int
	height  int
}

func initialModel(ctx context.Context, backend Backend, bridge *authBridge) model {
	return model{
		ctx:     ctx,
		backend: backend,
		bridge:  bridge,
		state:   stateLoading,
		loading: NewLoadingIndicator(""),
		auth:    newAuthModel(ctx, backend),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		getSessionCmd(m.ctx, m.backend),
		m.bridge.wait(),
		m.loading.Tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		var cmd tea.Cmd
		m.auth, cmd = m.auth.Update(msg)
		if m.ideas != nil {
			m.ideas.Update(msg)
		}
		return m, cmd

	case SessionResolvedMsg:
		if m.state != stateLoading {
			// an auth event already settled the state
			return m, nil
		}
		if msg.Error != nil {
			log.Warn().Err(msg.Error).Msg("Could not read the current session")
		}
		cmd := m.applySession(msg.Session)
		return m, cmd

	case AuthEventMsg:
		log.Debug().Str("event", string(msg.Event.Kind)).Str("state", m.state.String()).Msg("Auth state changed")
		cmd := m.applySession(msg.Event.Session)
		return m, tea.Batch(cmd, m.bridge.wait())
	}

	switch m.state {
	case stateLoading:
		return m, m.loading.Update(msg)
	case stateUnauthenticated:
		var cmd tea.Cmd
		m.auth, cmd = m.auth.Update(msg)
		return m, cmd
	default:
		return m, m.ideas.Update(msg)
	}
}

// applySession moves the root to the state matching session. The idea
// screen survives only while the account stays the same.
func (m *model) applySession(session *models.Session) tea.Cmd {
	m.session = session

	if session == nil {
		m.ideas = nil
		if m.state == stateUnauthenticated {
			return nil
		}
		m.state = stateUnauthenticated
		m.auth = newAuthModel(m.ctx, m.backend)
		m.auth, _ = m.auth.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		return m.auth.Init()
	}

	m.state = stateAuthenticated
	if m.ideas != nil && m.ideas.session.UserID == session.UserID {
		m.ideas.session = *session
		return nil
	}
	m.ideas = newIdeasModel(m.ctx, m.backend, *session, m.width, m.height)
	return m.ideas.Init()
}

func (m model) View() string {
	switch m.state {
	case stateLoading:
		return LoadingOverlay(m.width, m.height, m.loading)
	case stateUnauthenticated:
		return "\n" + m.auth.View()
	default:
		return m.ideas.View()
	}
}

// Run shows the TUI until the user quits
func Run(ctx context.Context, backend Backend) error {
	bridge := newAuthBridge(backend)
	defer bridge.Close()

	p := tea.NewProgram(
		initialModel(ctx, backend, bridge),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
