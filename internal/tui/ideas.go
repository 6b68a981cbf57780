package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/strrl/idea-vault/pkg/models"
)

const (
	loadFailed = "No se pudieron cargar las ideas. Inténtalo de nuevo más tarde."
	saveFailed = "No se pudo guardar la idea. Inténtalo de nuevo."
	emptyList  = "Aún no has guardado ninguna idea. ¡Empieza a crear!"
)

// Lines taken by everything except the list viewport
const ideasChromeHeight = 17

// ideasModel is the signed-in screen: compose box on top, saved ideas below.
// One instance belongs to one account.
type ideasModel struct {
	ctx         context.Context
	backend     Backend
	session     models.Session
	ideas       []models.Idea
	compose     textarea.Model
	list        viewport.Model
	listLoader  *LoadingIndicator
	saveLoader  *LoadingIndicator
	loadingList bool
	submitting  bool
	signingOut  bool
	errMsg      string
	loc         *time.Location
	width       int
	height      int
	styles      styles
}

func newIdeasModel(ctx context.Context, backend Backend, session models.Session, width, height int) *ideasModel {
	compose := textarea.New()
	compose.Placeholder = "Ej: Una app para conectar a dueños de mascotas..."
	compose.ShowLineNumbers = false
	compose.CharLimit = 0
	compose.SetHeight(4)
	compose.Focus()

	m := &ideasModel{
		ctx:         ctx,
		backend:     backend,
		session:     session,
		compose:     compose,
		list:        viewport.New(0, 0),
		listLoader:  NewLoadingIndicator("Cargando ideas..."),
		saveLoader:  NewLoadingIndicator("Guardando..."),
		loadingList: true,
		loc:         time.Local,
		styles:      newStyles(),
	}
	m.resize(width, height)
	return m
}

// Init starts the first load
func (m *ideasModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), textarea.Blink)
}

// reload refetches on demand, unless a load is already in flight
func (m *ideasModel) reload() tea.Cmd {
	if m.loadingList {
		return nil
	}
	m.listLoader.SetMessage("Recargando ideas...")
	return m.fetch()
}

func (m *ideasModel) fetch() tea.Cmd {
	m.loadingList = true
	m.errMsg = ""
	m.refreshList()
	return tea.Batch(
		loadIdeasCmd(m.ctx, m.backend, m.session.UserID),
		m.listLoader.Tick(),
	)
}

func (m *ideasModel) resize(width, height int) {
	m.width = width
	m.height = height
	if width > 4 {
		m.compose.SetWidth(width - 4)
	}
	m.list.Width = width
	m.list.Height = max(height-ideasChromeHeight, 3)
	m.refreshList()
}

// canSubmit mirrors the disabled state of the save button
func (m *ideasModel) canSubmit() bool {
	return !m.submitting && strings.TrimSpace(m.compose.Value()) != ""
}

func (m *ideasModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil

	case IdeasLoadedMsg:
		if msg.UserID != m.session.UserID {
			return nil
		}
		m.loadingList = false
		if msg.Error != nil {
			log.Error().Err(msg.Error).Msg("Failed to load ideas")
			m.errMsg = loadFailed
			m.ideas = nil
		} else {
			m.ideas = msg.Ideas
		}
		m.refreshList()
		return nil

	case IdeaSavedMsg:
		if msg.UserID != m.session.UserID {
			return nil
		}
		m.submitting = false
		if msg.Error != nil {
			log.Error().Err(msg.Error).Msg("Failed to save idea")
			m.errMsg = saveFailed
			return nil
		}
		m.ideas = append([]models.Idea{msg.Idea}, m.ideas...)
		m.compose.SetValue("")
		m.refreshList()
		m.list.GotoTop()
		return nil

	case SignedOutMsg:
		m.signingOut = false
		if msg.Error != nil {
			log.Warn().Err(msg.Error).Msg("Sign out reported an error")
		}
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			return m.submit()
		case "ctrl+r":
			return m.reload()
		case "ctrl+o":
			if m.signingOut {
				return nil
			}
			m.signingOut = true
			return signOutCmd(m.ctx, m.backend)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return cmd
		}
		var cmd tea.Cmd
		m.compose, cmd = m.compose.Update(msg)
		return cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}

	var cmds []tea.Cmd
	if m.loadingList {
		cmds = append(cmds, m.listLoader.Update(msg))
		m.refreshList()
	}
	if m.submitting {
		cmds = append(cmds, m.saveLoader.Update(msg))
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (m *ideasModel) submit() tea.Cmd {
	if !m.canSubmit() {
		return nil
	}
	m.submitting = true
	m.errMsg = ""
	idea := models.NewIdea{
		Content: m.compose.Value(),
		UserID:  m.session.UserID,
	}
	return tea.Batch(
		insertIdeaCmd(m.ctx, m.backend, idea),
		m.saveLoader.Tick(),
	)
}

func (m *ideasModel) refreshList() {
	m.list.SetContent(m.renderIdeas())
}

func (m *ideasModel) renderIdeas() string {
	if m.loadingList {
		return "\n  " + m.listLoader.View()
	}
	if len(m.ideas) == 0 {
		return "\n  " + m.styles.empty.Render(emptyList)
	}

	cardWidth := m.width - 2
	textWidth := cardWidth - 4
	var s strings.Builder
	for i, idea := range m.ideas {
		body := m.styles.ideaContent.Render(wrapText(idea.Content, textWidth)) + "\n" +
			m.styles.ideaDate.Render(FormatDate(idea.CreatedAt, m.loc))
		card := m.styles.ideaCard
		if cardWidth > 0 {
			card = card.Width(cardWidth)
		}
		s.WriteString(card.Render(body))
		if i < len(m.ideas)-1 {
			s.WriteString("\n")
		}
	}
	return s.String()
}

func (m *ideasModel) View() string {
	var s strings.Builder

	signOut := "Cerrar sesión (ctrl+o)"
	if m.signingOut {
		signOut = "Cerrando sesión..."
	}
	s.WriteString(m.styles.header.Render("Bóveda de Ideas") + "  " + m.styles.link.Render(signOut) + "\n")
	s.WriteString(m.styles.subtitle.Render("Hola, "+m.session.Email) + "\n\n")

	s.WriteString(m.styles.label.Render("¿Cuál es tu nueva idea?") + "\n")
	s.WriteString(m.compose.View() + "\n")
	switch {
	case m.submitting:
		s.WriteString(m.styles.buttonOff.Render(m.saveLoader.View()))
	case m.canSubmit():
		s.WriteString(m.styles.button.Render("Guardar Idea"))
	default:
		s.WriteString(m.styles.buttonOff.Render("Guardar Idea"))
	}
	s.WriteString("\n")
	if m.errMsg != "" {
		s.WriteString(m.styles.errorText.Render(m.errMsg))
	}
	s.WriteString("\n")

	s.WriteString(m.styles.section.Render("Tus Ideas Guardadas") + "\n")
	s.WriteString(m.list.View() + "\n")

	s.WriteString(m.styles.help.Render("ctrl+s: guardar idea • ctrl+r: recargar • pgup/pgdown: desplazar • ctrl+c: salir"))
	return s.String()
}
