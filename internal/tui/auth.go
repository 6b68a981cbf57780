package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-playground/validator/v10"
	"github.com/strrl/idea-vault/internal/remote"
)

type authMode int

const (
	modeSignIn authMode = iota
	modeSignUp
)

const signUpSucceeded = "¡Registro exitoso! Por favor, revisa tu correo para verificar tu cuenta."

const (
	focusEmail = iota
	focusPassword
	focusCount
)

var validate = validator.New()

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// check returns the first problem with c as a message for the user, or ""
func (c credentials) check() string {
	err := validate.Struct(c)
	if err == nil {
		return ""
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return formatFieldError(fieldErrs[0])
	}
	return err.Error()
}

func formatFieldError(e validator.FieldError) string {
	switch e.Field() {
	case "Email":
		if e.Tag() == "required" {
			return "Introduce tu correo electrónico."
		}
		return "Introduce una dirección de correo electrónico válida."
	case "Password":
		return "Introduce tu contraseña."
	default:
		return "Revisa los datos del formulario."
	}
}

// authModel is the sign-in / sign-up form
type authModel struct {
	ctx      context.Context
	backend  Backend
	email    textinput.Model
	password textinput.Model
	focus    int
	mode     authMode
	loading  bool
	spinner  *LoadingIndicator
	errMsg   string
	infoMsg  string
	width    int
	styles   styles
}

func newAuthModel(ctx context.Context, backend Backend) authModel {
	email := textinput.New()
	email.Placeholder = "Correo electrónico"
	email.Prompt = "  "
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Contraseña"
	password.Prompt = "  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 40

	return authModel{
		ctx:      ctx,
		backend:  backend,
		email:    email,
		password: password,
		focus:    focusEmail,
		mode:     modeSignIn,
		spinner:  NewLoadingIndicator(""),
		styles:   newStyles(),
	}
}

func (m authModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authModel) Update(msg tea.Msg) (authModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case AuthResultMsg:
		m.loading = false
		if msg.Error != nil {
			m.errMsg = remote.AuthErrorMessage(msg.Error)
			return m, nil
		}
		if msg.Mode == modeSignUp {
			m.infoMsg = signUpSucceeded
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+t":
			if m.loading {
				return m, nil
			}
			if m.mode == modeSignIn {
				m.mode = modeSignUp
			} else {
				m.mode = modeSignIn
			}
			m.errMsg = ""
			m.infoMsg = ""
			return m, nil
		case "tab", "down":
			cmd := m.setFocus((m.focus + 1) % focusCount)
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus((m.focus + focusCount - 1) % focusCount)
			return m, cmd
		}
	}

	if m.loading {
		return m, m.spinner.Update(msg)
	}

	var cmd tea.Cmd
	if m.focus == focusEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *authModel) setFocus(focus int) tea.Cmd {
	m.focus = focus
	if focus == focusEmail {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

func (m authModel) submit() (authModel, tea.Cmd) {
	if m.loading {
		return m, nil
	}

	m.errMsg = ""
	m.infoMsg = ""

	creds := credentials{
		Email:    strings.TrimSpace(m.email.Value()),
		Password: m.password.Value(),
	}
	if problem := creds.check(); problem != "" {
		m.errMsg = problem
		return m, nil
	}

	m.loading = true
	return m, tea.Batch(
		authCmd(m.ctx, m.backend, m.mode, creds.Email, creds.Password),
		m.spinner.Tick(),
	)
}

func (m authModel) View() string {
	var b strings.Builder

	title, button, prompt, link := "Iniciar sesión", "Iniciar sesión", "¿No tienes una cuenta?", "Regístrate"
	if m.mode == modeSignUp {
		title, button, prompt, link = "Crear una cuenta", "Registrarse", "¿Ya tienes una cuenta?", "Inicia sesión"
	}

	b.WriteString(m.styles.title.Render(title) + "\n")
	b.WriteString(m.styles.subtitle.Render(prompt) + " " + m.styles.link.Render(link+" (ctrl+t)") + "\n\n")
	b.WriteString(m.styles.label.Render("Correo electrónico") + "\n")
	b.WriteString(m.email.View() + "\n\n")
	b.WriteString(m.styles.label.Render("Contraseña") + "\n")
	b.WriteString(m.password.View() + "\n\n")

	if m.loading {
		b.WriteString(m.styles.buttonOff.Render(m.spinner.View()))
	} else {
		b.WriteString(m.styles.button.Render(button))
	}

	if m.errMsg != "" {
		b.WriteString("\n\n" + m.styles.errorText.Render(m.errMsg))
	}
	if m.infoMsg != "" {
		b.WriteString("\n\n" + m.styles.infoText.Render(m.infoMsg))
	}

	form := m.styles.form.Render(b.String())
	help := m.styles.help.Render("tab: cambiar campo • enter: enviar • ctrl+t: cambiar modo • ctrl+c: salir")

	if m.width > 0 {
		form = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, form)
		help = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, help)
	}
	return form + "\n" + help
}
