package config

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskmaster/internal/keys"
	"github.com/nhle/taskmaster/internal/mailer"
	"github.com/nhle/taskmaster/internal/model"
	"github.com/nhle/taskmaster/internal/store"
	"github.com/nhle/taskmaster/internal/theme"
)

// testTimeout bounds a test send.
const testTimeout = 30 * time.Second

// ConfigMode represents the current state of the settings view.
type ConfigMode int

const (
	ModeView       ConfigMode = iota // Show current settings
	ModeForm                         // Editing settings
	ModeTesting                      // Test send in flight
	ModeTestResult                   // Show test result
)

// ConfigDoneMsg signals the settings view should close.
type ConfigDoneMsg struct{}

// SettingsSavedMsg signals the email settings were persisted.
type SettingsSavedMsg struct {
	Settings model.EmailSettings
}

// TestResultMsg carries the outcome of a test send.
type TestResultMsg struct {
	Outcome mailer.Outcome
	Err     error
}

// settingsLoadedMsg is sent when settings have been read from the store.
type settingsLoadedMsg struct {
	settings model.EmailSettings
	err      error
}

// settingsSavedInternalMsg is sent after settings are persisted.
type settingsSavedInternalMsg struct {
	settings model.EmailSettings
	err      error
}

// PasswordSetter stores the relay password for a user.
type PasswordSetter func(user, password string) error

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	service  string
	template string
	user     string
	password string
	from     string
	to       string
}

// Model is the Bubble Tea model for the email settings UI.
type Model struct {
	mode        ConfigMode
	store       store.Store
	sender      mailer.Sender
	composer    mailer.Composer
	setPassword PasswordSetter
	settings    model.EmailSettings

	form *huh.Form
	fb   *formBindings

	spinner    spinner.Model
	testResult TestResultMsg

	// Status message for transient feedback
	statusMsg string

	keys          *keys.KeyMap
	width, height int
}

// New creates a new settings view model.
func New(s store.Store, sender mailer.Sender, composer mailer.Composer, setPassword PasswordSetter, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:        ModeView,
		store:       s,
		sender:      sender,
		composer:    composer,
		setPassword: setPassword,
		fb:          &formBindings{},
		spinner:     sp,
		keys:        k,
		width:       width,
		height:      height,
	}
}

// Init loads settings from the store on first render.
func (m Model) Init() tea.Cmd {
	m.mode = ModeView
	return m.loadSettings()
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading settings: %v", msg.err)
			return m, nil
		}
		m.settings = msg.settings
		return m, nil

	case settingsSavedInternalMsg:
		m.mode = ModeView
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.settings = msg.settings
		m.statusMsg = "Email settings saved."
		saved := msg.settings
		return m, func() tea.Msg { return SettingsSavedMsg{Settings: saved} }

	case TestResultMsg:
		m.mode = ModeTestResult
		m.testResult = msg
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeTesting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

// handleKeyMsg processes key messages based on the current mode.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeView:
		return m.handleViewKeys(msg)
	case ModeForm:
		return m.updateForm(msg)
	case ModeTestResult:
		if msg.String() == "enter" || msg.String() == "esc" {
			m.mode = ModeView
		}
		return m, nil
	case ModeTesting:
		return m, nil
	}
	return m, nil
}

// handleViewKeys processes key events while showing the settings.
func (m Model) handleViewKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return ConfigDoneMsg{} }

	case key.Matches(msg, m.keys.Edit):
		m.loadBindings()
		m.form = m.buildForm()
		m.mode = ModeForm
		m.statusMsg = ""
		return m, m.form.Init()

	case msg.String() == "t":
		m.mode = ModeTesting
		m.statusMsg = ""
		return m, tea.Batch(m.spinner.Tick, m.testSend())
	}
	return m, nil
}

func (m *Model) loadBindings() {
	*m.fb = formBindings{
		service:  m.settings.ServiceID,
		template: m.settings.TemplateID,
		user:     m.settings.UserID,
		from:     m.settings.From,
		to:       m.settings.To,
	}
	if m.fb.template == "" {
		m.fb.template = mailer.TemplateNames()[0]
	}
}

func (m *Model) buildForm() *huh.Form {
	var opts []huh.Option[string]
	for _, name := range mailer.TemplateNames() {
		opts = append(opts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP Server").
				Description("Relay address as host:port").
				Placeholder("smtp.example.com:587").
				Value(&m.fb.service).
				Validate(validateOptionalHostPort),
			huh.NewSelect[string]().
				Title("Template").
				Options(opts...).
				Value(&m.fb.template),
			huh.NewInput().
				Title("Username").
				Description("Account the relay authenticates as").
				Placeholder("user@example.com").
				Value(&m.fb.user),
			huh.NewInput().
				Title("Password").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("From").
				Placeholder("optional").
				Value(&m.fb.from),
			huh.NewInput().
				Title("Default recipient").
				Placeholder("you@example.com").
				Value(&m.fb.to),
		),
	).WithWidth(m.formWidth())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.saveSettings()
	}
	if m.form.State == huh.StateAborted {
		m.mode = ModeView
		return m, nil
	}

	return m, cmd
}

// --- View ---

// View renders the settings UI based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeForm:
		if m.form == nil {
			return ""
		}
		return style.Render(m.form.View())
	case ModeTesting:
		return style.Render(fmt.Sprintf("%s Sending test email...", m.spinner.View()))
	case ModeTestResult:
		return style.Render(m.viewTestResult())
	default:
		return style.Render(m.viewSettings())
	}
}

func (m Model) viewSettings() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	b.WriteString(titleStyle.Render("Email Reminders"))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			value = lipgloss.NewStyle().Foreground(theme.ColorGray).Render("(not set)")
		}
		fmt.Fprintf(&b, "%-18s %s\n", label, value)
	}
	row("SMTP server", m.settings.ServiceID)
	row("Template", m.settings.TemplateID)
	row("Username", m.settings.UserID)
	row("From", m.settings.From)
	row("Default recipient", m.settings.To)

	b.WriteString("\n")
	if m.settings.Configured() {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGreen).
			Render("Email relay configured."))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).
			Render("Email relay not configured. A mail draft will be opened instead."))
	}

	if m.statusMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).
			Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).
		Render("e edit | t send test | esc back"))
	return b.String()
}

func (m Model) viewTestResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray).Render("enter/esc back")
	switch m.testResult.Outcome {
	case mailer.Sent:
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).
			Render("Test email sent.") + "\n\n" + hint
	case mailer.Drafted:
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorYellow).
			Render("Opened a mail draft instead.") + "\n\n" + hint
	default:
		msg := "Test email failed"
		if m.testResult.Err != nil {
			msg += "\n\n" + m.testResult.Err.Error()
		}
		return lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed).
			Render(msg) + "\n\n" + hint
	}
}

// --- Helpers ---

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// loadSettings returns a command that reads the settings from the store.
func (m Model) loadSettings() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		settings, err := store.LoadEmailSettings(context.Background(), s)
		return settingsLoadedMsg{settings: settings, err: err}
	}
}

// saveSettings returns a command that persists the form values and, when
// one was entered, the password.
func (m Model) saveSettings() tea.Cmd {
	s := m.store
	setPassword := m.setPassword
	fb := *m.fb
	settings := model.EmailSettings{
		ServiceID:  strings.TrimSpace(fb.service),
		TemplateID: fb.template,
		UserID:     strings.TrimSpace(fb.user),
		From:       strings.TrimSpace(fb.from),
		To:         strings.TrimSpace(fb.to),
	}
	return func() tea.Msg {
		if fb.password != "" && setPassword != nil {
			if err := setPassword(settings.UserID, fb.password); err != nil {
				return settingsSavedInternalMsg{err: fmt.Errorf("saving password: %w", err)}
			}
		}
		err := store.SaveEmailSettings(context.Background(), s, settings)
		return settingsSavedInternalMsg{settings: settings, err: err}
	}
}

// testSend returns a command that sends the test message.
func (m Model) testSend() tea.Cmd {
	sender, composer, settings := m.sender, m.composer, m.settings
	return func() tea.Msg {
		outcome, err := mailer.Deliver(context.Background(), sender, composer,
			settings, mailer.TestMessage(settings), testTimeout)
		return TestResultMsg{Outcome: outcome, Err: err}
	}
}

func validateOptionalHostPort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(s); err != nil {
		return fmt.Errorf("use host:port, e.g. smtp.example.com:587")
	}
	return nil
}
