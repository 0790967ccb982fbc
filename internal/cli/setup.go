package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/apresai/dialogcast/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure the completion provider (writes .env)",
	RunE:  runSetup,
}

var (
	setupTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
	setupSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170")).Bold(true)
	setupDimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	setupEditStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

// setupField is one configurable value in the wizard.
type setupField struct {
	label  string
	envKey string
	value  string
	secret bool
	hint   string
}

// setupModel is the Bubble Tea model for the setup form.
type setupModel struct {
	fields  []setupField
	cursor  int
	editing bool
	saved   bool
	aborted bool
}

func newSetupModel() setupModel {
	config.LoadDotEnv(".env")
	return setupModel{
		fields: []setupField{
			{label: "API key", envKey: "ANTHROPIC_API_KEY", value: os.Getenv("ANTHROPIC_API_KEY"), secret: true, hint: "credential for the completion provider"},
			{label: "Base URL", envKey: "ANTHROPIC_BASE_URL", value: os.Getenv("ANTHROPIC_BASE_URL"), hint: "optional, for compatible endpoints"},
			{label: "Model", envKey: "DIALOGCAST_MODEL", value: os.Getenv("DIALOGCAST_MODEL"), hint: "haiku, sonnet, or a full model id"},
			{label: "Max tokens", envKey: "DIALOGCAST_MAX_TOKENS", value: os.Getenv("DIALOGCAST_MAX_TOKENS"), hint: "completion token budget, default 4096"},
		},
	}
}

func (m setupModel) Init() tea.Cmd { return nil }

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		switch key.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.editing = false
		case tea.KeyBackspace:
			v := m.fields[m.cursor].value
			if v != "" {
				m.fields[m.cursor].value = v[:len(v)-1]
			}
		case tea.KeyRunes, tea.KeySpace:
			m.fields[m.cursor].value += string(key.Runes)
		case tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
	case "enter":
		m.editing = true
	case "s":
		m.saved = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m setupModel) View() string {
	var b strings.Builder
	b.WriteString(setupTitleStyle.Render("dialogcast setup"))
	b.WriteString("\n")

	for i, f := range m.fields {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		display := f.value
		if f.secret && display != "" && !(m.editing && i == m.cursor) {
			display = strings.Repeat("*", 8)
		}
		if display == "" {
			display = setupDimStyle.Render("(unset)")
		}

		line := fmt.Sprintf("%s%-12s %s", cursor, f.label, display)
		switch {
		case m.editing && i == m.cursor:
			line = setupEditStyle.Render(line + "▌")
		case i == m.cursor:
			line = setupSelectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
		if i == m.cursor {
			b.WriteString(setupDimStyle.Render("    "+f.hint) + "\n")
		}
	}

	b.WriteString("\n")
	if m.editing {
		b.WriteString(setupDimStyle.Render("  type value, enter to confirm"))
	} else {
		b.WriteString(setupDimStyle.Render("  ↑/↓ move · enter edit · s save · q quit"))
	}
	return b.String()
}

func runSetup(cmd *cobra.Command, args []string) error {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("setup needs an interactive terminal; set ANTHROPIC_API_KEY in .env instead")
	}

	final, err := tea.NewProgram(newSetupModel()).Run()
	if err != nil {
		return err
	}
	m := final.(setupModel)
	if m.aborted || !m.saved {
		fmt.Println("Nothing saved")
		return nil
	}

	updates := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		if f.value != "" {
			updates[f.envKey] = f.value
		}
	}
	if err := writeEnvFile(".env", updates); err != nil {
		return err
	}
	fmt.Println("Configuration written to .env")
	return nil
}

// writeEnvFile updates KEY=VALUE pairs in path, preserving unrelated lines
// and appending keys that are not yet present.
func writeEnvFile(path string, updates map[string]string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	seen := make(map[string]bool, len(updates))
	for i, line := range lines {
		key, _, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		key = strings.TrimSpace(key)
		if value, update := updates[key]; update {
			lines[i] = key + "=" + value
			seen[key] = true
		}
	}
	for key, value := range updates {
		if !seen[key] {
			lines = append(lines, key+"="+value)
		}
	}

	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
