package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dictaria/lang"
	"dictaria/session"
)

// TUI message types
type RecordingStartMsg struct{ Language string }
type TranscribingMsg struct{ Language string }
type IdleMsg struct {
	Reason session.Reason
	Err    error
}
type ResultMsg struct {
	Text     string
	Language string
	AudioS   float64
	ElapsedS float64
}
type AudioLevelMsg struct{ Level float64 }
type LanguageMsg struct{ Code string }
type FavoritesMsg struct{ Codes []string }
type StatusMsg struct{ Text string }
type SilenceMsg struct{ Warned bool }
type tickMsg time.Time

// UI intents land in the dispatcher through these hooks, set by run().
var (
	uiToggle         func()
	uiSelectLanguage func(code string)
	uiToggleFavorite func(code string)
	uiSaveView       func(theme string, pinned, collapsed bool)
)

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

type tuiState int

const (
	tuiIdle tuiState = iota
	tuiRecording
	tuiTranscribing
)

type tuiModel struct {
	state         tuiState
	frame         int
	recordStart   time.Time
	level         float64
	peakLevel     float64
	langCode      string
	favorites     []string
	banner        string
	silenceWarn   bool
	lastText      string
	lastLang      string
	lastAudioS    float64
	lastElapsedS  float64
	resultCount   int
	statusLine    string
	theme         string
	pinned        bool
	collapsed     bool
	styles        tuiStyles
	width, height int
}

type tuiStyles struct {
	title   lipgloss.Style
	rec     lipgloss.Style
	work    lipgloss.Style
	idle    lipgloss.Style
	lang    lipgloss.Style
	active  lipgloss.Style
	fav     lipgloss.Style
	banner  lipgloss.Style
	text    lipgloss.Style
	meta    lipgloss.Style
	help    lipgloss.Style
	helpKey lipgloss.Style
}

func darkStyles() tuiStyles {
	return tuiStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		rec:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		work:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		idle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		lang:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Underline(true),
		fav:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		banner:  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		text:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("239")),
		helpKey: lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true),
	}
}

func lightStyles() tuiStyles {
	return tuiStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("57")),
		rec:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160")),
		work:    lipgloss.NewStyle().Foreground(lipgloss.Color("130")),
		idle:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		lang:    lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("28")).Underline(true),
		fav:     lipgloss.NewStyle().Foreground(lipgloss.Color("94")),
		banner:  lipgloss.NewStyle().Foreground(lipgloss.Color("166")),
		text:    lipgloss.NewStyle().Foreground(lipgloss.Color("18")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("247")),
		helpKey: lipgloss.NewStyle().Foreground(lipgloss.Color("247")).Bold(true),
	}
}

func stylesFor(theme string) tuiStyles {
	if theme == "light" {
		return lightStyles()
	}
	return darkStyles()
}

func NewTUIProgram(langCode string, favorites []string, theme string, pinned, collapsed bool) *tea.Program {
	m := tuiModel{
		langCode:  langCode,
		favorites: favorites,
		theme:     theme,
		pinned:    pinned,
		collapsed: collapsed,
		styles:    stylesFor(theme),
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) isFavorite(code string) bool {
	for _, f := range m.favorites {
		if f == code {
			return true
		}
	}
	return false
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiRecording
		m.recordStart = time.Now()
		m.level = 0
		m.peakLevel = 0
		m.banner = ""
		m.silenceWarn = false

	case TranscribingMsg:
		m.state = tuiTranscribing
		m.level = 0

	case IdleMsg:
		m.state = tuiIdle
		m.level = 0
		m.silenceWarn = false
		m.banner = bannerFor(msg.Reason, msg.Err)

	case ResultMsg:
		m.resultCount++
		m.lastText = msg.Text
		m.lastLang = msg.Language
		m.lastAudioS = msg.AudioS
		m.lastElapsedS = msg.ElapsedS

	case AudioLevelMsg:
		if m.state == tuiRecording {
			m.level = m.level*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		}

	case LanguageMsg:
		m.langCode = msg.Code

	case FavoritesMsg:
		m.favorites = msg.Codes

	case SilenceMsg:
		m.silenceWarn = msg.Warned

	case StatusMsg:
		m.statusLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case " ", "enter":
		if uiToggle != nil {
			uiToggle()
		}
		return m, nil
	case "left", "h":
		m.cycleLanguage(-1)
		return m, nil
	case "right", "l":
		m.cycleLanguage(1)
		return m, nil
	case "f":
		if uiToggleFavorite != nil && m.langCode != "" {
			uiToggleFavorite(m.langCode)
		}
		return m, nil
	case "p":
		m.pinned = !m.pinned
		m.saveView()
		return m, nil
	case "c":
		m.collapsed = !m.collapsed
		m.saveView()
		return m, nil
	case "t":
		if m.theme == "light" {
			m.theme = "dark"
		} else {
			m.theme = "light"
		}
		m.styles = stylesFor(m.theme)
		m.saveView()
		return m, nil
	}

	// Digits jump straight to a language slot: 1-9 then 0 for the tenth.
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if key == "0" {
			idx = 9
		}
		table := lang.All()
		if idx >= 0 && idx < len(table) && uiSelectLanguage != nil {
			uiSelectLanguage(table[idx].Code)
		}
	}
	return m, nil
}

func (m tuiModel) saveView() {
	if uiSaveView != nil {
		uiSaveView(m.theme, m.pinned, m.collapsed)
	}
}

// cycleLanguage requests the neighbor of the active language in table order.
func (m tuiModel) cycleLanguage(dir int) {
	if uiSelectLanguage == nil {
		return
	}
	table := lang.All()
	cur := 0
	for i, l := range table {
		if l.Code == m.langCode {
			cur = i
			break
		}
	}
	next := (cur + dir + len(table)) % len(table)
	uiSelectLanguage(table[next].Code)
}

func bannerFor(reason session.Reason, err error) string {
	switch reason {
	case session.ReasonCompleted:
		return ""
	case session.ReasonNoLanguageSelected:
		return "select a language first (←/→ or 1-9)"
	case session.ReasonDeviceUnavailable:
		if err != nil {
			return "microphone unavailable: " + err.Error()
		}
		return "microphone unavailable"
	case session.ReasonNoAudioCaptured:
		return "no audio captured"
	case session.ReasonNoTextRecognized:
		return "no speech recognized"
	case session.ReasonEngineFailure:
		if err != nil {
			return "transcription failed: " + err.Error()
		}
		return "transcription failed"
	}
	return ""
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func levelBar(level float64, width int) string {
	filled := int(level * 4 * float64(width))
	if filled > width {
		filled = width
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	st := m.styles
	var b strings.Builder

	b.WriteString(st.title.Render("dictaria") + "\n\n")

	// Language row: every language with its flag, active underlined,
	// favorites starred. Collapsed mode shows only the active entry.
	var langParts []string
	for i, l := range lang.All() {
		if m.collapsed && l.Code != m.langCode {
			continue
		}
		label := fmt.Sprintf("%d %s %s", (i+1)%10, l.Flag, l.Code)
		if m.isFavorite(l.Code) {
			label = st.fav.Render("★") + label
		}
		if l.Code == m.langCode {
			langParts = append(langParts, st.active.Render(label))
		} else {
			langParts = append(langParts, st.lang.Render(label))
		}
	}
	if m.collapsed {
		langParts = append(langParts, st.help.Render("(c to expand)"))
	}
	b.WriteString(strings.Join(langParts, "  ") + "\n\n")

	// Status line.
	switch m.state {
	case tuiRecording:
		dur := time.Since(m.recordStart).Seconds()
		b.WriteString(st.rec.Render(fmt.Sprintf("● REC %.1fs ", dur)))
		b.WriteString(levelBar(m.level, 20) + "\n")
		if m.silenceWarn {
			b.WriteString(st.banner.Render("  ⚠ no voice detected") + "\n")
		}
	case tuiTranscribing:
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		b.WriteString(st.work.Render(frame+" transcribing…") + "\n")
	default:
		b.WriteString(st.idle.Render("○ idle") + "\n")
		if m.banner != "" {
			b.WriteString(st.banner.Render("  "+m.banner) + "\n")
		}
	}
	b.WriteString("\n")

	// Last transcription. Pinned keeps the full text on screen; otherwise
	// long results are trimmed to a few lines.
	if m.lastText != "" {
		pin := ""
		if m.pinned {
			pin = " 📌"
		}
		title := st.meta.Render(fmt.Sprintf("Last transcription (#%d, %s, %.1fs audio, %.1fs engine)%s",
			m.resultCount, m.lastLang, m.lastAudioS, m.lastElapsedS, pin))
		b.WriteString(title + "\n")
		wrap := m.width - 2
		if wrap < 10 {
			wrap = 10
		}
		lines := wrapText(m.lastText, wrap)
		if !m.pinned && len(lines) > 3 {
			lines = append(lines[:3:3], "…")
		}
		for _, line := range lines {
			b.WriteString(st.text.Render(line) + "\n")
		}
		b.WriteString(st.meta.Render("[✓ copied]") + "\n")
	} else {
		b.WriteString(st.idle.Render("No transcriptions yet") + "\n")
	}
	b.WriteString("\n")

	if m.statusLine != "" {
		b.WriteString(st.idle.Render(m.statusLine) + "\n")
	}

	help := st.helpKey.Render("space") + st.help.Render(" record  ") +
		st.helpKey.Render("←/→") + st.help.Render(" language  ") +
		st.helpKey.Render("f") + st.help.Render(" favorite  ") +
		st.helpKey.Render("p") + st.help.Render(" pin  ") +
		st.helpKey.Render("c") + st.help.Render(" collapse  ") +
		st.helpKey.Render("t") + st.help.Render(" theme  ") +
		st.helpKey.Render("q") + st.help.Render(" quit  ") +
		st.help.Render("hotkey: Ctrl+Shift+Space")
	b.WriteString(help + "\n")
	b.WriteString(st.help.Render("dictaria " + version))

	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
