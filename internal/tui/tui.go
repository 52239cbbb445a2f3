// Package tui provides a Bubble Tea terminal user interface for nts-downloader.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/nts-downloader/internal/config"
	"github.com/handiism/nts-downloader/internal/download"
	"github.com/handiism/nts-downloader/internal/nts"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F5F5F5")).
			Background(lipgloss.Color("#111111")).
			Padding(0, 1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// maxLogs is how many progress lines stay on screen.
const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logger    *slog.Logger
	logs      []LogEntry
	inputErr  error
	err       error
	target    nts.Target

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	manager *download.Manager
	events  chan download.ProgressEvent

	// Episode progress
	done    int32
	total   int32
	saved   int
	failed  int
	started time.Time

	// Options
	playlist     bool
	metadataOnly bool
	verbose      bool

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses defaults.
func NewModel(settings *config.Settings, logger *slog.Logger) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "https://www.nts.live/shows/name"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logger:    logger,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		playlist:  settings.CreatePlaylist,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg is sent for every event the manager reports.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// DownloadDoneMsg is sent when the run finishes.
	DownloadDoneMsg struct {
		Results []download.EpisodeResult
		Err     error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && m.textInput.Value() != "" {
				target, err := nts.ClassifyURL(m.textInput.Value())
				if err != nil {
					m.inputErr = err
					return m, nil
				}
				m.inputErr = nil
				m.target = target
				m.state = StateDownloading
				m.started = time.Now()
				m.events = make(chan download.ProgressEvent, 64)
				m.manager = m.newManager()
				return m, tea.Batch(
					m.startDownload(),
					m.listenEvents(),
					m.tickProgress(),
					m.spinner.Tick,
				)
			}

		case "ctrl+p":
			if m.state == StateInput {
				m.playlist = !m.playlist
			}

		case "ctrl+n":
			if m.state == StateInput {
				m.metadataOnly = !m.metadataOnly
			}

		case "ctrl+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m = m.reset()
				return m, textinput.Blink
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		if m.state == StateDownloading {
			cmds = append(cmds, m.listenEvents())
		}
		m.appendLog(msg.Event)

	case DownloadDoneMsg:
		m.drainEvents()
		m.saved, m.failed = 0, 0
		for _, r := range msg.Results {
			if r.Err != nil {
				m.failed++
			} else {
				m.saved++
			}
		}
		if m.manager != nil {
			m.done, m.total = m.manager.GetProgress()
		}
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		case msg.Err != nil && m.saved == 0:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case TickMsg:
		if m.manager != nil && m.state == StateDownloading {
			m.done, m.total = m.manager.GetProgress()

			var percent float64
			if m.total > 0 {
				percent = float64(m.done) / float64(m.total)
			}
			cmds = append(cmds, m.progress.SetPercent(percent), m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) appendLog(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{
		Message: event.Message,
		Level:   event.Level,
	})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// drainEvents logs the events still buffered when a run ends.
func (m *Model) drainEvents() {
	for {
		select {
		case event := <-m.events:
			m.appendLog(event)
		default:
			return
		}
	}
}

func (m Model) reset() Model {
	m.cancel()
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.inputErr = nil
	m.done, m.total = 0, 0
	m.saved, m.failed = 0, 0
	m.manager = nil
	m.events = nil
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
	return m
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NTS Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download and tag NTS Radio episodes"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter an NTS show or episode URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	if m.inputErr != nil {
		b.WriteString(errorStyle.Render(m.inputErr.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %s Create playlist for shows (ctrl+p)\n", checkbox(m.playlist))
	fmt.Fprintf(&b, "  %s Metadata only, no download (ctrl+n)\n", checkbox(m.metadataOnly))
	fmt.Fprintf(&b, "  %s Verbose output (ctrl+v)\n", checkbox(m.verbose))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Save directory: %s", m.settings.SaveDir)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.total == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		if m.target.Kind == nts.KindShow {
			b.WriteString(subtitleStyle.Render(fmt.Sprintf("Listing episodes of %s...", m.target.Show)))
		} else {
			b.WriteString(subtitleStyle.Render("Fetching episode..."))
		}
		b.WriteString("\n\n")
	} else {
		var percent float64
		if m.total > 0 {
			percent = float64(m.done) / float64(m.total)
		}
		b.WriteString(m.progress.ViewAs(percent))
		b.WriteString("\n")
		b.WriteString(infoStyle.Render(fmt.Sprintf(
			"Episodes: %d/%d | Elapsed: %s",
			m.done,
			m.total,
			time.Since(m.started).Round(time.Second),
		)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	verb := "Saved"
	if m.metadataOnly {
		verb = "Parsed"
	}
	summary := fmt.Sprintf("Done!\n\n%s: %d\nFailed: %d", verb, m.saved, m.failed)
	if !m.metadataOnly {
		summary += fmt.Sprintf("\nDirectory: %s", m.settings.SaveDir)
	}
	return boxStyle.Render(summary) + "\n\n" + m.renderLogs()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n\n", m.err.Error())
	}
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • ctrl+p: playlist • ctrl+n: metadata only • ctrl+v: verbose • esc: quit"
	case StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// newManager builds a manager for one run from the settings and the
// toggled options. Events are dropped when the UI falls behind.
func (m Model) newManager() *download.Manager {
	settings := *m.settings
	settings.CreatePlaylist = m.playlist
	settings.Save = !m.metadataOnly
	// yt-dlp output would corrupt the screen
	settings.Quiet = true

	events := m.events
	onProgress := func(event download.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	}

	var opts []download.Option
	if m.logger != nil {
		opts = append(opts, download.WithLogger(m.logger))
	}
	return download.NewManager(&settings, onProgress, opts...)
}

// listenEvents waits for the next progress event of the current run.
func (m Model) listenEvents() tea.Cmd {
	events := m.events
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case event := <-events:
			return ProgressMsg{Event: event}
		case <-ctx.Done():
			return nil
		}
	}
}

// startDownload runs the download in the background.
func (m Model) startDownload() tea.Cmd {
	manager := m.manager
	ctx := m.ctx
	rawURL := m.target.URL
	return func() tea.Msg {
		results, err := manager.Download(ctx, rawURL)
		return DownloadDoneMsg{Results: results, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings, logger *slog.Logger) error {
	p := tea.NewProgram(NewModel(settings, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
