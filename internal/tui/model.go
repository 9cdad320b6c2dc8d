package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/paperchunk/internal/config"
	"github.com/csheth/paperchunk/internal/logging"
	"github.com/csheth/paperchunk/internal/pipeline"
)

// Processor runs one paper through the pipeline.
type Processor interface {
	Process(ctx context.Context, src string, mode config.Mode) (pipeline.Outcome, error)
}

// Config wires runtime options into the TUI program.
type Config struct {
	Processor Processor
	// Mode is preselected; unset means chunked.
	Mode config.Mode
	Logger logging.Logger
}

// New returns a tea.Model ready to be mounted into a Program.
func New(cfg Config) tea.Model {
	sourceInput := textinput.New()
	sourceInput.Placeholder = sourcePlaceholder
	sourceInput.Prompt = "› "
	sourceInput.CharLimit = 2048
	sourceInput.Width = 70
	sourceInput.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	return &model{
		config:      cfg,
		stage:       stageInput,
		mode:        cfg.Mode.OrDefault(config.ModeChunked),
		sourceInput: sourceInput,
		spinner:     spin,
		viewport:    viewport.New(80, 12),
		layout:      newPageLayout(),
		jobs:        newJobBus(ctx, cfg.Logger),
		cancel:      cancel,
		infoMessage: "Paste a paper URL, arXiv identifier or PDF path and press Enter.",
	}
}

type model struct {
	config Config
	stage  stage
	mode   config.Mode

	sourceInput textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model
	layout      pageLayout

	jobs    *jobBus
	cancel  context.CancelFunc
	history []jobSnapshot

	source       string
	outcome      *pipeline.Outcome
	failure      error
	infoMessage  string
	errorMessage string
	quitting     bool
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.viewport.Width = m.layout.viewportWidth
		m.viewport.Height = m.layout.viewportHeight
		m.refreshResult()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		if m.stage != stageProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case jobSignalMsg:
		m.recordJob(msg.Snapshot)
		return m, nil
	case jobResultEnvelope:
		m.recordJob(msg.Snapshot)
		if payload, ok := msg.Payload.(processResultMsg); ok {
			m.applyResult(payload)
		}
		return m, nil
	}

	if m.stage == stageInput {
		var cmd tea.Cmd
		m.sourceInput, cmd = m.sourceInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}
	switch m.stage {
	case stageInput:
		switch msg.String() {
		case "esc":
			return m, m.quit()
		case "tab":
			m.mode = nextMode(m.mode)
			return m, nil
		case "enter":
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.sourceInput, cmd = m.sourceInput.Update(msg)
		return m, cmd
	case stageProcessing:
		return m, nil
	case stageResult:
		switch msg.String() {
		case "q", "esc":
			return m, m.quit()
		case "n", "r":
			m.reset()
			return m, textinput.Blink
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *model) submit() tea.Cmd {
	src := strings.TrimSpace(m.sourceInput.Value())
	if src == "" {
		m.errorMessage = "Please provide a paper URL, arXiv identifier or file path."
		return nil
	}
	if m.config.Processor == nil {
		m.errorMessage = "No processor configured."
		return nil
	}
	m.source = src
	m.errorMessage = ""
	m.infoMessage = "Downloading, extracting and splitting " + src + "…"
	m.stage = stageProcessing
	m.sourceInput.Blur()
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindProcess, src, processJob(m.config, src, m.mode)))
}

func processJob(cfg Config, src string, mode config.Mode) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		out, err := cfg.Processor.Process(ctx, src, mode)
		return processResultMsg{source: src, outcome: out, err: err}, err
	}
}

func (m *model) applyResult(msg processResultMsg) {
	if msg.source != m.source {
		return
	}
	m.stage = stageResult
	if msg.err != nil {
		m.outcome = nil
		m.failure = msg.err
		m.infoMessage = "Press n to try another paper or q to quit."
	} else {
		out := msg.outcome
		m.outcome = &out
		m.failure = nil
		m.infoMessage = "Press n to process another paper or q to quit."
	}
	m.refreshResult()
	m.viewport.GotoTop()
}

func (m *model) refreshResult() {
	width := m.viewport.Width
	switch {
	case m.outcome != nil:
		m.viewport.SetContent(renderOutcome(*m.outcome, width))
	case m.failure != nil:
		m.viewport.SetContent(renderFailure(m.source, m.failure, width))
	}
}

func (m *model) recordJob(snap jobSnapshot) {
	for i := range m.history {
		if m.history[i].ID == snap.ID {
			m.history[i] = snap
			return
		}
	}
	m.history = append(m.history, snap)
}

func (m *model) reset() {
	m.stage = stageInput
	m.outcome = nil
	m.failure = nil
	m.source = ""
	m.errorMessage = ""
	m.infoMessage = "Paste a paper URL, arXiv identifier or PDF path and press Enter."
	m.sourceInput.SetValue("")
	m.sourceInput.Focus()
}

func (m *model) quit() tea.Cmd {
	m.quitting = true
	m.cancel()
	return tea.Quit
}
