package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	switch m.stage {
	case stageInput:
		return m.viewInput()
	case stageProcessing:
		return m.viewProcessing()
	case stageResult:
		return m.viewResult()
	default:
		return ""
	}
}

func (m *model) viewInput() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Paper source"))
	b.WriteRune('\n')
	b.WriteString(m.sourceInput.View())
	parts := []string{m.heroView(), b.String()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	parts = append(parts, helperStyle.Render(m.infoMessage), m.statusBarView(), m.keyLegendView())
	return joinNonEmpty(parts)
}

func (m *model) viewProcessing() string {
	message := fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage)
	return joinNonEmpty([]string{m.heroView(), helperStyle.Render(message), m.statusBarView()})
}

func (m *model) viewResult() string {
	return joinNonEmpty([]string{
		m.heroView(),
		m.viewport.View(),
		helperStyle.Render(m.infoMessage),
		m.statusBarView(),
		m.keyLegendView(),
	})
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(lipgloss.Left, renderLogo(), taglineStyle.Render(heroTagline))
}

func (m *model) statusBarView() string {
	stats := []string{fmt.Sprintf("Mode %s", m.mode)}
	done, failed := 0, 0
	for _, job := range m.history {
		switch job.Status {
		case jobStatusSucceeded:
			done++
		case jobStatusFailed:
			failed++
		}
	}
	if done+failed > 0 {
		stats = append(stats, fmt.Sprintf("Processed %d", done))
	}
	if failed > 0 {
		stats = append(stats, fmt.Sprintf("Failed %d", failed))
	}
	if n := len(m.history); n > 0 && m.history[n-1].Status != jobStatusRunning {
		stats = append(stats, fmt.Sprintf("Last %s", m.history[n-1].Duration.Round(100*time.Millisecond)))
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyHints() []keyHint {
	switch m.stage {
	case stageInput:
		return []keyHint{{"Enter", "Process"}, {"Tab", "Switch mode"}, {"Esc", "Quit"}}
	case stageResult:
		return []keyHint{{"↑/↓", "Scroll"}, {"n", "Another paper"}, {"q", "Quit"}}
	default:
		return nil
	}
}

func (m *model) keyLegendView() string {
	hints := m.keyHints()
	if len(hints) == 0 {
		return ""
	}
	cells := make([]string, 0, len(hints))
	for _, hint := range hints {
		key := keyStyle.Render(hint.Key)
		desc := keyDescStyle.Render(" " + hint.Description + "  ")
		cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a3be8c"))
	labelStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("147"))

	heroEmberColor         = lipgloss.Color("#2b1400")
	heroTextColor          = lipgloss.Color("#fff4d0")
	heroSecondaryTextColor = lipgloss.Color("#ffb347")

	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroEmberColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#110600"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"┏━┓┏━┓┏━┓┏━╸┏━┓┏━╸╻ ╻╻ ╻┏┓╻╻┏ ",
		"┣━┛┣━┫┣━┛┣╸ ┣┳┛┃  ┣━┫┃ ┃┃┗┫┣┻┓",
		"╹  ╹ ╹╹  ┗━╸╹┗╸┗━╸╹ ╹┗━┛╹ ╹╹ ╹",
	}
)
