package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sansu/internal/model"
	"github.com/verte-zerg/sansu/internal/session"
)

var (
	textColor    = lipgloss.Color("#F0F0F0")
	wrongColor   = lipgloss.Color("#FF4D4F")
	correctColor = lipgloss.Color("#52C41A")
	mutedColor   = lipgloss.Color("#8C8C8C")
	accentColor  = lipgloss.Color("#C89A3A")
	borderColor  = lipgloss.Color("#4A4A4A")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	wordStyle    = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	correctStyle = lipgloss.NewStyle().Foreground(correctColor).Bold(true)
	wrongStyle   = lipgloss.NewStyle().Foreground(wrongColor)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
)

func (m *Model) renderCard(st session.State, width int) string {
	inner := max(width-6, 1)
	var body string
	if st.Mode == model.ModeFlash {
		body = m.renderFlash(st, inner)
	} else {
		body = m.renderTest(st, inner)
	}
	border := borderColor
	switch m.fx {
	case fxCorrect:
		border = correctColor
	case fxWrong:
		border = wrongColor
	}
	return cardStyle.BorderForeground(border).Width(inner + 4).Render(body)
}

func (m *Model) renderFlash(st session.State, width int) string {
	item := m.machine.Item()
	lines := wrapLines(wordStyle, item.Word, width)
	if st.RevealStage >= 1 {
		lines = append(lines, "")
		lines = append(lines, wrapLines(lipgloss.NewStyle().Foreground(textColor), item.Definition, width)...)
	}
	if st.RevealStage >= 2 && item.Example != "" {
		lines = append(lines, "")
		lines = append(lines, wrapLines(mutedStyle.Italic(true), item.Example, width)...)
	}
	lines = append(lines, "", m.renderCountdown(st, width))
	return strings.Join(lines, "\n")
}

func (m *Model) renderCountdown(st session.State, width int) string {
	secs := int(math.Ceil(float64(st.Remaining.Milliseconds()) / 1000))
	frac := m.machine.RemainingFraction()
	label := fmt.Sprintf(" %ds %3d%%", max(secs, 0), int(math.Round(frac*100)))
	m.progress.Width = max(width-len(label), 4)
	return m.progress.ViewAs(frac) + mutedStyle.Render(label)
}

func (m *Model) renderTest(st session.State, width int) string {
	item := m.machine.Item()
	lines := wrapLines(wordStyle, item.Word, width)
	if item.Definition != "" {
		lines = append(lines, wrapLines(mutedStyle, item.Definition, width)...)
	}
	lines = append(lines, "")
	for i, choice := range item.Choices {
		label := fmt.Sprintf("%d. %s", i+1, choice)
		style := lipgloss.NewStyle().Foreground(textColor)
		switch {
		case st.HasSelection && choice == st.Selected && choice == item.Answer:
			style = correctStyle
			label += "  ✓"
		case st.HasSelection && choice == st.Selected:
			style = wrongStyle
			label += "  ✗"
		case st.EmphasizeCorrect && choice == item.Answer:
			style = correctStyle
		case st.HasSelection:
			style = mutedStyle
		}
		lines = append(lines, wrapLines(style, label, width)...)
	}
	return strings.Join(lines, "\n")
}

func renderSaveLine(st session.State) string {
	if st.Mode != model.ModeTest {
		return ""
	}
	switch st.SaveStatus {
	case model.SaveSaving:
		return footerStyle.Render("saving…")
	case model.SaveSaved:
		return footerStyle.Render("saved")
	case model.SaveError:
		return wrongStyle.Render("save failed: " + st.SaveError)
	}
	return ""
}

func wrapLines(style lipgloss.Style, text string, width int) []string {
	raw := wrapText(text, width)
	out := make([]string, len(raw))
	for i, line := range raw {
		out[i] = style.Render(line)
	}
	return out
}
