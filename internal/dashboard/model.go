// Package dashboard provides the Bubble Tea class results dashboard.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/sansu/internal/model"
	"github.com/verte-zerg/sansu/internal/stats"
)

const (
	tabSummary = iota
	tabAccuracy
	tabWrong
)

const (
	fieldClass = iota
	fieldFrom
	fieldTo
	fieldGrade
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

type loadedMsg struct {
	classCode string
	attempts  []model.AttemptRecord
}

type loadFailedMsg struct {
	classCode string
	err       error
}

type exportedMsg struct {
	paths []string
	err   error
}

// Config configures the dashboard.
type Config struct {
	ClassCode string
	From      string
	To        string
	Grade     string
	ExportDir string
}

// Model implements the Bubble Tea dashboard UI.
type Model struct {
	querier stats.Querier
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
	loc     *time.Location

	loading   bool
	loaded    bool
	classCode string
	attempts  []model.AttemptRecord
	filter    stats.Filter
	report    stats.Report

	errMsg    string
	statusMsg string

	tabs      []string
	activeTab int
	summary   viewport.Model
	accuracy  table.Model
	wrong     table.Model

	width  int
	height int

	formMode   bool
	formInputs []textinput.Model
	formIndex  int
	formError  string
}

// NewModel constructs a dashboard model reading through q.
func NewModel(q stats.Querier, cfg Config, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		querier: q,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		loc:     time.Local,
		tabs:    []string{"Summary", "Accuracy", "Wrong Answers"},
		summary: viewport.New(0, 0),
	}
	m.accuracy = newTable(accuracyColumns(nil))
	m.wrong = newTable(wrongColumns(nil))
	m.initInputs()
	if f, err := stats.ParseFilter(cfg.From, cfg.To, cfg.Grade, m.loc); err == nil {
		m.filter = f
	} else {
		m.errMsg = err.Error()
	}
	if strings.TrimSpace(cfg.ClassCode) == "" {
		m.formMode = true
	}
	m.renderContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.formMode {
		return m.setFormIndex(fieldClass)
	}
	return m.startLoad(strings.TrimSpace(m.cfg.ClassCode))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderContents()
		return m, nil
	case loadedMsg:
		if msg.classCode != m.classCode {
			return m, nil
		}
		m.loading = false
		m.loaded = true
		m.attempts = msg.attempts
		m.errMsg = ""
		m.statusMsg = fmt.Sprintf("Loaded %d attempts for %s.", len(msg.attempts), msg.classCode)
		m.rebuild()
		return m, nil
	case loadFailedMsg:
		if msg.classCode != m.classCode {
			return m, nil
		}
		m.loading = false
		m.loaded = false
		m.attempts = nil
		m.errMsg = msg.err.Error()
		m.statusMsg = ""
		m.rebuild()
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("export failed: %v", msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.statusMsg = "Exported " + strings.Join(msg.paths, ", ")
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.formMode {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "/":
		return m.startForm()
	case "r":
		if m.classCode == "" {
			return m.startForm()
		}
		return m, m.startLoad(m.classCode)
	case "a":
		return m, m.exportCmd(stats.ExportAttempts)
	case "v":
		return m, m.exportCmd(stats.ExportAccuracy)
	case "w":
		return m, m.exportCmd(stats.ExportWrongPatterns)
	case "e":
		return m, m.exportAllCmd()
	case "g", "home":
		m.gotoEdge(true)
		return m, nil
	case "G", "end":
		m.gotoEdge(false)
		return m, nil
	}
	var cmd tea.Cmd
	switch m.activeTab {
	case tabAccuracy:
		m.accuracy, cmd = m.accuracy.Update(msg)
	case tabWrong:
		m.wrong, cmd = m.wrong.Update(msg)
	default:
		m.summary, cmd = m.summary.Update(msg)
	}
	return m, cmd
}

// startLoad issues the single bulk read for classCode.
func (m *Model) startLoad(classCode string) tea.Cmd {
	if classCode == "" {
		m.errMsg = "class code is required"
		return nil
	}
	m.classCode = classCode
	m.loading = true
	m.statusMsg = "Loading " + classCode + "..."
	q := m.querier
	log := m.log
	return func() tea.Msg {
		attempts, err := stats.LoadAttempts(context.Background(), q, classCode)
		if err != nil {
			log.Warn("dashboard load failed", zap.String("class", classCode), zap.Error(err))
			return loadFailedMsg{classCode: classCode, err: err}
		}
		return loadedMsg{classCode: classCode, attempts: attempts}
	}
}

// rebuild recomputes the report from the loaded attempts and the filter.
func (m *Model) rebuild() {
	if !m.loaded {
		m.report = stats.Report{ClassCode: m.classCode, Filter: m.filter}
	} else {
		m.report = stats.BuildReport(m.classCode, m.attempts, m.filter)
	}
	accRows := stats.AccuracyRows(m.report.Accuracy)
	m.accuracy.SetRows(nil)
	m.accuracy.SetColumns(accuracyColumns(accRows))
	m.accuracy.SetRows(toTableRows(accRows))
	m.accuracy.GotoTop()

	wrongRows := stats.WrongPatternRows(stats.TopWrongPatterns(m.report.Wrong, stats.WrongPatternDisplayLimit))
	m.wrong.SetRows(nil)
	m.wrong.SetColumns(wrongColumns(wrongRows))
	m.wrong.SetRows(toTableRows(wrongRows))
	m.wrong.GotoTop()

	m.renderContents()
}

func (m *Model) exportCmd(kind stats.ExportKind) tea.Cmd {
	if !m.canExport(kind) {
		m.statusMsg = fmt.Sprintf("Nothing to export for %s.", kind)
		return nil
	}
	dir, r, now := m.cfg.ExportDir, m.report, m.now()
	return func() tea.Msg {
		path, err := stats.Export(dir, kind, r, now)
		if err != nil {
			return exportedMsg{err: err}
		}
		return exportedMsg{paths: []string{path}}
	}
}

func (m *Model) exportAllCmd() tea.Cmd {
	if len(m.report.Filtered) == 0 {
		m.statusMsg = "Nothing to export."
		return nil
	}
	dir, r, now := m.cfg.ExportDir, m.report, m.now()
	return func() tea.Msg {
		paths, err := stats.ExportAll(dir, r, now)
		return exportedMsg{paths: paths, err: err}
	}
}

// canExport reports whether the table behind kind has rows.
func (m *Model) canExport(kind stats.ExportKind) bool {
	switch kind {
	case stats.ExportAttempts:
		return len(m.report.Filtered) > 0
	case stats.ExportAccuracy:
		return len(m.report.Accuracy) > 0
	case stats.ExportWrongPatterns:
		return len(m.report.Wrong) > 0
	}
	return false
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.formMode && (m.errMsg != "" || m.statusMsg != "") {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.summary.Width = m.width
	m.summary.Height = bodyHeight
	for _, t := range []*table.Model{&m.accuracy, &m.wrong} {
		t.SetWidth(m.width)
		t.SetHeight(max(1, bodyHeight-2))
	}
	for i := range m.formInputs {
		promptWidth := lipgloss.Width(m.formInputs[i].Prompt)
		m.formInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	m.accuracy.Blur()
	m.wrong.Blur()
	switch m.activeTab {
	case tabAccuracy:
		m.accuracy.Focus()
	case tabWrong:
		m.wrong.Focus()
	}
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabAccuracy:
		if top {
			m.accuracy.GotoTop()
		} else {
			m.accuracy.GotoBottom()
		}
	case tabWrong:
		if top {
			m.wrong.GotoTop()
		} else {
			m.wrong.GotoBottom()
		}
	default:
		if top {
			m.summary.GotoTop()
		} else {
			m.summary.GotoBottom()
		}
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	class := m.classCode
	if class == "" {
		class = "-"
	}
	from, to := "any", "any"
	if m.filter.From != nil {
		from = m.filter.From.Format("2006-01-02")
	}
	if m.filter.Until != nil {
		to = m.filter.Until.AddDate(0, 0, -1).Format("2006-01-02")
	}
	grade := m.filter.Grade
	if m.filter.AllGrades() {
		grade = stats.GradeAll
	}
	summary := fmt.Sprintf("Class: %s  from=%s  to=%s  grade=%s  loaded=%d  filtered=%d",
		class, from, to, grade, len(m.report.Loaded), len(m.report.Filtered))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down  Filter: /  Reload: r  Export: a/v/w, all: e  Quit: q"
	return headerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	if m.formMode {
		return headerStyle.Render(truncateLine("tab/shift+tab: next field  enter: apply  esc: cancel", m.width))
	}
	help := m.renderHelp()
	switch {
	case m.errMsg != "":
		return help + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.statusMsg != "":
		return help + "\n" + noticeStyle.Render(truncateLine(m.statusMsg, m.width))
	}
	return help
}

func (m *Model) renderBody(height int) string {
	if m.formMode {
		return fitLines(m.renderForm(), m.width, height)
	}
	switch m.activeTab {
	case tabAccuracy:
		if len(m.report.Accuracy) == 0 {
			return fitLines(m.emptyText(), m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.accuracy.View()), m.width, height)
	case tabWrong:
		if len(m.report.Wrong) == 0 {
			return fitLines(m.emptyText(), m.width, height)
		}
		view := tableMutedStyle.Render(m.wrong.View())
		if len(m.report.Wrong) > stats.WrongPatternDisplayLimit {
			note := fmt.Sprintf("Showing top %d of %d. CSV export contains all rows.", stats.WrongPatternDisplayLimit, len(m.report.Wrong))
			view += "\n" + headerStyle.Render(note)
		}
		return fitLines(view, m.width, height)
	}
	return fitLines(m.summary.View(), m.width, height)
}

func (m *Model) emptyText() string {
	switch {
	case m.loading:
		return "Loading..."
	case m.errMsg != "" && !m.loaded:
		return "Failed to load attempts."
	case !m.loaded:
		return "No class loaded. Press / to choose a class."
	}
	return "No data."
}

func (m *Model) renderContents() {
	if !m.loaded {
		m.summary.SetContent(m.emptyText())
		return
	}
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, m.report); err != nil {
		m.summary.SetContent(fmt.Sprintf("Failed to render summary: %v", err))
		return
	}
	lines := []string{strings.TrimRight(buf.String(), "\n")}
	if grades := stats.Grades(m.report.Loaded); len(grades) > 0 {
		lines = append(lines, "Grades: "+strings.Join(grades, ", "))
	}
	if len(m.report.Accuracy) > 0 {
		weakest := m.report.Accuracy[0]
		lines = append(lines, fmt.Sprintf("Weakest word: %s (%.1f%%, %d attempts)", weakest.Word, weakest.Rate*100, weakest.Total))
	}
	if len(m.report.Wrong) > 0 {
		top := m.report.Wrong[0]
		lines = append(lines, fmt.Sprintf("Most common mistake: %s -> %s (%d)", top.Word, top.Selected, top.Count))
	}
	m.summary.SetContent(strings.Join(lines, "\n"))
}

func newFormInput(prompt, placeholder string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Placeholder = placeholder
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) initInputs() {
	m.formInputs = []textinput.Model{
		newFormInput("Class: ", "3A"),
		newFormInput("From (YYYY-MM-DD): ", ""),
		newFormInput("To (YYYY-MM-DD): ", ""),
		newFormInput("Grade: ", stats.GradeAll),
	}
	m.formInputs[fieldClass].SetValue(strings.TrimSpace(m.cfg.ClassCode))
	m.formInputs[fieldFrom].SetValue(strings.TrimSpace(m.cfg.From))
	m.formInputs[fieldTo].SetValue(strings.TrimSpace(m.cfg.To))
	m.formInputs[fieldGrade].SetValue(strings.TrimSpace(m.cfg.Grade))
}

func (m *Model) startForm() (tea.Model, tea.Cmd) {
	m.formMode = true
	m.formError = ""
	return m, m.setFormIndex(fieldClass)
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.classCode == "" && !m.loaded {
			return m, tea.Quit
		}
		m.formMode = false
		m.formError = ""
		return m, nil
	case tea.KeyEnter:
		cmd, err := m.applyForm()
		if err != nil {
			m.formError = err.Error()
			return m, nil
		}
		m.formMode = false
		m.formError = ""
		m.updateLayout()
		return m, cmd
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFormIndex(m.formIndex + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFormIndex(m.formIndex - 1)
	}
	var cmd tea.Cmd
	m.formInputs[m.formIndex], cmd = m.formInputs[m.formIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFormIndex(idx int) tea.Cmd {
	count := len(m.formInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.formIndex = idx
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.formIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

// applyForm validates the form. A new class triggers a load; filter-only
// changes are recomputed from the attempts already loaded.
func (m *Model) applyForm() (tea.Cmd, error) {
	class := strings.TrimSpace(m.formInputs[fieldClass].Value())
	if class == "" {
		return nil, errors.New("class code is required")
	}
	f, err := stats.ParseFilter(
		m.formInputs[fieldFrom].Value(),
		m.formInputs[fieldTo].Value(),
		m.formInputs[fieldGrade].Value(),
		m.loc,
	)
	if err != nil {
		return nil, err
	}
	m.filter = f
	m.errMsg = ""
	if class != m.classCode || !m.loaded {
		m.loaded = false
		m.attempts = nil
		m.rebuild()
		return m.startLoad(class), nil
	}
	m.rebuild()
	return nil, nil
}

func (m *Model) renderForm() string {
	lines := []string{"Dashboard filter (enter to apply, esc to cancel)"}
	for _, input := range m.formInputs {
		lines = append(lines, input.View())
	}
	if m.formError != "" {
		lines = append(lines, errorStyle.Render(m.formError))
	}
	return strings.Join(lines, "\n")
}

func newTable(cols []table.Column) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func accuracyColumns(rows [][]string) []table.Column {
	return []table.Column{
		{Title: "Word", Width: columnWidth("Word", rows, 0, 8, 24)},
		{Title: "Total", Width: 6},
		{Title: "Correct", Width: 7},
		{Title: "Rate", Width: 7},
	}
}

func wrongColumns(rows [][]string) []table.Column {
	return []table.Column{
		{Title: "Word", Width: columnWidth("Word", rows, 0, 8, 24)},
		{Title: "Selected", Width: columnWidth("Selected", rows, 1, 8, 24)},
		{Title: "Count", Width: 6},
	}
}

func toTableRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}
