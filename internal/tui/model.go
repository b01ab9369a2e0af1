// Package tui provides the Bubble Tea study interface.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/verte-zerg/sansu/internal/attemptlog"
	"github.com/verte-zerg/sansu/internal/model"
	"github.com/verte-zerg/sansu/internal/session"
)

const (
	speedStep = 0.2
	fxLength  = 550 * time.Millisecond
)

type fxKind int

const (
	fxNone fxKind = iota
	fxCorrect
	fxWrong
)

type tickMsg struct {
	gen uint64
	at  time.Time
}

type advanceMsg struct {
	token uint64
}

type fxDoneMsg struct {
	token uint64
}

// Model implements the Bubble Tea study UI.
type Model struct {
	machine  *session.Machine
	clock    *session.Clock
	recorder *attemptlog.Recorder
	student  model.Student
	log      *zap.Logger

	keys     keyMap
	help     help.Model
	progress progress.Model

	width  int
	height int

	fx      fxKind
	fxToken uint64
	fxIndex int

	bell io.Writer
	now  func() time.Time
}

// Option customizes a Model.
type Option func(*Model)

// WithBell sets where the answer chime is written. A nil writer mutes it.
func WithBell(w io.Writer) Option {
	return func(m *Model) { m.bell = w }
}

// WithClock replaces the clock used to start countdowns.
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// NewModel constructs a study model over machine.
func NewModel(machine *session.Machine, recorder *attemptlog.Recorder, student model.Student, opts ...Option) *Model {
	m := &Model{
		machine:  machine,
		clock:    session.NewClock(session.TickInterval),
		recorder: recorder,
		student:  student,
		log:      zap.NewNop(),
		keys:     newKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithSolidFill(string(accentColor)), progress.WithoutPercentage()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.fxIndex = machine.State().Index
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.syncClock()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	case tickMsg:
		elapsed, ok := m.clock.Tick(msg.gen, msg.at)
		if !ok {
			return m, nil
		}
		m.machine.Tick(elapsed)
		if m.machine.ClockEnabled() {
			cmds = append(cmds, m.tickCmd(msg.gen))
		}
	case advanceMsg:
		m.machine.FireAdvance(msg.token)
	case fxDoneMsg:
		if msg.token == m.fxToken {
			m.fx = fxNone
		}
	case attemptlog.SavedMsg:
		m.machine.ApplySaveResult(msg.Seq, msg.Err)
		return m, nil
	default:
		return m, nil
	}
	m.clearStaleFx()
	cmds = append(cmds, m.syncClock())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return nil, true
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Mode):
		m.machine.ToggleMode()
	case key.Matches(msg, m.keys.Pause):
		m.machine.HandleKey(session.KeySpace)
	case key.Matches(msg, m.keys.Prev):
		m.machine.HandleKey(session.KeyLeft)
	case key.Matches(msg, m.keys.Next):
		m.machine.HandleKey(session.KeyRight)
	case key.Matches(msg, m.keys.Reveal):
		m.machine.HandleKey(session.KeyEnter)
	case key.Matches(msg, m.keys.Reset):
		m.machine.HandleKey(session.KeyEscape)
	case key.Matches(msg, m.keys.Slower):
		m.machine.AdjustSpeed(speedStep)
	case key.Matches(msg, m.keys.Faster):
		m.machine.AdjustSpeed(-speedStep)
	case key.Matches(msg, m.keys.Sound):
		m.machine.ToggleSound()
	case key.Matches(msg, m.keys.Choose):
		return m.choose(int(msg.Runes[0] - '1')), false
	}
	return nil, false
}

func (m *Model) choose(i int) tea.Cmd {
	ans, ok := m.machine.ChooseIndex(i)
	if !ok {
		return nil
	}
	st := m.machine.State()
	m.log.Debug("answer locked",
		zap.String("word", ans.Word),
		zap.String("selected", ans.Selected),
		zap.Bool("correct", ans.Correct),
	)

	m.fxToken++
	m.fxIndex = st.Index
	m.fx = fxWrong
	if ans.Correct {
		m.fx = fxCorrect
	}
	fxToken := m.fxToken
	advance := ans.Advance

	cmds := []tea.Cmd{
		m.recorder.Record(ans.WriteSeq, ans.Record(m.student, st.Mode)),
		tea.Tick(advance.Delay, func(time.Time) tea.Msg { return advanceMsg{token: advance.Token} }),
		tea.Tick(fxLength, func(time.Time) tea.Msg { return fxDoneMsg{token: fxToken} }),
	}
	if st.SoundOn {
		cmds = append(cmds, m.chime(ans.Correct))
	}
	return tea.Batch(cmds...)
}

// chime rings the terminal bell once for a correct answer and twice for a
// wrong one.
func (m *Model) chime(correct bool) tea.Cmd {
	if m.bell == nil {
		return nil
	}
	w := m.bell
	n := 2
	if correct {
		n = 1
	}
	return func() tea.Msg {
		if _, err := io.WriteString(w, strings.Repeat("\a", n)); err != nil {
			m.log.Debug("bell write failed", zap.Error(err))
		}
		return nil
	}
}

// syncClock starts or stops the countdown to match the session state.
func (m *Model) syncClock() tea.Cmd {
	gen, start := m.clock.Sync(m.machine.ClockEnabled(), m.now())
	if !start {
		return nil
	}
	return m.tickCmd(gen)
}

func (m *Model) tickCmd(gen uint64) tea.Cmd {
	return tea.Tick(m.clock.Interval(), func(t time.Time) tea.Msg {
		return tickMsg{gen: gen, at: t}
	})
}

func (m *Model) clearStaleFx() {
	if m.fx != fxNone && m.machine.State().Index != m.fxIndex {
		m.fx = fxNone
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	st := m.machine.State()
	m.keys.flash = st.Mode == model.ModeFlash

	width := m.contentWidth()
	sections := []string{
		m.renderHeader(st),
		m.renderStatus(st),
		m.renderCard(st, width),
	}
	if line := renderSaveLine(st); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, m.help.View(m.keys))
	return strings.Join(sections, "\n")
}

func (m *Model) contentWidth() int {
	if m.width <= 0 {
		return 60
	}
	w := int(float64(m.width) * 0.70)
	if w < 20 {
		w = min(m.width, 20)
	}
	return max(w, 1)
}

func (m *Model) renderHeader(st session.State) string {
	total := m.machine.Len()
	pct := int(float64(st.Index+1) / float64(total) * 100)
	who := fmt.Sprintf("%s #%s", m.student.ClassCode, m.student.StudentNo)
	parts := []string{
		titleStyle.Render(strings.ToUpper(st.Mode.String())),
		who,
		"grade " + model.NormalizeGrade(m.student.Grade),
	}
	if id := m.student.SessionID; id != "" {
		parts = append(parts, "session "+shortID(id))
	}
	parts = append(parts, fmt.Sprintf("%d / %d (%d%%)", st.Index+1, total, pct))
	return strings.Join(parts, "  ")
}

func (m *Model) renderStatus(st session.State) string {
	var parts []string
	if st.Mode == model.ModeFlash {
		play := "paused"
		if st.AutoPlay {
			play = "playing"
		}
		parts = append(parts, play, fmt.Sprintf("%.1fs/card", st.SecondsPerCard))
	}
	sound := "sound off"
	if st.SoundOn {
		sound = "sound on"
	}
	parts = append(parts, sound)
	return mutedStyle.Render(strings.Join(parts, " · "))
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
