// Package session implements the study-session state machine and its clock.
package session

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

const (
	MinSecondsPerCard     = 0.8
	MaxSecondsPerCard     = 6.0
	DefaultSecondsPerCard = 2.0
	MaxRevealStage        = 2

	CorrectAdvanceDelay = 900 * time.Millisecond
	WrongAdvanceDelay   = 700 * time.Millisecond
)

// Step reports what a clock tick did to the session.
type Step int

const (
	StepNone Step = iota
	StepReveal
	StepNextCard
)

// Key is an input from the keyboard contract.
type Key int

const (
	KeySpace Key = iota
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
)

// Options configures a new Machine.
type Options struct {
	Mode           model.Mode
	SecondsPerCard float64
	SoundOn        bool
}

// State is a snapshot of the session.
type State struct {
	Index            int
	Mode             model.Mode
	RevealStage      int
	Selected         string
	HasSelection     bool
	EmphasizeCorrect bool
	Remaining        time.Duration
	SecondsPerCard   float64
	AutoPlay         bool
	SoundOn          bool
	SaveStatus       model.SaveStatus
	SaveError        string
}

// Advance is a deferred move to the next card. Token identifies it so a
// late delivery can be recognised as stale.
type Advance struct {
	Token uint64
	Delay time.Duration
}

// Answer describes a locked quiz selection.
type Answer struct {
	Word     string
	Choices  []string
	Selected string
	Correct  bool
	Advance  Advance
	WriteSeq uint64
}

// Record builds the attempt to persist for this answer.
func (a Answer) Record(student model.Student, mode model.Mode) model.AttemptRecord {
	return model.AttemptRecord{
		ClassCode: student.ClassCode,
		StudentNo: student.StudentNo,
		Grade:     student.Grade,
		SessionID: student.SessionID,
		Mode:      mode.String(),
		Word:      a.Word,
		Selected:  a.Selected,
		Correct:   a.Correct,
		Choices:   append([]string(nil), a.Choices...),
	}
}

// Machine owns the per-card progression of a study session. It is not safe
// for concurrent use; callers feed it events from a single loop.
type Machine struct {
	deck []model.VocabularyItem
	st   State

	// pending is the only outstanding auto-advance. Every transition that
	// changes Index or Mode clears it before returning.
	pending *Advance
	tokens  uint64

	writes   uint64
	writeSeq uint64
}

// New creates a Machine positioned on the first card.
func New(deck []model.VocabularyItem, opts Options) (*Machine, error) {
	if len(deck) == 0 {
		return nil, fmt.Errorf("deck is empty")
	}
	m := &Machine{
		deck: deck,
		st: State{
			Mode:           opts.Mode,
			SecondsPerCard: ClampSeconds(opts.SecondsPerCard),
			AutoPlay:       opts.Mode == model.ModeFlash,
			SoundOn:        opts.SoundOn,
		},
	}
	m.resetCard()
	return m, nil
}

// ClampSeconds limits a card duration to the supported range. Non-finite
// values fall back to the default.
func ClampSeconds(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return DefaultSecondsPerCard
	}
	return math.Max(MinSecondsPerCard, math.Min(MaxSecondsPerCard, s))
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.st
}

// Len returns the deck size.
func (m *Machine) Len() int {
	return len(m.deck)
}

// Item returns the current card.
func (m *Machine) Item() model.VocabularyItem {
	return m.deck[m.st.Index]
}

// Pending returns the outstanding auto-advance, if any.
func (m *Machine) Pending() (Advance, bool) {
	if m.pending == nil {
		return Advance{}, false
	}
	return *m.pending, true
}

// ClockEnabled reports whether the tick-driven countdown should run.
func (m *Machine) ClockEnabled() bool {
	return m.st.Mode == model.ModeFlash && m.st.AutoPlay
}

// CardDuration is the countdown length for one reveal stage.
func (m *Machine) CardDuration() time.Duration {
	return time.Duration(math.Round(m.st.SecondsPerCard*1000)) * time.Millisecond
}

// RemainingFraction is the remaining countdown relative to the current card
// duration, in [0, 1].
func (m *Machine) RemainingFraction() float64 {
	full := m.CardDuration()
	if full <= 0 {
		return 0
	}
	f := float64(m.st.Remaining) / float64(full)
	return math.Max(0, math.Min(1, f))
}

// Tick consumes elapsed wall-clock time in Flash mode with auto-play on.
// At most one transition happens per expiry.
func (m *Machine) Tick(elapsed time.Duration) Step {
	if !m.ClockEnabled() {
		return StepNone
	}
	if elapsed < 0 {
		elapsed = 0
	}
	m.st.Remaining -= elapsed
	if m.st.Remaining > 0 {
		return StepNone
	}
	if m.st.RevealStage < MaxRevealStage {
		m.st.RevealStage++
		m.st.Remaining = m.CardDuration()
		return StepReveal
	}
	m.moveTo(m.st.Index + 1)
	return StepNextCard
}

// Reveal shows the next part of a flashcard.
func (m *Machine) Reveal() bool {
	if m.st.Mode != model.ModeFlash || m.st.RevealStage >= MaxRevealStage {
		return false
	}
	m.st.RevealStage++
	return true
}

// Next moves to the following card, wrapping to the first.
func (m *Machine) Next() {
	m.moveTo(m.st.Index + 1)
}

// Prev moves to the previous card, wrapping to the last.
func (m *Machine) Prev() {
	m.moveTo(m.st.Index - 1)
}

// SetMode switches modes. Switching to a different mode resets the card;
// auto-play always takes the mode default.
func (m *Machine) SetMode(mode model.Mode) {
	if mode != m.st.Mode {
		m.pending = nil
		m.st.Mode = mode
		m.resetCard()
	}
	m.st.AutoPlay = mode == model.ModeFlash
}

// ToggleMode switches to the other mode.
func (m *Machine) ToggleMode() {
	if m.st.Mode == model.ModeFlash {
		m.SetMode(model.ModeTest)
		return
	}
	m.SetMode(model.ModeFlash)
}

// ToggleAutoPlay pauses or resumes the countdown in Flash mode.
func (m *Machine) ToggleAutoPlay() bool {
	if m.st.Mode != model.ModeFlash {
		return false
	}
	m.st.AutoPlay = !m.st.AutoPlay
	return true
}

// ToggleSound flips the sound setting.
func (m *Machine) ToggleSound() {
	m.st.SoundOn = !m.st.SoundOn
}

// SetSecondsPerCard changes the card duration and clamps the running
// countdown into the new range without touching the reveal stage.
func (m *Machine) SetSecondsPerCard(s float64) {
	m.st.SecondsPerCard = ClampSeconds(s)
	full := m.CardDuration()
	if m.st.Remaining > full {
		m.st.Remaining = full
	}
	if m.st.Remaining < 0 {
		m.st.Remaining = 0
	}
}

// AdjustSpeed changes the card duration by delta seconds, rounded to 0.1s.
func (m *Machine) AdjustSpeed(delta float64) {
	m.SetSecondsPerCard(math.Round((m.st.SecondsPerCard+delta)*10) / 10)
}

// ChooseIndex selects the i-th choice of the current card.
func (m *Machine) ChooseIndex(i int) (Answer, bool) {
	item := m.Item()
	if i < 0 || i >= len(item.Choices) {
		return Answer{}, false
	}
	return m.Choose(item.Choices[i])
}

// Choose locks a selection in Test mode and schedules the auto-advance.
// Only the first selection on a card has any effect.
func (m *Machine) Choose(choice string) (Answer, bool) {
	if m.st.Mode != model.ModeTest || m.st.HasSelection {
		return Answer{}, false
	}
	item := m.Item()
	if !containsChoice(item.Choices, choice) {
		return Answer{}, false
	}
	correct := choice == item.Answer
	m.st.Selected = choice
	m.st.HasSelection = true
	m.st.EmphasizeCorrect = !correct
	m.st.SaveStatus = model.SaveSaving
	m.st.SaveError = ""

	m.writes++
	m.writeSeq = m.writes

	delay := WrongAdvanceDelay
	if correct {
		delay = CorrectAdvanceDelay
	}
	m.tokens++
	m.pending = &Advance{Token: m.tokens, Delay: delay}

	return Answer{
		Word:     item.Word,
		Choices:  append([]string(nil), item.Choices...),
		Selected: choice,
		Correct:  correct,
		Advance:  *m.pending,
		WriteSeq: m.writeSeq,
	}, true
}

// FireAdvance runs the pending auto-advance identified by token. Tokens of
// cancelled advances are ignored.
func (m *Machine) FireAdvance(token uint64) bool {
	if m.pending == nil || m.pending.Token != token {
		return false
	}
	m.moveTo(m.st.Index + 1)
	return true
}

// ApplySaveResult records the outcome of the write identified by seq. Results
// for writes made on an earlier card are dropped.
func (m *Machine) ApplySaveResult(seq uint64, err error) bool {
	if seq == 0 || seq != m.writeSeq {
		return false
	}
	if err != nil {
		m.st.SaveStatus = model.SaveError
		m.st.SaveError = err.Error()
		return true
	}
	m.st.SaveStatus = model.SaveSaved
	m.st.SaveError = ""
	return true
}

// ResetCard clears the current card's progress and any pending advance.
func (m *Machine) ResetCard() {
	m.resetCard()
}

// HandleKey applies the keyboard contract and reports whether state changed.
func (m *Machine) HandleKey(k Key) bool {
	switch k {
	case KeySpace:
		return m.ToggleAutoPlay()
	case KeyLeft:
		m.Prev()
		return true
	case KeyRight:
		m.Next()
		return true
	case KeyEnter:
		return m.Reveal()
	case KeyEscape:
		if m.st.Mode != model.ModeTest {
			return false
		}
		m.ResetCard()
		return true
	}
	return false
}

func (m *Machine) moveTo(index int) {
	m.pending = nil
	n := len(m.deck)
	m.st.Index = ((index % n) + n) % n
	m.resetCard()
}

func (m *Machine) resetCard() {
	m.pending = nil
	m.writeSeq = 0
	m.st.RevealStage = 0
	m.st.Selected = ""
	m.st.HasSelection = false
	m.st.EmphasizeCorrect = false
	m.st.SaveStatus = model.SaveIdle
	m.st.SaveError = ""
	m.st.Remaining = m.CardDuration()
}

func containsChoice(choices []string, choice string) bool {
	for _, c := range choices {
		if c == choice {
			return true
		}
	}
	return false
}
