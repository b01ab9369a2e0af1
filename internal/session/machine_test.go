package session

import (
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/sansu/internal/model"
)

func testDeck() []model.VocabularyItem {
	return []model.VocabularyItem{
		{Word: "割合", Choices: []string{"a", "b", "c", "d"}, Answer: "a"},
		{Word: "平均", Choices: []string{"e", "f", "g", "h"}, Answer: "f"},
		{Word: "比", Choices: []string{"i", "j", "k", "l"}, Answer: "l"},
	}
}

func newMachine(t *testing.T, mode model.Mode) *Machine {
	t.Helper()
	m, err := New(testDeck(), Options{Mode: mode, SecondsPerCard: 2})
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}
	return m
}

func TestNewRejectsEmptyDeck(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Fatalf("expected error for empty deck")
	}
}

func TestNewDefaults(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	st := m.State()
	if st.Index != 0 || st.RevealStage != 0 || !st.AutoPlay {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if st.Remaining != 2*time.Second {
		t.Fatalf("expected full countdown, got %v", st.Remaining)
	}

	m = newMachine(t, model.ModeTest)
	if m.State().AutoPlay || m.ClockEnabled() {
		t.Fatalf("test mode should start without auto-play")
	}
}

func TestFlashTickProgression(t *testing.T) {
	m := newMachine(t, model.ModeFlash)

	if step := m.Tick(1900 * time.Millisecond); step != StepNone {
		t.Fatalf("expected no step before expiry, got %v", step)
	}
	if step := m.Tick(100 * time.Millisecond); step != StepReveal {
		t.Fatalf("expected reveal, got %v", step)
	}
	st := m.State()
	if st.RevealStage != 1 || st.Remaining != 2*time.Second {
		t.Fatalf("unexpected state after first expiry: %+v", st)
	}
	if step := m.Tick(2 * time.Second); step != StepReveal {
		t.Fatalf("expected second reveal, got %v", step)
	}
	if step := m.Tick(2 * time.Second); step != StepNextCard {
		t.Fatalf("expected next card, got %v", step)
	}
	st = m.State()
	if st.Index != 1 || st.RevealStage != 0 || st.Remaining != 2*time.Second {
		t.Fatalf("unexpected state after card change: %+v", st)
	}
}

func TestTickOneTransitionPerExpiry(t *testing.T) {
	for _, secs := range []float64{MinSecondsPerCard, DefaultSecondsPerCard, MaxSecondsPerCard} {
		for _, extra := range []time.Duration{0, 50 * time.Millisecond, 10 * time.Second} {
			m, err := New(testDeck(), Options{Mode: model.ModeFlash, SecondsPerCard: secs})
			if err != nil {
				t.Fatalf("new machine: %v", err)
			}
			card := m.CardDuration()
			delta := card + extra
			if step := m.Tick(delta); step != StepReveal {
				t.Fatalf("%.1fs tick %v: expected a single reveal, got %v", secs, delta, step)
			}
			st := m.State()
			if st.RevealStage != 1 || st.Remaining != card {
				t.Fatalf("%.1fs tick %v: stages skipped or countdown not reset: %+v", secs, delta, st)
			}
			m.Tick(card)
			if step := m.Tick(delta); step != StepNextCard {
				t.Fatalf("%.1fs tick %v: expected next card, got %v", secs, delta, step)
			}
			if st := m.State(); st.Index != 1 || st.RevealStage != 0 || st.Remaining != card {
				t.Fatalf("%.1fs tick %v: unexpected state after card change: %+v", secs, delta, st)
			}
		}
	}
}

func TestTickIgnoredWhenPausedOrTest(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	m.HandleKey(KeySpace)
	if m.State().AutoPlay {
		t.Fatalf("space should pause auto-play")
	}
	if step := m.Tick(5 * time.Second); step != StepNone {
		t.Fatalf("paused machine should not step")
	}

	m = newMachine(t, model.ModeTest)
	if step := m.Tick(5 * time.Second); step != StepNone {
		t.Fatalf("test mode should not step")
	}
	if m.State().Remaining != 2*time.Second {
		t.Fatalf("remaining should not change in test mode")
	}
}

func TestNavigationWraps(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	m.HandleKey(KeyLeft)
	if m.State().Index != 2 {
		t.Fatalf("prev from first should wrap to last, got %d", m.State().Index)
	}
	m.HandleKey(KeyRight)
	if m.State().Index != 0 {
		t.Fatalf("next from last should wrap to first, got %d", m.State().Index)
	}
}

func TestRevealCapsAtTwo(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	for i := 0; i < 2; i++ {
		if !m.HandleKey(KeyEnter) {
			t.Fatalf("reveal %d should apply", i+1)
		}
	}
	if m.HandleKey(KeyEnter) {
		t.Fatalf("reveal beyond stage 2 should be a no-op")
	}
	if m.State().RevealStage != 2 {
		t.Fatalf("expected stage 2, got %d", m.State().RevealStage)
	}

	m = newMachine(t, model.ModeTest)
	if m.HandleKey(KeyEnter) {
		t.Fatalf("enter should not reveal in test mode")
	}
}

func TestChooseCorrect(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, ok := m.Choose("a")
	if !ok {
		t.Fatalf("expected selection to apply")
	}
	if !ans.Correct || ans.Advance.Delay != CorrectAdvanceDelay {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	st := m.State()
	if st.Selected != "a" || st.EmphasizeCorrect || st.SaveStatus != model.SaveSaving {
		t.Fatalf("unexpected state: %+v", st)
	}

	if !m.FireAdvance(ans.Advance.Token) {
		t.Fatalf("expected advance to fire")
	}
	st = m.State()
	if st.Index != 1 || st.HasSelection || st.SaveStatus != model.SaveIdle {
		t.Fatalf("unexpected state after advance: %+v", st)
	}
}

func TestChooseWrongLocksCard(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, ok := m.ChooseIndex(1)
	if !ok || ans.Correct || ans.Advance.Delay != WrongAdvanceDelay {
		t.Fatalf("unexpected answer: %+v ok=%v", ans, ok)
	}
	if !m.State().EmphasizeCorrect {
		t.Fatalf("wrong answer should emphasize the correct choice")
	}
	if _, ok := m.Choose("a"); ok {
		t.Fatalf("second selection should be ignored")
	}
	if m.State().Selected != "b" {
		t.Fatalf("selection changed to %q", m.State().Selected)
	}
}

func TestChooseIgnoredInFlashOrUnknownChoice(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	if _, ok := m.Choose("a"); ok {
		t.Fatalf("choose should be ignored in flash mode")
	}
	m = newMachine(t, model.ModeTest)
	if _, ok := m.Choose("zzz"); ok {
		t.Fatalf("unknown choice should be ignored")
	}
	if _, ok := m.ChooseIndex(7); ok {
		t.Fatalf("out of range index should be ignored")
	}
}

func TestAnswerRecord(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, _ := m.Choose("c")
	rec := ans.Record(model.Student{ClassCode: "5-1", StudentNo: "12", Grade: "5"}, model.ModeTest)
	if rec.ClassCode != "5-1" || rec.StudentNo != "12" || rec.Grade != "5" {
		t.Fatalf("unexpected identity: %+v", rec)
	}
	if rec.Mode != "test" || rec.Word != "割合" || rec.Selected != "c" || rec.Correct {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.Choices) != 4 || rec.Choices[0] != "a" {
		t.Fatalf("unexpected choices: %v", rec.Choices)
	}
}

func TestNavigationCancelsPendingAdvance(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, _ := m.Choose("a")
	m.HandleKey(KeyRight)
	if _, ok := m.Pending(); ok {
		t.Fatalf("navigation should cancel pending advance")
	}
	if m.FireAdvance(ans.Advance.Token) {
		t.Fatalf("stale advance should be ignored")
	}
	if m.State().Index != 1 {
		t.Fatalf("expected to stay on card 1, got %d", m.State().Index)
	}
}

func TestModeSwitchCancelsPendingAdvance(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, _ := m.Choose("a")
	m.SetMode(model.ModeFlash)
	if m.FireAdvance(ans.Advance.Token) {
		t.Fatalf("advance should be cancelled by mode switch")
	}
	st := m.State()
	if st.Index != 0 || st.HasSelection || !st.AutoPlay {
		t.Fatalf("unexpected state after mode switch: %+v", st)
	}
}

func TestSetSameModeKeepsCard(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	m.Reveal()
	m.ToggleAutoPlay()
	m.SetMode(model.ModeFlash)
	st := m.State()
	if st.RevealStage != 1 {
		t.Fatalf("same mode should not reset the card")
	}
	if !st.AutoPlay {
		t.Fatalf("same mode should restore auto-play default")
	}
}

func TestEscapeResetsTestCard(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, _ := m.Choose("b")
	if !m.HandleKey(KeyEscape) {
		t.Fatalf("escape should reset in test mode")
	}
	if m.FireAdvance(ans.Advance.Token) {
		t.Fatalf("reset should cancel pending advance")
	}
	st := m.State()
	if st.HasSelection || st.Index != 0 {
		t.Fatalf("unexpected state after reset: %+v", st)
	}
	if _, ok := m.Choose("a"); !ok {
		t.Fatalf("card should accept a new selection after reset")
	}

	f := newMachine(t, model.ModeFlash)
	f.Reveal()
	if f.HandleKey(KeyEscape) {
		t.Fatalf("escape should be ignored in flash mode")
	}
	if f.State().RevealStage != 1 {
		t.Fatalf("escape changed flash card")
	}
}

func TestSpaceIgnoredInTestMode(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	if m.HandleKey(KeySpace) {
		t.Fatalf("space should be ignored in test mode")
	}
	if m.State().AutoPlay {
		t.Fatalf("auto-play enabled in test mode")
	}
}

func TestApplySaveResult(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	ans, _ := m.Choose("a")
	if !m.ApplySaveResult(ans.WriteSeq, nil) {
		t.Fatalf("expected result to apply")
	}
	if m.State().SaveStatus != model.SaveSaved {
		t.Fatalf("expected saved, got %v", m.State().SaveStatus)
	}

	m.Next()
	ans, _ = m.Choose("e")
	if !m.ApplySaveResult(ans.WriteSeq, errors.New("disk full")) {
		t.Fatalf("expected error result to apply")
	}
	st := m.State()
	if st.SaveStatus != model.SaveError || st.SaveError != "disk full" {
		t.Fatalf("unexpected save state: %+v", st)
	}
}

func TestApplySaveResultDropsStaleWrites(t *testing.T) {
	m := newMachine(t, model.ModeTest)
	first, _ := m.Choose("a")
	m.FireAdvance(first.Advance.Token)
	if m.ApplySaveResult(first.WriteSeq, nil) {
		t.Fatalf("result from previous card should be dropped")
	}
	if m.State().SaveStatus != model.SaveIdle {
		t.Fatalf("stale result changed status to %v", m.State().SaveStatus)
	}
}

func TestAdjustSpeed(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	m.AdjustSpeed(0.2)
	if got := m.State().SecondsPerCard; got != 2.2 {
		t.Fatalf("expected 2.2, got %v", got)
	}
	for i := 0; i < 40; i++ {
		m.AdjustSpeed(0.2)
	}
	if got := m.State().SecondsPerCard; got != MaxSecondsPerCard {
		t.Fatalf("expected clamp to max, got %v", got)
	}
	for i := 0; i < 40; i++ {
		m.AdjustSpeed(-0.2)
	}
	if got := m.State().SecondsPerCard; got != MinSecondsPerCard {
		t.Fatalf("expected clamp to min, got %v", got)
	}
}

func TestSetSecondsClampsRemaining(t *testing.T) {
	m := newMachine(t, model.ModeFlash)
	m.Reveal()
	m.SetSecondsPerCard(1)
	st := m.State()
	if st.Remaining != time.Second {
		t.Fatalf("expected remaining clamped to 1s, got %v", st.Remaining)
	}
	if st.RevealStage != 1 {
		t.Fatalf("speed change reset the stage")
	}
	if f := m.RemainingFraction(); f != 1 {
		t.Fatalf("expected fraction 1, got %v", f)
	}
}

func TestClampSeconds(t *testing.T) {
	cases := map[float64]float64{
		0:   MinSecondsPerCard,
		10:  MaxSecondsPerCard,
		3.5: 3.5,
	}
	for in, want := range cases {
		if got := ClampSeconds(in); got != want {
			t.Fatalf("ClampSeconds(%v) = %v, want %v", in, got, want)
		}
	}
}
