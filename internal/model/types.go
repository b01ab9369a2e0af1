// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// UnknownGrade is the grade category for attempts that carry no grade.
const UnknownGrade = "unknown"

// VocabularyItem is one study card.
type VocabularyItem struct {
	Word       string
	Definition string
	Example    string
	Choices    []string
	Answer     string
}

// Mode selects how cards are studied.
type Mode int

const (
	ModeFlash Mode = iota
	ModeTest
)

func (m Mode) String() string {
	if m == ModeTest {
		return "test"
	}
	return "flash"
}

// ParseMode maps "test" (any case) to ModeTest and everything else to ModeFlash.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "test") {
		return ModeTest
	}
	return ModeFlash
}

// SaveStatus reports the state of the latest attempt write.
type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SaveSaving
	SaveSaved
	SaveError
)

func (s SaveStatus) String() string {
	switch s {
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	case SaveError:
		return "error"
	default:
		return "idle"
	}
}

// Student identifies who is studying in the current process.
type Student struct {
	ClassCode string
	StudentNo string
	Grade     string
	SessionID string
}

// StudyConfig defines study settings resolved from flags and config.
type StudyConfig struct {
	Student        Student
	Mode           Mode
	SecondsPerCard float64
	SoundOn        bool
	DeckPath       string
}

// AttemptRecord is one logged quiz answer. Records are append-only.
type AttemptRecord struct {
	ClassCode string    `json:"classCode"`
	StudentNo string    `json:"studentNo"`
	Grade     string    `json:"grade,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Mode      string    `json:"mode"`
	Word      string    `json:"word"`
	Selected  string    `json:"selected"`
	Correct   bool      `json:"correct"`
	Choices   []string  `json:"choices"`
	Timestamp time.Time `json:"timestamp"`
}

// VocabStat is the accuracy of one word across filtered attempts.
type VocabStat struct {
	Word    string
	Total   int
	Correct int
	Rate    float64
}

// WrongPattern counts how often a wrong choice was picked for a word.
type WrongPattern struct {
	Word     string
	Selected string
	Count    int
}

// NormalizeGrade maps a missing grade to UnknownGrade.
func NormalizeGrade(grade string) string {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return UnknownGrade
	}
	return grade
}
