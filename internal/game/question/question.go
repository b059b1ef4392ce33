// Package question defines trivia questions and the read-only packs they are
// played from.
package question

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// DefaultTimeLimit applies when a question does not set its own limit.
const DefaultTimeLimit = 20 * time.Second

// Difficulty selects the base damage a correct answer deals.
type Difficulty int

const (
	// Medium is the zero value: unknown difficulty strings play as Medium.
	Medium Difficulty = iota
	Easy
	Hard
)

// String returns the difficulty as written in pack files.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "Easy"
	case Hard:
		return "Hard"
	default:
		return "Medium"
	}
}

// ParseDifficulty maps a pack string to a Difficulty. Matching is case
// insensitive and anything other than easy or hard is Medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy
	case "hard":
		return Hard
	default:
		return Medium
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Difficulty) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("difficulty: %w", err)
	}
	*d = ParseDifficulty(s)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Difficulty) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Question is one multiple-choice prompt. Treat it as immutable once loaded.
type Question struct {
	ID           string
	Topic        string
	Difficulty   Difficulty
	Prompt       string
	Options      []string
	CorrectIndex int
	TimeLimit    time.Duration
	Explanation  string
}

// IsCorrect reports whether choice is the right option.
func (q *Question) IsCorrect(choice int) bool {
	return choice == q.CorrectIndex
}

// ValidChoice reports whether choice indexes one of the options.
func (q *Question) ValidChoice(choice int) bool {
	return choice >= 0 && choice < len(q.Options)
}

// Validate checks the question invariants.
//
// Precondition: q must not be nil.
// Postcondition: Returns nil iff ID and Prompt are non-empty, there are exactly
// OptionCount options, CorrectIndex indexes one of them and TimeLimit > 0.
func (q *Question) Validate() error {
	if q.ID == "" {
		return errors.New("question: id must not be empty")
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question %q: prompt must not be empty", q.ID)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("question %q: expected %d options, got %d", q.ID, OptionCount, len(q.Options))
	}
	if !q.ValidChoice(q.CorrectIndex) {
		return fmt.Errorf("question %q: correctIndex %d out of range", q.ID, q.CorrectIndex)
	}
	if q.TimeLimit <= 0 {
		return fmt.Errorf("question %q: time limit must be positive", q.ID)
	}
	return nil
}

// Pack is an ordered, read-only sequence of questions. Insertion order is
// play order.
type Pack struct {
	name      string
	questions []*Question
}

// ErrEmptyPack is returned when a pack has no questions.
var ErrEmptyPack = errors.New("question pack has no questions")

// NewPack validates qs and returns a pack that plays them in order.
//
// Precondition: name must be non-empty.
// Postcondition: Returns a Pack or an error naming the first invalid question.
// Question IDs are unique within the returned pack.
func NewPack(name string, qs []*Question) (*Pack, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("question pack: name must not be empty")
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("pack %q: %w", name, ErrEmptyPack)
	}
	seen := make(map[string]bool, len(qs))
	for i, q := range qs {
		if q == nil {
			return nil, fmt.Errorf("pack %q: question %d is nil", name, i)
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("pack %q: %w", name, err)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("pack %q: duplicate question id %q", name, q.ID)
		}
		seen[q.ID] = true
	}
	owned := make([]*Question, len(qs))
	copy(owned, qs)
	return &Pack{name: name, questions: owned}, nil
}

// Name returns the pack name.
func (p *Pack) Name() string {
	return p.name
}

// Len returns the number of questions.
func (p *Pack) Len() int {
	return len(p.questions)
}

// At returns the question at index i, or false when the pack is exhausted.
func (p *Pack) At(i int) (*Question, bool) {
	if i < 0 || i >= len(p.questions) {
		return nil, false
	}
	return p.questions[i], true
}

// Questions returns a copy of the question list.
func (p *Pack) Questions() []*Question {
	out := make([]*Question, len(p.questions))
	copy(out, p.questions)
	return out
}
