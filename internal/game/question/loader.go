package question

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// questionDoc is the on-disk shape of one question. Field names follow the
// JSON packs the game shipped with.
type questionDoc struct {
	ID           string     `yaml:"id"`
	Topic        string     `yaml:"topic"`
	Difficulty   Difficulty `yaml:"difficulty"`
	Prompt       string     `yaml:"prompt"`
	Options      []string   `yaml:"options"`
	CorrectIndex int        `yaml:"correctIndex"`
	TimeLimitSec float64    `yaml:"timeLimitSec"`
	Explanation  string     `yaml:"explanation"`
}

type packBody struct {
	Name      string        `yaml:"name"`
	Questions []questionDoc `yaml:"questions"`
}

// packDoc accepts both a bare {name, questions} document and the wrapped
// {pack: {name, questions}} form.
type packDoc struct {
	Pack      *packBody     `yaml:"pack"`
	Name      string        `yaml:"name"`
	Questions []questionDoc `yaml:"questions"`
}

// LoadPackFromBytes parses a pack from YAML or JSON bytes.
//
// Precondition: data holds one pack document.
// Postcondition: Returns a validated *Pack, or an error. Questions without a
// time limit get DefaultTimeLimit; limits are kept to millisecond precision.
func LoadPackFromBytes(data []byte) (*Pack, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc packDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyPack
		}
		return nil, fmt.Errorf("parsing pack: %w", err)
	}

	body := packBody{Name: doc.Name, Questions: doc.Questions}
	if doc.Pack != nil {
		body = *doc.Pack
	}

	qs := make([]*Question, 0, len(body.Questions))
	for _, qd := range body.Questions {
		qs = append(qs, qd.toQuestion())
	}
	return NewPack(body.Name, qs)
}

func (d questionDoc) toQuestion() *Question {
	limit := DefaultTimeLimit
	if d.TimeLimitSec > 0 {
		limit = time.Duration(math.Round(d.TimeLimitSec*1000)) * time.Millisecond
	}
	opts := make([]string, len(d.Options))
	copy(opts, d.Options)
	return &Question{
		ID:           d.ID,
		Topic:        d.Topic,
		Difficulty:   d.Difficulty,
		Prompt:       d.Prompt,
		Options:      opts,
		CorrectIndex: d.CorrectIndex,
		TimeLimit:    limit,
		Explanation:  d.Explanation,
	}
}

// MarshalPack renders p in the bare {name, questions} YAML form.
//
// Postcondition: LoadPackFromBytes(MarshalPack(p)) yields a pack equal to p.
func MarshalPack(p *Pack) ([]byte, error) {
	body := packBody{Name: p.name}
	for _, q := range p.questions {
		body.Questions = append(body.Questions, questionDoc{
			ID:           q.ID,
			Topic:        q.Topic,
			Difficulty:   q.Difficulty,
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			TimeLimitSec: q.TimeLimit.Seconds(),
			Explanation:  q.Explanation,
		})
	}
	out, err := yaml.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshalling pack %q: %w", p.name, err)
	}
	return out, nil
}

// IsPackFile reports whether path has a pack file extension.
func IsPackFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadPacks reads every pack file in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns packs keyed by name, or an error on the first parse
// failure or duplicate name; on error the partial result is discarded.
func LoadPacks(dir string) (map[string]*Pack, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading pack dir %q: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsPackFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	packs := make(map[string]*Pack, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		p, err := LoadPackFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, dup := packs[p.Name()]; dup {
			return nil, fmt.Errorf("loading %q: duplicate pack name %q", path, p.Name())
		}
		packs[p.Name()] = p
	}
	return packs, nil
}
