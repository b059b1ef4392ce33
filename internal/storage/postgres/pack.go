package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/quizboss/internal/game/question"
)

// ErrPackNotFound is returned when a pack lookup yields no results.
var ErrPackNotFound = errors.New("pack not found")

// PackRepository stores question packs. Question order within a pack is
// preserved by position.
type PackRepository struct {
	db *pgxpool.Pool
}

// NewPackRepository creates a PackRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPackRepository(db *pgxpool.Pool) *PackRepository {
	return &PackRepository{db: db}
}

// Save inserts p, replacing every question of an existing pack with the
// same name.
//
// Precondition: p must be a validated pack.
// Postcondition: Get(p.Name()) returns a pack equal to p.
func (r *PackRepository) Save(ctx context.Context, p *question.Pack) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning pack transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var packID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO question_packs (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET updated_at = NOW()
		 RETURNING id`,
		p.Name(),
	).Scan(&packID)
	if err != nil {
		return fmt.Errorf("upserting pack %q: %w", p.Name(), err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE pack_id = $1`, packID); err != nil {
		return fmt.Errorf("clearing questions of %q: %w", p.Name(), err)
	}

	rows := make([][]any, 0, p.Len())
	for i, q := range p.Questions() {
		rows = append(rows, []any{
			packID, i, q.ID, q.Topic, strings.ToLower(q.Difficulty.String()),
			q.Prompt, q.Options, q.CorrectIndex, q.TimeLimit.Milliseconds(), q.Explanation,
		})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"questions"},
		[]string{"pack_id", "position", "question_id", "topic", "difficulty",
			"prompt", "options", "correct_index", "time_limit_ms", "explanation"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copying questions of %q: %w", p.Name(), err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing pack %q: %w", p.Name(), err)
	}
	return nil
}

// Get loads the pack called name.
//
// Postcondition: Returns the pack or ErrPackNotFound.
func (r *PackRepository) Get(ctx context.Context, name string) (*question.Pack, error) {
	var packID int64
	err := r.db.QueryRow(ctx, `SELECT id FROM question_packs WHERE name = $1`, name).Scan(&packID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackNotFound
		}
		return nil, fmt.Errorf("querying pack %q: %w", name, err)
	}
	qs, err := r.questions(ctx, packID)
	if err != nil {
		return nil, err
	}
	return question.NewPack(name, qs)
}

// Names returns every stored pack name, sorted.
func (r *PackRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM question_packs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing packs: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning pack names: %w", err)
	}
	return names, nil
}

// LoadPacks reads every stored pack keyed by name.
func (r *PackRepository) LoadPacks(ctx context.Context) (map[string]*question.Pack, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	packs := make(map[string]*question.Pack, len(names))
	for _, name := range names {
		p, err := r.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("loading pack %q: %w", name, err)
		}
		packs[name] = p
	}
	return packs, nil
}

// Delete removes the pack called name and its questions.
//
// Postcondition: Returns ErrPackNotFound if no such pack exists.
func (r *PackRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM question_packs WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting pack %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPackNotFound
	}
	return nil
}

type questionRow struct {
	QuestionID   string
	Topic        string
	Difficulty   string
	Prompt       string
	Options      []string
	CorrectIndex int16
	TimeLimitMS  int32
	Explanation  string
}

func (r *PackRepository) questions(ctx context.Context, packID int64) ([]*question.Question, error) {
	rows, err := r.db.Query(ctx,
		`SELECT question_id, topic, difficulty, prompt, options, correct_index, time_limit_ms, explanation
		 FROM questions WHERE pack_id = $1 ORDER BY position`,
		packID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[questionRow])
	if err != nil {
		return nil, fmt.Errorf("scanning questions: %w", err)
	}
	qs := make([]*question.Question, 0, len(recs))
	for _, rec := range recs {
		qs = append(qs, &question.Question{
			ID:           rec.QuestionID,
			Topic:        rec.Topic,
			Difficulty:   question.ParseDifficulty(rec.Difficulty),
			Prompt:       rec.Prompt,
			Options:      rec.Options,
			CorrectIndex: int(rec.CorrectIndex),
			TimeLimit:    time.Duration(rec.TimeLimitMS) * time.Millisecond,
			Explanation:  rec.Explanation,
		})
	}
	return qs, nil
}
