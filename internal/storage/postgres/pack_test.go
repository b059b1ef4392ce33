package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/game/session"
	"github.com/cory-johannsen/quizboss/internal/storage/postgres"
	"github.com/cory-johannsen/quizboss/internal/testutil"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func makePack(t testing.TB, name string, n int) *question.Pack {
	t.Helper()
	qs := make([]*question.Question, 0, n)
	for i := range n {
		qs = append(qs, &question.Question{
			ID:           fmt.Sprintf("q%d", i),
			Topic:        "trivia",
			Difficulty:   question.Difficulty(i % 3),
			Prompt:       fmt.Sprintf("Question %d?", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
			TimeLimit:    time.Duration(5+i) * time.Second,
			Explanation:  "because",
		})
	}
	p, err := question.NewPack(name, qs)
	require.NoError(t, err)
	return p
}

func TestPackRepository_SaveAndGet(t *testing.T) {
	repo := postgres.NewPackRepository(testutil.NewPool(t))
	ctx := context.Background()
	p := makePack(t, uniqueName("pack"), 5)

	require.NoError(t, repo.Save(ctx, p))
	got, err := repo.Get(ctx, p.Name())
	require.NoError(t, err)
	assert.Equal(t, p.Name(), got.Name())
	assert.Equal(t, p.Questions(), got.Questions())
}

func TestPackRepository_SaveReplacesQuestions(t *testing.T) {
	repo := postgres.NewPackRepository(testutil.NewPool(t))
	ctx := context.Background()
	name := uniqueName("pack")

	require.NoError(t, repo.Save(ctx, makePack(t, name, 5)))
	require.NoError(t, repo.Save(ctx, makePack(t, name, 2)))

	got, err := repo.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestPackRepository_GetMissing(t *testing.T) {
	repo := postgres.NewPackRepository(testutil.NewPool(t))
	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, postgres.ErrPackNotFound)
}

func TestPackRepository_LoadPacksAndDelete(t *testing.T) {
	repo := postgres.NewPackRepository(testutil.NewPool(t))
	ctx := context.Background()
	a, b := makePack(t, "Alpha", 1), makePack(t, "Beta", 2)
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Beta"}, names)

	packs, err := repo.LoadPacks(ctx)
	require.NoError(t, err)
	assert.Len(t, packs, 2)
	assert.Equal(t, 2, packs["Beta"].Len())

	require.NoError(t, repo.Delete(ctx, "Alpha"))
	assert.ErrorIs(t, repo.Delete(ctx, "Alpha"), postgres.ErrPackNotFound)
	_, err = repo.Get(ctx, "Alpha")
	assert.ErrorIs(t, err, postgres.ErrPackNotFound)
}

// Property: any valid pack survives a save and load unchanged.
func TestPropertyPackRoundTrip(t *testing.T) {
	repo := postgres.NewPackRepository(testutil.NewPool(t))
	ctx := context.Background()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(rt, "questions")
		p := makePack(t, uniqueName("prop"), n)
		if err := repo.Save(ctx, p); err != nil {
			rt.Fatalf("save: %v", err)
		}
		got, err := repo.Get(ctx, p.Name())
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if got.Len() != n {
			rt.Fatalf("got %d questions, want %d", got.Len(), n)
		}
	})
}

func TestResultRepository_RecordAndRecent(t *testing.T) {
	repo := postgres.NewResultRepository(testutil.NewPool(t))
	ctx := context.Background()
	pack := uniqueName("pack")
	start := time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond)

	first := session.Result{
		SessionID: "7f1c9a3e-3b1a-4f6e-9a40-1c2d3e4f5a6b", Pack: pack, Outcome: session.OutcomeWon,
		Reached: 10, BossHP: 0, Hearts: 3, StartedAt: start, FinishedAt: start.Add(30 * time.Second),
	}
	second := session.Result{
		SessionID: "0e8d4c2b-6a5f-4b3e-8d2c-9f8e7d6c5b4a", Pack: pack, Outcome: session.OutcomeLost,
		Reached: 4, BossHP: 60, Hearts: 0, StartedAt: start, FinishedAt: start.Add(45 * time.Second),
	}
	require.NoError(t, repo.RecordResult(ctx, first))
	require.NoError(t, repo.RecordResult(ctx, second))
	require.NoError(t, repo.RecordResult(ctx, first))

	got, err := repo.Recent(ctx, pack, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.SessionID, got[0].SessionID)
	assert.Equal(t, session.OutcomeLost, got[0].Outcome)
	assert.Equal(t, 10, got[1].Reached)
	assert.True(t, first.FinishedAt.Equal(got[1].FinishedAt))
}
