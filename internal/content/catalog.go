// Package content resolves question packs for new sessions and keeps them
// fresh while the server runs.
package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/scripting"
)

// ErrPackNotFound is returned when no loaded pack matches a name.
var ErrPackNotFound = errors.New("pack not found")

// Loader reads the full set of packs from a backing store.
type Loader interface {
	LoadPacks(ctx context.Context) (map[string]*question.Pack, error)
}

// DirLoader reads packs from YAML and JSON files in a directory.
type DirLoader struct {
	Dir string
}

// LoadPacks implements Loader.
func (d DirLoader) LoadPacks(context.Context) (map[string]*question.Pack, error) {
	return question.LoadPacks(d.Dir)
}

// Catalog is the set of packs new sessions choose from. Reload swaps the set
// as a whole; packs already handed to sessions are never mutated.
//
// Catalog is safe for concurrent use.
type Catalog struct {
	loader Loader
	logger *zap.Logger

	mu    sync.RWMutex
	packs map[string]*question.Pack
	// keys maps an encounter key ("general_knowledge") to the pack name.
	keys map[string]string
}

// NewCatalog creates an empty Catalog. Call Reload to fill it.
//
// Precondition: loader and logger must be non-nil.
func NewCatalog(loader Loader, logger *zap.Logger) *Catalog {
	if loader == nil || logger == nil {
		panic("content.NewCatalog: loader and logger must not be nil")
	}
	return &Catalog{
		loader: loader,
		logger: logger,
		packs:  map[string]*question.Pack{},
		keys:   map[string]string{},
	}
}

// Reload reads every pack from the loader.
//
// Postcondition: On success the catalog holds exactly the loaded packs; on
// error it keeps the previous set.
func (c *Catalog) Reload(ctx context.Context) error {
	packs, err := c.loader.LoadPacks(ctx)
	if err != nil {
		return fmt.Errorf("reloading packs: %w", err)
	}
	c.Replace(packs)
	c.logger.Info("packs loaded", zap.Int("count", len(packs)))
	return nil
}

// Replace installs packs as the catalog contents.
func (c *Catalog) Replace(packs map[string]*question.Pack) {
	keys := make(map[string]string, len(packs))
	for name := range packs {
		keys[scripting.EncounterKey(name)] = name
	}
	c.mu.Lock()
	c.packs = packs
	c.keys = keys
	c.mu.Unlock()
}

// Pack returns the pack called name. The lookup falls back to the pack's
// encounter key so "general knowledge" and "general_knowledge" both find
// "General Knowledge".
func (c *Catalog) Pack(name string) (*question.Pack, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, ok := c.packs[name]; ok {
		return p, nil
	}
	if full, ok := c.keys[scripting.EncounterKey(name)]; ok {
		return c.packs[full], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrPackNotFound, name)
}

// Names returns the loaded pack names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.packs))
	for name := range c.packs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded packs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.packs)
}
