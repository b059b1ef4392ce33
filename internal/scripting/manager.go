package scripting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
)

// GlobalKey holds the scripts every encounter runs before its own.
const GlobalKey = "__global__"

// Hook names called by encounters.
const (
	HookPhaseChange     = "on_phase_change"
	HookQuestionStarted = "on_question_started"
	HookWrongAnswer     = "on_wrong_answer"
)

type script struct {
	name  string
	proto *lua.FunctionProto
}

// Manager holds compiled encounter scripts keyed by encounter. Compiled
// chunks are shared read-only; every encounter runs them in its own state.
//
// Manager is safe for concurrent use. Reloading affects only encounters
// created afterwards.
type Manager struct {
	mu        sync.RWMutex
	scripts   map[string][]script
	instLimit int
	logger    *zap.Logger
}

// NewManager creates an empty Manager.
//
// Precondition: logger must be non-nil; instLimit >= 0.
// Postcondition: Returns a Manager with no scripts.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		scripts:   make(map[string][]script),
		instLimit: instLimit,
		logger:    logger,
	}
}

// EncounterKey maps a pack name to its script directory name:
// "General Knowledge" → "general_knowledge".
func EncounterKey(pack string) string {
	fields := strings.Fields(strings.ToLower(pack))
	return strings.Join(fields, "_")
}

// LoadDir compiles every script under dir. Top-level *.lua files form the
// global set; each subdirectory is the script set of the encounter it is
// named after. Files run in lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: On success the previous scripts are replaced as a whole;
// on error nothing changes.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	loaded := make(map[string][]script)

	global, err := compileDir(dir)
	if err != nil {
		return err
	}
	if len(global) > 0 {
		loaded[GlobalKey] = global
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		set, err := compileDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		if len(set) > 0 {
			loaded[e.Name()] = set
		}
	}

	m.mu.Lock()
	m.scripts = loaded
	m.mu.Unlock()
	m.logger.Info("scripts loaded", zap.String("dir", dir), zap.Int("sets", len(loaded)))
	return nil
}

// LoadString compiles src as the script set for key, replacing any set
// already loaded under key.
func (m *Manager) LoadString(key, name, src string) error {
	proto, err := compile(strings.NewReader(src), name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.scripts[key] = []script{{name: name, proto: proto}}
	m.mu.Unlock()
	return nil
}

// Keys returns the loaded script set keys, sorted.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.scripts))
	for k := range m.scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NewEncounter creates a sandboxed state bound to host and runs the global
// scripts followed by the scripts of pack's encounter.
//
// Precondition: host must be non-nil.
// Postcondition: Returns an Encounter the caller must Close, or an error if a
// script failed at load time.
func (m *Manager) NewEncounter(pack string, host Host) (*Encounter, error) {
	if host == nil {
		panic("scripting.Manager.NewEncounter: host must not be nil")
	}
	key := EncounterKey(pack)

	m.mu.RLock()
	sets := append(append([]script(nil), m.scripts[GlobalKey]...), m.scripts[key]...)
	m.mu.RUnlock()

	L := NewSandboxedState()
	e := &Encounter{L: L, key: key, host: host, instLimit: m.instLimit, logger: m.logger}
	e.registerModules()

	for _, s := range sets {
		release := Limit(L, m.instLimit)
		L.Push(L.NewFunctionFromProto(s.proto))
		err := L.PCall(0, lua.MultRet, nil)
		release()
		if err != nil {
			L.Close()
			return nil, fmt.Errorf("scripting: running %q for %q: %w", s.name, key, err)
		}
	}
	return e, nil
}

func compileDir(dir string) ([]script, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	out := make([]script, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("scripting: opening %q: %w", path, err)
		}
		proto, err := compile(f, path)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, script{name: path, proto: proto})
	}
	return out, nil
}

func compile(r io.Reader, name string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(r, name)
	if err != nil {
		return nil, fmt.Errorf("scripting: parsing %q: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("scripting: compiling %q: %w", name, err)
	}
	return proto, nil
}
