package handlers

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/quizboss/internal/game/question"
	"github.com/cory-johannsen/quizboss/internal/game/session"
)

// Local identifies verbs the console answers itself instead of forwarding
// to the session.
type Local int

const (
	// LocalNone means Parsed.Command should be sent to the session.
	LocalNone Local = iota
	LocalHelp
	LocalStatus
	LocalQuit
)

var (
	// ErrUnknownCommand is returned for input no verb matches.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrBadArgument is returned when a verb's argument cannot be parsed.
	ErrBadArgument = errors.New("bad argument")
)

// Parsed is one line of player input resolved to an action.
type Parsed struct {
	Command session.Command
	Local   Local
}

// Verb is a console command with its aliases and help text.
type Verb struct {
	Name     string
	Aliases  []string
	Usage    string
	Help     string
	Category string
	parse    func(args []string) (Parsed, error)
}

// Category names used by help.
const (
	CategoryQuiz   = "Quiz"
	CategoryCombat = "Combat"
	CategoryMove   = "Movement"
	CategoryGame   = "Game"
)

// Registry maps verb names and aliases to verbs.
type Registry struct {
	verbs   map[string]*Verb
	aliases map[string]string
}

// NewRegistry builds a Registry from verbs.
//
// Precondition: No two verbs may share a name or alias.
// Postcondition: Returns a Registry or an error naming the collision.
func NewRegistry(verbs []Verb) (*Registry, error) {
	r := &Registry{
		verbs:   make(map[string]*Verb, len(verbs)),
		aliases: make(map[string]string),
	}
	taken := func(name string) bool {
		_, v := r.verbs[name]
		_, a := r.aliases[name]
		return v || a
	}
	for i := range verbs {
		v := &verbs[i]
		if taken(v.Name) {
			return nil, fmt.Errorf("duplicate verb name %q", v.Name)
		}
		r.verbs[v.Name] = v
		for _, alias := range v.Aliases {
			if taken(alias) {
				return nil, fmt.Errorf("alias %q of %q is already taken", alias, v.Name)
			}
			r.aliases[alias] = v.Name
		}
	}
	return r, nil
}

// DefaultRegistry returns a Registry with every built-in verb.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinVerbs())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a verb by name or alias.
func (r *Registry) Resolve(word string) (*Verb, bool) {
	if v, ok := r.verbs[word]; ok {
		return v, true
	}
	if name, ok := r.aliases[word]; ok {
		return r.verbs[name], true
	}
	return nil, false
}

// Verbs returns every verb sorted by category, then name.
func (r *Registry) Verbs() []*Verb {
	out := make([]*Verb, 0, len(r.verbs))
	for _, v := range r.verbs {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Parse resolves line to an action. A bare option letter (A-D) or number
// (1-4) answers the open question.
//
// Postcondition: Returns ErrUnknownCommand or a wrapped ErrBadArgument on
// input that maps to no action.
func (r *Registry) Parse(line string) (Parsed, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Parsed{}, ErrUnknownCommand
	}
	if len(fields) == 1 {
		if choice, ok := parseChoice(fields[0]); ok {
			return send(session.Command{Kind: session.CmdAnswer, Choice: choice}), nil
		}
	}
	v, ok := r.Resolve(fields[0])
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	return v.parse(fields[1:])
}

// parseChoice maps "a".."d" and "1".."4" to an option index.
func parseChoice(s string) (int, bool) {
	if len(s) == 1 && s[0] >= 'a' && s[0] < 'a'+question.OptionCount {
		return int(s[0] - 'a'), true
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= question.OptionCount {
		return n - 1, true
	}
	return 0, false
}

func send(cmd session.Command) Parsed { return Parsed{Command: cmd} }

func simple(kind session.CommandKind) func([]string) (Parsed, error) {
	return func([]string) (Parsed, error) { return send(session.Command{Kind: kind}), nil }
}

func local(l Local) func([]string) (Parsed, error) {
	return func([]string) (Parsed, error) { return Parsed{Local: l}, nil }
}

var directions = map[string]cp.Vector{
	"up":    {X: 0, Y: 1},
	"north": {X: 0, Y: 1},
	"down":  {X: 0, Y: -1},
	"south": {X: 0, Y: -1},
	"left":  {X: -1, Y: 0},
	"west":  {X: -1, Y: 0},
	"right": {X: 1, Y: 0},
	"east":  {X: 1, Y: 0},
	"stop":  {},
}

func move(dir string) func([]string) (Parsed, error) {
	return func([]string) (Parsed, error) {
		return send(session.Command{Kind: session.CmdMove, Dir: directions[dir]}), nil
	}
}

func parseAnswer(args []string) (Parsed, error) {
	if len(args) != 1 {
		return Parsed{}, fmt.Errorf("%w: answer takes one option, A to D", ErrBadArgument)
	}
	choice, ok := parseChoice(args[0])
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q is not an option", ErrBadArgument, args[0])
	}
	return send(session.Command{Kind: session.CmdAnswer, Choice: choice}), nil
}

func parseMove(args []string) (Parsed, error) {
	if len(args) != 1 {
		return Parsed{}, fmt.Errorf("%w: move takes a direction", ErrBadArgument)
	}
	dir, ok := directions[args[0]]
	if !ok {
		return Parsed{}, fmt.Errorf("%w: %q is not a direction", ErrBadArgument, args[0])
	}
	return send(session.Command{Kind: session.CmdMove, Dir: dir}), nil
}

// BuiltinVerbs returns the console's verb table.
func BuiltinVerbs() []Verb {
	return []Verb{
		{Name: "answer", Aliases: []string{"ans"}, Usage: "answer <A-D>", Help: "Answer the open question (or just type the letter).", Category: CategoryQuiz, parse: parseAnswer},
		{Name: "continue", Aliases: []string{"next"}, Usage: "continue", Help: "Move on to the next question.", Category: CategoryQuiz, parse: simple(session.CmdContinue)},
		{Name: "cancel", Usage: "cancel", Help: "Skip the open question for one attack charge.", Category: CategoryQuiz, parse: simple(session.CmdCancel)},
		{Name: "fifty", Aliases: []string{"50"}, Usage: "fifty", Help: "Hide two wrong options (costs 1 focus).", Category: CategoryQuiz, parse: simple(session.CmdFiftyFifty)},
		{Name: "freeze", Usage: "freeze", Help: "Stop the question clock for a moment (costs 1 focus).", Category: CategoryQuiz, parse: simple(session.CmdFreeze)},

		{Name: "dodge", Aliases: []string{"dash", "x"}, Usage: "dodge", Help: "Dash out of the way. Time it with DODGE NOW! for a perfect dodge.", Category: CategoryCombat, parse: simple(session.CmdDodge)},
		{Name: "attack", Aliases: []string{"hit", "f"}, Usage: "attack", Help: "Swing at the boss. Lands harder during a Power Play.", Category: CategoryCombat, parse: simple(session.CmdAttack)},

		{Name: "move", Aliases: []string{"go"}, Usage: "move <up|down|left|right|stop>", Help: "Start walking in a direction.", Category: CategoryMove, parse: parseMove},
		{Name: "up", Aliases: []string{"north", "n"}, Usage: "up", Help: "Walk up.", Category: CategoryMove, parse: move("up")},
		{Name: "down", Aliases: []string{"south", "s"}, Usage: "down", Help: "Walk down.", Category: CategoryMove, parse: move("down")},
		{Name: "left", Aliases: []string{"west", "w"}, Usage: "left", Help: "Walk left.", Category: CategoryMove, parse: move("left")},
		{Name: "right", Aliases: []string{"east", "e"}, Usage: "right", Help: "Walk right.", Category: CategoryMove, parse: move("right")},
		{Name: "stop", Usage: "stop", Help: "Stand still.", Category: CategoryMove, parse: move("stop")},
		{Name: "home", Aliases: []string{"station"}, Usage: "home", Help: "Walk back to the answer station.", Category: CategoryMove, parse: simple(session.CmdHome)},

		{Name: "ready", Aliases: []string{"r"}, Usage: "ready", Help: "Toggle ready while standing in the station.", Category: CategoryGame, parse: simple(session.CmdReady)},
		{Name: "pause", Usage: "pause", Help: "Pause the fight.", Category: CategoryGame, parse: simple(session.CmdPause)},
		{Name: "resume", Aliases: []string{"unpause"}, Usage: "resume", Help: "Resume a paused fight.", Category: CategoryGame, parse: simple(session.CmdResume)},
		{Name: "status", Aliases: []string{"st", "look", "l"}, Usage: "status", Help: "Show the boss, your hearts and the question clock.", Category: CategoryGame, parse: local(LocalStatus)},
		{Name: "help", Aliases: []string{"?", "h"}, Usage: "help", Help: "List commands.", Category: CategoryGame, parse: local(LocalHelp)},
		{Name: "quit", Aliases: []string{"exit", "q"}, Usage: "quit", Help: "Leave the fight.", Category: CategoryGame, parse: local(LocalQuit)},
	}
}
