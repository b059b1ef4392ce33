package session

import "github.com/jakecoffman/cp"

// CommandKind names a player or operator action.
type CommandKind int

const (
	CmdReady CommandKind = iota
	CmdAnswer
	CmdDodge
	CmdAttack
	CmdContinue
	CmdCancel
	CmdFiftyFifty
	CmdFreeze
	CmdMove
	CmdHome
	CmdPause
	CmdResume
)

var commandNames = map[CommandKind]string{
	CmdReady:      "ready",
	CmdAnswer:     "answer",
	CmdDodge:      "dodge",
	CmdAttack:     "attack",
	CmdContinue:   "continue",
	CmdCancel:     "cancel",
	CmdFiftyFifty: "fifty",
	CmdFreeze:     "freeze",
	CmdMove:       "move",
	CmdHome:       "home",
	CmdPause:      "pause",
	CmdResume:     "resume",
}

func (k CommandKind) String() string {
	if n, ok := commandNames[k]; ok {
		return n
	}
	return "unknown"
}

// Command is one input applied between ticks.
type Command struct {
	Kind CommandKind
	// Choice is the option index of CmdAnswer.
	Choice int
	// Dir is the held direction of CmdMove; zero stops.
	Dir cp.Vector
}
