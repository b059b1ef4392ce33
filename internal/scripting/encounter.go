package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Host is the slice of a running fight scripts may touch.
type Host interface {
	// Say shows a line of boss dialogue to the player.
	Say(msg string)
	BossHP() (hp, max int)
	SetPunishDamage(n int)
}

// Encounter is the script state of one session. Not safe for concurrent use;
// the session goroutine owns it.
type Encounter struct {
	L         *lua.LState
	key       string
	host      Host
	instLimit int
	logger    *zap.Logger
	closed    bool
}

// Key returns the encounter key the scripts were selected by.
func (e *Encounter) Key() string { return e.key }

// Call invokes the global Lua function hook with args. A missing hook, a
// closed encounter or a Lua runtime error yields LNil; runtime errors are
// logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (e *Encounter) Call(hook string, args ...lua.LValue) lua.LValue {
	if e.closed {
		return lua.LNil
	}
	fn := e.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil
	}

	release := Limit(e.L, e.instLimit)
	defer release()
	if err := e.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.logger.Warn("scripting: Lua runtime error",
			zap.String("encounter", e.key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := e.L.Get(-1)
	e.L.Pop(1)
	return ret
}

// PhaseChanged calls on_phase_change(from, to).
func (e *Encounter) PhaseChanged(from, to string) {
	e.Call(HookPhaseChange, lua.LString(from), lua.LString(to))
}

// QuestionStarted calls on_question_started(index, text, difficulty).
func (e *Encounter) QuestionStarted(index int, text, difficulty string) {
	e.Call(HookQuestionStarted, lua.LNumber(index), lua.LString(text), lua.LString(difficulty))
}

// WrongAnswer calls on_wrong_answer().
func (e *Encounter) WrongAnswer() {
	e.Call(HookWrongAnswer)
}

// Close releases the Lua state. Safe to call more than once.
func (e *Encounter) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.L.Close()
}
