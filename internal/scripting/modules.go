package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the engine table:
//
//	engine.say(msg)              boss dialogue
//	engine.boss_hp()             returns hp, max_hp
//	engine.set_punish_damage(n)  damage of the next punish attacks
//	engine.log(msg)              info line in the server log
func (e *Encounter) registerModules() {
	L := e.L
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"say": func(L *lua.LState) int {
			e.host.Say(L.CheckString(1))
			return 0
		},
		"boss_hp": func(L *lua.LState) int {
			hp, maxHP := e.host.BossHP()
			L.Push(lua.LNumber(hp))
			L.Push(lua.LNumber(maxHP))
			return 2
		},
		"set_punish_damage": func(L *lua.LState) int {
			e.host.SetPunishDamage(L.CheckInt(1))
			return 0
		},
		"log": func(L *lua.LState) int {
			e.logger.Info("script", zap.String("encounter", e.key), zap.String("msg", L.CheckString(1)))
			return 0
		},
	})
	L.SetGlobal("engine", engine)
}
