package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// Hook names called by CombatHooks.
const (
	HookCombatStart = "on_combat_start"
	HookCombatEnd   = "on_combat_end"
)

// CombatHooks forwards combat lifecycle transitions to Lua. Each hook runs in
// the scope named after the session's monster id, falling back to the
// global scope, and receives a read-only snapshot table of the session.
type CombatHooks struct {
	mgr *Manager
}

// NewCombatHooks returns hooks dispatching to mgr.
//
// Precondition: mgr must be non-nil.
func NewCombatHooks(mgr *Manager) *CombatHooks {
	return &CombatHooks{mgr: mgr}
}

// CombatStarted calls on_combat_start(session).
func (h *CombatHooks) CombatStarted(s *combat.Session) {
	h.call(HookCombatStart, s)
}

// CombatEnded calls on_combat_end(session).
func (h *CombatHooks) CombatEnded(s *combat.Session) {
	h.call(HookCombatEnd, s)
}

func (h *CombatHooks) call(hook string, s *combat.Session) {
	_, _ = h.mgr.callHook(s.Monster.ID, hook, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{sessionTable(L, s)}
	})
}

// sessionTable converts s into:
//
//	{ id, mode, status, round, party_id,
//	  monster = { id, name, level, hp, max_hp },
//	  participants = { { id, name, hp, max_hp }, ... } }
func sessionTable(L *lua.LState, s *combat.Session) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("id", lua.LString(s.ID))
	t.RawSetString("mode", lua.LString(s.Mode.String()))
	t.RawSetString("status", lua.LString(s.Status.String()))
	t.RawSetString("round", lua.LNumber(s.Round))
	t.RawSetString("party_id", lua.LString(s.PartyID))

	m := L.NewTable()
	m.RawSetString("id", lua.LString(s.Monster.ID))
	m.RawSetString("name", lua.LString(s.Monster.Name))
	m.RawSetString("level", lua.LNumber(s.Monster.Level))
	m.RawSetString("hp", lua.LNumber(s.Monster.HP))
	m.RawSetString("max_hp", lua.LNumber(s.Monster.MaxHP))
	t.RawSetString("monster", m)

	ps := L.NewTable()
	for _, p := range s.Participants {
		pt := L.NewTable()
		pt.RawSetString("id", lua.LString(p.ID))
		pt.RawSetString("name", lua.LString(p.Name))
		pt.RawSetString("hp", lua.LNumber(p.HP))
		pt.RawSetString("max_hp", lua.LNumber(p.MaxHP))
		ps.Append(pt)
	}
	t.RawSetString("participants", ps)
	return t
}
