package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// GlobalScope is the directory name and key of the shared script scope.
// CallHook falls back to it when a scope has no VM of its own.
const GlobalScope = "global"

type vm struct {
	L      *lua.LState
	cancel context.CancelFunc
	limit  int
}

// Manager owns one sandboxed LState per scope and dispatches hooks to them.
//
// LStates are not goroutine-safe, so every load and call is serialized by mu.
type Manager struct {
	mu     sync.Mutex
	states map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scopes loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: the scope's VM replaces any previous one; returns an error on
// Lua load failure, leaving the previous VM in place.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, scope, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, scope, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[scope]; ok {
		old.close()
	}
	m.states[scope] = &vm{L: L, cancel: cancel, limit: instLimit}
	m.mu.Unlock()

	m.logger.Debug("scripting: scope loaded", zap.String("scope", scope), zap.Int("files", len(luaFiles)))
	return nil
}

// LoadGlobal loads scriptDir into the global fallback scope.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadScope(GlobalScope, scriptDir, instLimit)
}

// LoadTree loads every immediate subdirectory of root as a scope named after
// the directory. The "global" subdirectory becomes the fallback scope.
//
// Postcondition: returns the loaded scope names in lexicographic order.
func (m *Manager) LoadTree(root string, instLimit int) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	var scopes []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := m.LoadScope(e.Name(), filepath.Join(root, e.Name()), instLimit); err != nil {
			return nil, err
		}
		scopes = append(scopes, e.Name())
	}
	sort.Strings(scopes)
	return scopes, nil
}

// CallHook calls the named Lua global function in scope's VM, falling back to
// the global scope. Returns (LNil, nil) if the hook is not defined or no VM
// exists. Lua runtime errors are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.callHook(scope, hook, func(*lua.LState) []lua.LValue { return args })
}

// callHook is CallHook with arguments built inside the target VM, which is
// required for table arguments.
func (m *Manager) callHook(scope, hook string, build func(L *lua.LState) []lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.states[scope]
	if !ok {
		v = m.states[GlobalScope]
	}
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.cancel()
	v.cancel = resetBudget(v.L, v.limit)

	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(v.L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Scopes returns the loaded scope names in lexicographic order.
func (m *Manager) Scopes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.states))
	for k := range m.states {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Close releases every VM.
//
// Postcondition: no scopes remain; later CallHook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.states {
		v.close()
		delete(m.states, k)
	}
}

func (v *vm) close() {
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}
