package scripting

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/pantheon/internal/game/dice"
)

// globalScopeID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScopeID = "__global__"

// vm is one LState and the lock that serializes access to it.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	closed bool
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.L.Close()
		v.closed = true
	}
}

// Manager owns one sandboxed LState per scope and exposes hook dispatch.
// A scope is a named group of scripts, normally one persona's. A scope with
// no VM of its own resolves against the global VM.
//
// Manager is safe for concurrent use. Calls into the same VM are serialized;
// different VMs run concurrently.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	src    dice.Source
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	if src == nil {
		panic("scripting.NewManager: src must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		src:    src,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scopeID, registers the engine module,
// then executes every *.lua file in dir of fsys in lexicographic order.
// A previous VM for scopeID is replaced.
//
// Precondition: scopeID must be non-empty; dir must be readable in fsys.
// Postcondition: Scope VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScope(scopeID string, fsys fs.FS, dir string, instLimit int) error {
	if scopeID == "" {
		return fmt.Errorf("scripting: scope id must not be empty")
	}
	return m.loadInto(scopeID, fsys, dir, instLimit)
}

// LoadGlobal creates the global VM, which CallHook uses when the requested
// scope has no VM of its own.
//
// Precondition: dir must be readable in fsys.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(fsys fs.FS, dir string, instLimit int) error {
	return m.loadInto(globalScopeID, fsys, dir, instLimit)
}

func (m *Manager) loadInto(key string, fsys fs.FS, dir string, instLimit int) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, key, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, p := range luaFiles {
		if err := m.doFile(L, fsys, p, instLimit); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", p, key, err)
		}
	}

	m.mu.Lock()
	old := m.states[key]
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Debug("scripting: loaded scripts",
		zap.String("scope", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

func (m *Manager) doFile(L *lua.LState, fsys fs.FS, p string, instLimit int) error {
	src, err := fs.ReadFile(fsys, p)
	if err != nil {
		return err
	}
	fn, err := L.Load(strings.NewReader(string(src)), p)
	if err != nil {
		return err
	}
	release := Budget(L, instLimit)
	defer release()
	L.Push(fn)
	return L.PCall(0, lua.MultRet, nil)
}

// CallHook calls the named Lua global function in scopeID's VM. If the scope has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never
// propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scopeID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	v, ok := m.states[scopeID]
	if !ok {
		v = m.states[globalScopeID]
	}
	m.mu.RUnlock()

	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scopeID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return lua.LNil, nil
	}

	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := Budget(v.L, v.limit)
	defer release()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scopeID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret, nil
}

// Close shuts down every VM. CallHook afterwards returns (LNil, nil).
func (m *Manager) Close() {
	m.mu.Lock()
	states := m.states
	m.states = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range states {
		v.close()
	}
}
