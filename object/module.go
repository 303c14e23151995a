package object

import (
	"fmt"
	"sync"

	"github.com/lumen-lang/lumen/values"
)

// Module is a live module object (spec.md §3.1 Module variant, §6 import
// system): a named global namespace populated by running its top-level
// CodeObject once and caching the result (spec.md's import caches modules
// by qualified name so repeated `import x` is a no-op after the first).
type Module struct {
	Name string
	File string

	mu      sync.RWMutex
	Globals map[string]*values.Value
}

func NewModule(name, file string) *Module {
	return &Module{Name: name, File: file, Globals: make(map[string]*values.Value)}
}

func NewModuleValue(m *Module) *values.Value {
	return &values.Value{Kind: values.KindModule, Data: m}
}

func ModuleOf(v *values.Value) (*Module, bool) {
	if v.Kind != values.KindModule {
		return nil, false
	}
	m, ok := v.Data.(*Module)
	return m, ok
}

func (m *Module) Get(name string) (*values.Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.Globals[name]
	return v, ok
}

func (m *Module) Set(name string, v *values.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Globals[name] = v
}

// Delete implements `del` on a global name (spec.md §4.1 DELETE_GLOBAL).
func (m *Module) Delete(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Globals[name]; !ok {
		return false
	}
	delete(m.Globals, name)
	return true
}

// Names returns every bound name, used by IMPORT_STAR and the `dir()`
// builtin (spec.md SUPPLEMENTED FEATURES).
func (m *Module) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.Globals))
	for n := range m.Globals {
		names = append(names, n)
	}
	return names
}

func (m *Module) DisplayStr() string { return m.DisplayRepr() }
func (m *Module) DisplayRepr() string {
	if m.File == "" {
		return fmt.Sprintf("<module '%s' (built-in)>", m.Name)
	}
	return fmt.Sprintf("<module '%s' from '%s'>", m.Name, m.File)
}

// ModuleRegistry caches loaded modules by qualified name, grounded on the
// teacher's sync.Map-backed ClassManager idiom (vm/class_manager.go) rather
// than a plain map plus an external mutex.
type ModuleRegistry struct {
	modules sync.Map // map[string]*Module
}

func NewModuleRegistry() *ModuleRegistry { return &ModuleRegistry{} }

func (r *ModuleRegistry) Get(name string) (*Module, bool) {
	if v, ok := r.modules.Load(name); ok {
		return v.(*Module), true
	}
	return nil, false
}

func (r *ModuleRegistry) Store(name string, m *Module) {
	r.modules.Store(name, m)
}
