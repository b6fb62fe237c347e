package textwire

import (
	"log/slog"
	"reflect"
	"sync"
)

// A Registry maps type aliases written as !alias to Go types. It is
// normally populated once at startup and then shared; it is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byAlias map[string]regEntry
	byType  map[reflect.Type]string

	Logger *slog.Logger
}

type regEntry struct {
	typ reflect.Type
	ptr bool // values were registered as pointers
}

func NewRegistry() *Registry {
	return &Registry{
		byAlias: make(map[string]regEntry),
		byType:  make(map[reflect.Type]string),
	}
}

// Register binds alias to the type of proto. Registering a pointer makes
// reads return pointers.
func (r *Registry) Register(alias string, proto interface{}) {
	if proto == nil {
		panic("textwire: Register of nil prototype")
	}
	t := reflect.TypeOf(proto)
	e := regEntry{typ: t}
	if t.Kind() == reflect.Ptr {
		e = regEntry{typ: t.Elem(), ptr: true}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byAlias[alias]; ok && old.typ != e.typ && r.Logger != nil {
		r.Logger.Warn("textwire: alias rebound", "alias", alias, "old", old.typ.String(), "new", e.typ.String())
	}
	r.byAlias[alias] = e
	r.byType[e.typ] = alias
	r.byType[reflect.PointerTo(e.typ)] = alias
}

// Alias returns the alias registered for the type of v.
func (r *Registry) Alias(v interface{}) (string, bool) {
	return r.alias(reflect.TypeOf(v))
}

func (r *Registry) alias(t reflect.Type) (string, bool) {
	if r == nil || t == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byType[t]
	return a, ok
}

func (r *Registry) resolve(alias string) (regEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byAlias[alias]
	return e, ok
}

// aliasOf names the type of m for a !tag, preferring the registered
// alias over the Go type name.
func (w *Wire) aliasOf(m interface{}) string {
	if a, ok := w.Registry.alias(reflect.TypeOf(m)); ok {
		return a
	}
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
