// Package nativetest provides an in-process stand-in for libuptech.so.
package nativetest

import (
	"fmt"
	"reflect"
	"sync"

	"uptech/internal/native"
)

// Resolver binds symbol names to Go funcs instead of native code. A func
// must have exactly the type of the variable it is bound to.
type Resolver struct {
	mu       sync.Mutex
	funcs    map[string]any
	resolved map[string]int
}

// New returns a Resolver exporting funcs.
func New(funcs map[string]any) *Resolver {
	r := &Resolver{
		funcs:    make(map[string]any, len(funcs)),
		resolved: make(map[string]int),
	}
	for name, fn := range funcs {
		r.funcs[name] = fn
	}
	return r
}

// Set exports (or replaces) one symbol.
func (r *Resolver) Set(name string, fn any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Delete removes a symbol, simulating an older module.
func (r *Resolver) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.funcs, name)
}

// Resolved reports how many times name was bound.
func (r *Resolver) Resolved(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolved[name]
}

func (r *Resolver) Resolve(name string, fptr any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.funcs[name]
	if !ok {
		return fmt.Errorf("%w: %s", native.ErrSymbolNotFound, name)
	}

	dst := reflect.ValueOf(fptr)
	if dst.Kind() != reflect.Pointer || dst.IsNil() || dst.Elem().Kind() != reflect.Func {
		return fmt.Errorf("nativetest: %s: want pointer to func, got %T", name, fptr)
	}
	src := reflect.ValueOf(fn)
	if src.Type() != dst.Elem().Type() {
		return fmt.Errorf("nativetest: %s: have %s, want %s", name, src.Type(), dst.Elem().Type())
	}

	dst.Elem().Set(src)
	r.resolved[name]++
	return nil
}
