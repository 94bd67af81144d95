// Package native loads the vendor module (libuptech.so) and binds its
// C entry points to Go func variables.
//
// The module is bundled into the binary, written to a temporary file on
// first use and opened with dlopen exactly once per process. Adapters in
// adcio, display and mpu resolve their symbol tables through a Resolver
// when they are constructed, so name lookup happens once per symbol.
package native

import (
	"errors"
	"fmt"
)

var (
	// ErrBootstrap wraps every failure of the one-time extract-and-load
	// sequence. It is not retried.
	ErrBootstrap = errors.New("native: bootstrap failed")

	// ErrPayloadMissing means the build did not bundle libuptech.so.
	ErrPayloadMissing = errors.New("native: libuptech.so is not embedded")

	// ErrSymbolNotFound means the loaded module does not export a name the
	// binding needs, i.e. the module version does not match.
	ErrSymbolNotFound = errors.New("native: symbol not found")

	ErrUnsupportedPlatform = errors.New("native: dynamic loading is not supported on this platform")

	// ErrAlreadyLoaded is returned by Configure once the process-wide
	// library has been requested.
	ErrAlreadyLoaded = errors.New("native: library already loaded")
)

// Resolver binds a named entry point of the loaded module.
//
// fptr must point to a func variable whose type is the native signature
// the caller intends to call. The signature is a caller contract: a
// mismatch with the real C prototype is undefined behavior and is not
// detected here.
type Resolver interface {
	Resolve(name string, fptr any) error
}

// Symbol is one entry of an adapter's symbol table.
type Symbol struct {
	Name string
	Fn   any
}

// Sym pairs a symbol name with the func variable it binds.
func Sym(name string, fptr any) Symbol {
	return Symbol{Name: name, Fn: fptr}
}

// Bind resolves every symbol in order and stops at the first failure.
func Bind(r Resolver, syms ...Symbol) error {
	if r == nil {
		return fmt.Errorf("native: nil resolver")
	}
	for _, s := range syms {
		if err := r.Resolve(s.Name, s.Fn); err != nil {
			return err
		}
	}
	return nil
}
