//go:build darwin || freebsd || linux

// dlopen-backed loader.
//
// purego calls into the module without cgo, so the same binary builds with
// CGO_ENABLED=0 for the board.

package native

import (
	"fmt"

	"github.com/ebitengine/purego"
)

func dlopen(path string) (uintptr, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("native: dlopen %s: %w", path, err)
	}
	return h, nil
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

// bindFunc turns the panic purego raises for unsupported signatures into
// an error.
func bindFunc(fptr any, addr uintptr, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native: bind %s: %v", name, r)
		}
	}()
	purego.RegisterFunc(fptr, addr)
	return nil
}
