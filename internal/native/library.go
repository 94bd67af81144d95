package native

import (
	"fmt"
	"sync"
)

// Library is an opened vendor module. It is never closed; the handle lives
// until the process exits.
type Library struct {
	path   string
	handle uintptr

	mu    sync.Mutex
	addrs map[string]uintptr
}

func openLibrary(path string) (Resolver, error) {
	h, err := dlopen(path)
	if err != nil {
		return nil, err
	}
	return &Library{
		path:   path,
		handle: h,
		addrs:  make(map[string]uintptr),
	}, nil
}

// Path is the file the module was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Resolve looks name up in the export table (once per name) and binds
// *fptr to it.
func (l *Library) Resolve(name string, fptr any) error {
	addr, err := l.lookup(name)
	if err != nil {
		return err
	}
	return bindFunc(fptr, addr, name)
}

func (l *Library) lookup(name string) (uintptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if addr, ok := l.addrs[name]; ok {
		return addr, nil
	}
	addr, err := dlsym(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrSymbolNotFound, name, err)
	}
	if addr == 0 {
		return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	l.addrs[name] = addr
	return addr, nil
}
