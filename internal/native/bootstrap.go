package native

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	appLog "uptech/internal/log"
)

// Option configures a Bootstrap.
type Option func(*Bootstrap)

// WithLibraryPath loads an installed module from path instead of
// extracting the embedded one.
func WithLibraryPath(path string) Option {
	return func(b *Bootstrap) { b.libraryPath = path }
}

// WithTempDir sets where the embedded module is extracted ("" = os.TempDir).
func WithTempDir(dir string) Option {
	return func(b *Bootstrap) { b.tempDir = dir }
}

// WithPayload replaces the embedded module source.
func WithPayload(fn func() ([]byte, error)) Option {
	return func(b *Bootstrap) { b.payload = fn }
}

// WithLoader replaces dlopen. Tests use it to count loads.
func WithLoader(fn func(path string) (Resolver, error)) Option {
	return func(b *Bootstrap) { b.load = fn }
}

// Bootstrap makes the vendor module available for symbol lookup exactly
// once, however many callers ask for it.
type Bootstrap struct {
	libraryPath string
	tempDir     string
	payload     func() ([]byte, error)
	load        func(path string) (Resolver, error)

	once    func() (Resolver, error)
	started atomic.Bool
}

// NewBootstrap returns a Bootstrap that has not loaded anything yet.
func NewBootstrap(opts ...Option) *Bootstrap {
	b := &Bootstrap{
		payload: Payload,
		load:    openLibrary,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.once = sync.OnceValues(b.bootstrap)
	return b
}

// Library returns the loaded module. The first call extracts and loads it;
// concurrent first callers wait for that single run and every caller sees
// the same handle, or the same error.
func (b *Bootstrap) Library() (Resolver, error) {
	b.started.Store(true)
	return b.once()
}

func (b *Bootstrap) bootstrap() (Resolver, error) {
	if b.libraryPath != "" {
		appLog.Info("loading native library", "path", b.libraryPath)
		lib, err := b.load(b.libraryPath)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s: %w", ErrBootstrap, b.libraryPath, err)
		}
		return lib, nil
	}

	data, err := b.payload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}

	path, err := extract(b.tempDir, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBootstrap, err)
	}
	// The mapping outlives the file; nothing is left behind in the temp dir.
	defer os.Remove(path)

	appLog.Debug("loading embedded native library", "path", path, "bytes", len(data))
	lib, err := b.load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", ErrBootstrap, path, err)
	}
	appLog.Info("native library loaded", "bytes", len(data))
	return lib, nil
}

// extract writes data to a new, uniquely named file in dir.
func extract(dir string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, "libuptech-*.so")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(name, 0o500); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	return name, nil
}

var (
	defaultMu   sync.Mutex
	defaultBoot = NewBootstrap()
)

// Configure replaces the options of the process-wide bootstrap. It must
// run before the first Default call.
func Configure(opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBoot.started.Load() {
		return ErrAlreadyLoaded
	}
	defaultBoot = NewBootstrap(opts...)
	return nil
}

// Default returns the process-wide library. A bootstrap failure cannot be
// recovered from, so it panics.
func Default() Resolver {
	defaultMu.Lock()
	b := defaultBoot
	b.started.Store(true)
	defaultMu.Unlock()

	lib, err := b.Library()
	if err != nil {
		appLog.Error("native library bootstrap failed; check that libuptech.so is embedded or library.path is set", err)
		panic(err)
	}
	return lib
}
