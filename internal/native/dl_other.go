//go:build !(darwin || freebsd || linux)

// Skeleton loader for platforms without dlopen. The package still builds;
// every load attempt fails with ErrUnsupportedPlatform.

package native

func dlopen(string) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}

func dlsym(uintptr, string) (uintptr, error) {
	return 0, ErrUnsupportedPlatform
}

func bindFunc(any, uintptr, string) error {
	return ErrUnsupportedPlatform
}
