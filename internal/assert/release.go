//go:build !dfdebug

package assert

// Enabled reports whether invariant checks are compiled in
const Enabled = false

// That is a no-op in release builds
func That(cond bool, format string, args ...any) {}
