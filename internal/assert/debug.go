//go:build dfdebug

package assert

import "fmt"

// Enabled reports whether invariant checks are compiled in
const Enabled = true

// That panics with a formatted message when cond is false
func That(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
