// Package assert holds internal invariant checks. They panic in builds
// tagged dfdebug and compile to nothing otherwise.
package assert
