// Package dice provides the randomness abstraction used by the combat engine:
// coin flips for probabilistic abilities, random reveals, and tie-breaks.
package dice

// Source is the randomness provider for the engine.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Flip returns true on heads. The coin is fair: one Intn(2) draw per call.
//
// Precondition: src must be non-nil.
func Flip(src Source) bool {
	return src.Intn(2) == 1
}

// Pick returns a uniformly chosen index in [0, n).
//
// Precondition: n > 0; src must be non-nil.
func Pick(src Source, n int) int {
	if n == 1 {
		return 0
	}
	return src.Intn(n)
}
