package permute

import (
	"math/rand"
)

// SubSeed derives the stream seed for one permutation index from the base
// seed using a splitmix64 finalizer. Seeds are bound to indices, never to
// workers, so the draw for permutation i is the same no matter which
// goroutine runs it or how many run beside it.
func SubSeed(base int64, index int) int64 {
	z := uint64(base) + (uint64(index)+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// Stream returns the RNG stream for one permutation index.
func Stream(base int64, index int) *rand.Rand {
	return rand.New(rand.NewSource(SubSeed(base, index)))
}

// Perm draws a permutation of [0,n) from the stream via Fisher-Yates.
func Perm(rng *rand.Rand, n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}
