/*package rand supplies explicit random number generator handles. Every kernel
that needs randomness takes a *Generator argument instead of reading from a
process-wide source, so deposition and QED kernels stay independently testable
and each worker goroutine can own an uncontended generator.
*/
package rand

import (
	"log"
	"math"
	grand "math/rand"
	"time"
)

type Algorithm int

const (
	Xorshift Algorithm = iota
	Tausworthe
	Golang
)

// Generator produces uniform random draws. It is not safe for concurrent use;
// create one per worker.
type Generator struct {
	alg Algorithm

	// Xorshift state.
	x uint64

	// Tausworthe state.
	s1, s2, s3 uint32

	// Golang state.
	src *grand.Rand
}

// New creates a Generator using the given algorithm and seed.
func New(alg Algorithm, seed uint64) *Generator {
	gen := &Generator{alg: alg}
	gen.Seed(seed)
	return gen
}

// NewTimeSeed creates a Generator seeded with the current time.
func NewTimeSeed(alg Algorithm) *Generator {
	return New(alg, uint64(time.Now().UnixNano()))
}

// Seed resets the generator state from the given seed.
func (gen *Generator) Seed(seed uint64) {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}

	switch gen.alg {
	case Xorshift:
		gen.x = seed
	case Tausworthe:
		// Taus88 requires each component seed to exceed its k value.
		gen.s1 = uint32(seed) | 16
		gen.s2 = uint32(seed>>16) | 16
		gen.s3 = uint32(seed>>32) | 16
	case Golang:
		gen.src = grand.New(grand.NewSource(int64(seed)))
	default:
		log.Fatalf("Unrecognized rand.Algorithm, %d.", gen.alg)
	}
}

func (gen *Generator) next() uint64 {
	switch gen.alg {
	case Xorshift:
		// xorshift64* (Vigna 2014).
		x := gen.x
		x ^= x >> 12
		x ^= x << 25
		x ^= x >> 27
		gen.x = x
		return x * 0x2545F4914F6CDD1D
	case Tausworthe:
		gen.s1 = ((gen.s1 & 0xFFFFFFFE) << 12) ^ (((gen.s1 << 13) ^ gen.s1) >> 19)
		gen.s2 = ((gen.s2 & 0xFFFFFFF8) << 4) ^ (((gen.s2 << 2) ^ gen.s2) >> 25)
		gen.s3 = ((gen.s3 & 0xFFFFFFF0) << 17) ^ (((gen.s3 << 3) ^ gen.s3) >> 11)
		// taus88 emits 32 bits per step; both halves of the output word
		// must carry them so modulus and high-bit consumers see the
		// full stream.
		v := uint64(gen.s1 ^ gen.s2 ^ gen.s3)
		return v<<32 | v
	default:
		return gen.src.Uint64()
	}
}

// Uniform returns a uniform draw in [low, high).
func (gen *Generator) Uniform(low, high float64) float64 {
	u := float64(gen.next()>>11) / (1 << 53)
	return low + u*(high-low)
}

// UniformInt returns a uniform integer draw in [low, high).
func (gen *Generator) UniformInt(low, high int) int {
	return low + int(gen.next()%uint64(high-low))
}

// Exponential returns a draw from the unit exponential distribution,
// -ln(1 - U) for U uniform in [0, 1).
func (gen *Generator) Exponential() float64 {
	return -math.Log(1 - gen.Uniform(0, 1))
}
