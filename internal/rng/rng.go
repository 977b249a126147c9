// Package rng provides the reproducible pseudo-random stream used for
// choice shuffling. The display order of choices is a pure function of this
// stream, so the hash and generator below must not change: FNV-1a seeds a
// mulberry32 generator, and a Fisher-Yates shuffle consumes it.
package rng

// Hash returns the 32-bit FNV-1a hash of s.
func Hash(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Stream is a mulberry32 generator. The zero value is a valid stream seeded
// with zero; use New to seed from a string.
type Stream struct {
	state uint32
}

// New returns a stream seeded from the FNV-1a hash of seed. Equal seeds
// always produce identical streams.
func New(seed string) *Stream {
	return &Stream{state: Hash(seed)}
}

// Float64 returns the next uniform value in [0, 1).
func (s *Stream) Float64() float64 {
	s.state += 0x6d2b79f5
	z := s.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / (1 << 32)
}

// Shuffle permutes n elements with a Fisher-Yates pass driven by the stream,
// calling swap for each exchange.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(s.Float64() * float64(i+1))
		swap(i, j)
	}
}
