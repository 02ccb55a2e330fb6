package common

import "math/rand/v2"

// Hash64 mixes a seed and an index into a well distributed value
// (splitmix64 finalizer). Same inputs, same output.
func Hash64(seed, n uint64) uint64 {
	z := seed + (n+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Unit maps Hash64(seed, n) into [0,1).
func Unit(seed, n uint64) float64 {
	return float64(Hash64(seed, n)>>11) / (1 << 53)
}

// NewRand returns an independent generator for one simulation instance.
// Two generators built from the same seed produce the same stream.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, Hash64(seed, 0)))
}
