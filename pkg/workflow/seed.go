package workflow

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// SeedSource draws a fresh seed. It is called once per seeded input and never cached.
type SeedSource func() (uint64, error)

// RandomSeed returns a cryptographically random seed in [1, 2^64-1].
func RandomSeed() (uint64, error) {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("failed to draw seed: %w", err)
		}
		if seed := binary.LittleEndian.Uint64(buf[:]); seed != 0 {
			return seed, nil
		}
	}
}
