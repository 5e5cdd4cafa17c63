// Package random provides cryptographic seed generation helpers.
//
// It uses crypto/rand to generate high-entropy root seeds for fresh
// recordings and forks. Everything downstream of a root seed is
// deterministic; only the root itself is drawn from the OS entropy pool.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random root seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
