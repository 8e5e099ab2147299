package ledger

import (
	"crypto/rand"
	"fmt"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// randToken returns n random base-36 characters.
func randToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return string(buf)
}

// pseudoHash returns the decorative transaction hash: a short random
// hex-like token, truncated display style. Collisions are possible and
// unguarded.
func pseudoHash() string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("rand failed: %v", err))
	}
	for i, b := range buf {
		buf[i] = hex[int(b)%len(hex)]
	}
	return "0x" + string(buf) + "..."
}
