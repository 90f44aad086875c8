// Package ids mints identifiers for saved filters, batch requests and other
// client-generated records.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out lexicographically sortable identifiers. Ids minted by
// one generator sort in creation order even within a single millisecond.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

var defaultGenerator = NewGenerator()

// New mints an id from the shared process-wide generator.
func New() string { return defaultGenerator.Next() }
