package edits

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces edit ids.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 edit ids, so ids sort in
// creation order for the sync collaborator.
type UUIDv7Generator struct{}

// Generate panics if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns "<prefix>-1", "<prefix>-2", ... for deterministic
// tests and golden output.
type FixedGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedGenerator returns a generator numbering ids under prefix
// ("edit" when empty).
func NewFixedGenerator(prefix string) *FixedGenerator {
	if prefix == "" {
		prefix = "edit"
	}
	return &FixedGenerator{prefix: prefix}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
