package testutil

// DefaultSessionID is used when a scenario names no session.
const DefaultSessionID = "test-session-default"

// FixedSessionGenerator returns the same session id on every call. It
// satisfies engine.IDGenerator.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator returns a generator for id, or for
// DefaultSessionID when id is empty.
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
