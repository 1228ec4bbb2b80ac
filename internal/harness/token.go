package harness

import "github.com/google/uuid"

// TokenGenerator produces session tokens for runs.
//
// A session token labels every trace event and log line of one run so
// concurrent runs over shared sinks (run logs, log streams) stay
// distinguishable.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time, which keeps run-log listings readable.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedTokenGenerator always returns the same token.
//
// This pins the one non-deterministic component of a run, enabling
// byte-identical golden trace comparison. Scenarios set the token in
// YAML; an empty token falls back to "session-default".
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a generator for the given token.
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "session-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
