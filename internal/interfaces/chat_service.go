package interfaces

import "context"

// ChatService is the conversational front door: one user message in, one
// composed answer out.
type ChatService interface {
	// HandleRequest processes a user message end to end: classify intents,
	// run the data sub-workflows, compose the answer, persist both
	// conversation turns. Degraded data never produces an error; only a
	// total completion failure does, and even then a generic apology
	// string is returned alongside it.
	HandleRequest(ctx context.Context, userID string, message string) (string, error)

	// HealthCheck verifies the downstream LLM is reachable
	HealthCheck(ctx context.Context) error
}
