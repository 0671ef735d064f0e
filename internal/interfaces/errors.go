package interfaces

import "errors"

// Sentinel errors shared across services. Callers match with errors.Is;
// services wrap with context via fmt.Errorf("...: %w", err).
var (
	// ErrDataUnavailable is returned when every provider in the fallback
	// chain failed to produce a usable quote for a symbol.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrClassificationFailure indicates a message matched no intent rule
	// and carried no conversational signal. It maps to a clarification
	// prompt, never to a failed request.
	ErrClassificationFailure = errors.New("query classification failed")

	// ErrMemoryUnavailable indicates the conversation store or vector
	// store could not serve a recall request. Callers degrade to empty
	// context rather than failing.
	ErrMemoryUnavailable = errors.New("conversation memory unavailable")
)
