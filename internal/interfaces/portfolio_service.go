package interfaces

import (
	"context"

	"github.com/ternarybob/nivesh/internal/models"
)

// PortfolioService values user holdings against live quotes.
type PortfolioService interface {
	// Analyze prices the given holdings and returns a snapshot. Partial
	// results are normal: unresolvable tickers are reported in the
	// snapshot's Unresolved list, not as an error. The snapshot preserves
	// the caller's holding order.
	Analyze(ctx context.Context, userID string, holdings []models.Holding) (*models.PortfolioSnapshot, error)
}
