package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/nivesh/internal/models"
)

// formatQuote formats a quote as markdown
func formatQuote(quote *models.Quote) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", quote.Symbol))
	sb.WriteString(fmt.Sprintf("**Price:** %s %.2f\n", quote.Currency, quote.Price))
	sb.WriteString(fmt.Sprintf("**Change:** %+.2f (%+.2f%%)\n", quote.Change, quote.ChangePct))
	sb.WriteString(fmt.Sprintf("**As of:** %s\n", quote.Timestamp.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Source:** %s\n", quote.Provider))
	return sb.String()
}

// formatPortfolio formats a portfolio snapshot as markdown
func formatPortfolio(snapshot *models.PortfolioSnapshot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Portfolio Valuation (%d positions)\n\n", len(snapshot.Positions)))

	for i, position := range snapshot.Positions {
		if position.Quote == nil {
			sb.WriteString(fmt.Sprintf("%d. **%s** x %.2f - price unavailable\n", i+1, position.Ticker, position.Quantity))
			continue
		}
		sb.WriteString(fmt.Sprintf("%d. **%s** x %.2f @ %.2f = %.2f\n",
			i+1, position.Ticker, position.Quantity, position.Quote.Price, position.Value))
	}

	sb.WriteString(fmt.Sprintf("\n**Total:** %s %.2f\n", snapshot.Currency, snapshot.TotalValue))
	if len(snapshot.Unresolved) > 0 {
		sb.WriteString(fmt.Sprintf("**Excluded (no price):** %s\n", strings.Join(snapshot.Unresolved, ", ")))
	}
	sb.WriteString(fmt.Sprintf("**As of:** %s\n", snapshot.AsOf.Format(time.RFC3339)))
	return sb.String()
}

// formatAlertReport formats fired and active alerts as markdown
func formatAlertReport(fired, active []models.Alert) string {
	var sb strings.Builder

	if len(fired) > 0 {
		sb.WriteString(fmt.Sprintf("## Alerts Fired (%d)\n\n", len(fired)))
		for _, alert := range fired {
			sb.WriteString(fmt.Sprintf("- **%s** %s %.2f", alert.Symbol, alert.Direction, alert.ThresholdPrice))
			if alert.TriggeredAt != nil {
				sb.WriteString(fmt.Sprintf(" (at %s)", alert.TriggeredAt.Format(time.RFC3339)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No alerts fired.\n\n")
	}

	if len(active) > 0 {
		sb.WriteString(fmt.Sprintf("## Still Watching (%d)\n\n", len(active)))
		for _, alert := range active {
			sb.WriteString(fmt.Sprintf("- %s %s %.2f\n", alert.Symbol, alert.Direction, alert.ThresholdPrice))
		}
	} else {
		sb.WriteString("No active alerts remaining.\n")
	}

	return sb.String()
}
