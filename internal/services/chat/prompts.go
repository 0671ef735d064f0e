package chat

import (
	"fmt"
	"strings"

	"github.com/ternarybob/nivesh/internal/models"
)

// systemPrompt frames every LLM composition call
const systemPrompt = `You are Nivesh, a concise assistant for Indian financial markets.
Answer using ONLY the market data provided in the DATA section. Never invent
prices or levels. Quote rupee amounts exactly as given. If a data point is
marked unavailable, say so plainly and answer with what remains. Keep answers
short and conversational.`

// clarificationReply is returned when a message cannot be understood
const clarificationReply = "I did not quite catch that. You can ask me for a stock quote, an index level, the gold rate, market news, a portfolio valuation, or set a price alert (for example: \"alert me when TCS goes above 4200\")."

// degradedHeader opens the fallback answer used when the LLM is unreachable
const degradedHeader = "I could not compose a full answer right now, but here is the data I fetched:"

// formatINR formats an amount with Indian digit grouping: the last three
// digits, then groups of two ("1,02,500.00")
func formatINR(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	whole := fmt.Sprintf("%.2f", amount)
	intPart := whole[:len(whole)-3]
	fracPart := whole[len(whole)-2:]

	if len(intPart) > 3 {
		head := intPart[:len(intPart)-3]
		tail := intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(groups, ",") + "," + tail
	}

	result := intPart + "." + fracPart
	if neg {
		return "-" + result
	}
	return result
}

// formatQuoteLine renders one quote as a data line
func formatQuoteLine(quote *models.Quote) string {
	direction := "up"
	if quote.Change < 0 {
		direction = "down"
	}
	return fmt.Sprintf("%s: %s %s (%s %s, %+.2f%%) [source: %s]",
		quote.Symbol,
		quote.Currency,
		formatINR(quote.Price),
		direction,
		formatINR(abs(quote.Change)),
		quote.ChangePct,
		quote.Provider,
	)
}

// formatPortfolioSection renders a snapshot as data lines
func formatPortfolioSection(snapshot *models.PortfolioSnapshot) string {
	var b strings.Builder
	for _, position := range snapshot.Positions {
		if position.Quote == nil {
			fmt.Fprintf(&b, "- %s x %.2f: price unavailable\n", position.Ticker, position.Quantity)
			continue
		}
		fmt.Fprintf(&b, "- %s x %.2f @ %s = %s\n",
			position.Ticker, position.Quantity,
			formatINR(position.Quote.Price), formatINR(position.Value))
	}
	fmt.Fprintf(&b, "Total value: %s %s", snapshot.Currency, formatINR(snapshot.TotalValue))
	if len(snapshot.Unresolved) > 0 {
		fmt.Fprintf(&b, " (excludes unresolved: %s)", strings.Join(snapshot.Unresolved, ", "))
	}
	return b.String()
}

// formatAlertLine renders one alert as a data line
func formatAlertLine(alert models.Alert) string {
	state := "active"
	if !alert.Active {
		state = "fired"
	}
	return fmt.Sprintf("- %s %s %s [%s]",
		alert.Symbol, alert.Direction, formatINR(alert.ThresholdPrice), state)
}

// sentimentTag maps an index change percentage to a coarse mood label
func sentimentTag(changePct float64) string {
	switch {
	case changePct >= 0.25:
		return "bullish"
	case changePct <= -0.25:
		return "bearish"
	default:
		return "neutral"
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
