package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
	"github.com/ternarybob/nivesh/internal/services/portfolio"
)

// errorResult wraps an error message as a tool result
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
	}
}

// textResult wraps markdown text as a tool result
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// handleGetQuote implements the get_quote tool
func handleGetQuote(market interfaces.MarketDataService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}

		quote, err := market.FetchQuote(ctx, symbol)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
			return errorResult(fmt.Sprintf("Price unavailable for %s: %v", symbol, err)), nil
		}

		return textResult(formatQuote(quote)), nil
	}
}

// handleGetIndexLevel implements the get_index_level tool
func handleGetIndexLevel(market interfaces.MarketDataService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, err := request.RequireString("index")
		if err != nil || index == "" {
			return errorResult("Error: index parameter is required"), nil
		}

		quote, err := market.FetchIndex(ctx, index)
		if err != nil {
			logger.Error().Err(err).Str("index", index).Msg("Index fetch failed")
			return errorResult(fmt.Sprintf("Level unavailable for %s: %v", index, err)), nil
		}

		return textResult(formatQuote(quote)), nil
	}
}

// handleAnalyzePortfolio implements the analyze_portfolio tool
func handleAnalyzePortfolio(portfolioService interfaces.PortfolioService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil || userID == "" {
			return errorResult("Error: user_id parameter is required"), nil
		}
		holdingsText, err := request.RequireString("holdings")
		if err != nil || holdingsText == "" {
			return errorResult("Error: holdings parameter is required"), nil
		}

		holdings, err := portfolio.ParseHoldings(holdingsText)
		if err != nil {
			return errorResult(`Could not parse holdings. Use JSON ([{"ticker":"TCS","quantity":10}]) or pairs ("TCS:10, RELIANCE:5")`), nil
		}

		snapshot, err := portfolioService.Analyze(ctx, userID, holdings)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("Portfolio analysis failed")
			return errorResult(fmt.Sprintf("Analysis failed: %v", err)), nil
		}

		return textResult(formatPortfolio(snapshot)), nil
	}
}

// handleSetPriceAlert implements the set_price_alert tool
func handleSetPriceAlert(alertService interfaces.AlertService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil || userID == "" {
			return errorResult("Error: user_id parameter is required"), nil
		}
		symbol, err := request.RequireString("symbol")
		if err != nil || symbol == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		threshold := request.GetFloat("threshold", 0)
		if threshold <= 0 {
			return errorResult("Error: threshold must be a positive price"), nil
		}
		direction := request.GetString("direction", string(models.AlertAbove))

		alert := &models.Alert{
			UserID:         userID,
			Symbol:         symbol,
			ThresholdPrice: threshold,
			Direction:      models.AlertDirection(direction),
		}
		id, err := alertService.Register(ctx, alert)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("Alert registration failed")
			return errorResult(fmt.Sprintf("Could not set alert: %v", err)), nil
		}

		return textResult(fmt.Sprintf("Alert %s registered: %s %s %.2f", id, alert.Symbol, alert.Direction, alert.ThresholdPrice)), nil
	}
}

// handleCheckAlerts implements the check_alerts tool
func handleCheckAlerts(alertService interfaces.AlertService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := request.RequireString("user_id")
		if err != nil || userID == "" {
			return errorResult("Error: user_id parameter is required"), nil
		}

		fired, err := alertService.CheckAlerts(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Str("user_id", userID).Msg("Alert check failed")
			return errorResult(fmt.Sprintf("Alert check failed: %v", err)), nil
		}

		active, err := alertService.ActiveAlerts(ctx, userID)
		if err != nil {
			active = nil
		}

		return textResult(formatAlertReport(fired, active)), nil
	}
}
