package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetQuoteTool returns the get_quote tool definition
func createGetQuoteTool() mcp.Tool {
	return mcp.NewTool("get_quote",
		mcp.WithDescription("Get the latest price for an Indian stock or ETF (NSE symbols, e.g. TCS, RELIANCE, GOLDBEES)"),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol (e.g. TCS, RELIANCE)"),
		),
	)
}

// createGetIndexLevelTool returns the get_index_level tool definition
func createGetIndexLevelTool() mcp.Tool {
	return mcp.NewTool("get_index_level",
		mcp.WithDescription("Get the current level of an Indian benchmark index"),
		mcp.WithString("index",
			mcp.Required(),
			mcp.Description("Index name: nifty, sensex or banknifty"),
		),
	)
}

// createAnalyzePortfolioTool returns the analyze_portfolio tool definition
func createAnalyzePortfolioTool() mcp.Tool {
	return mcp.NewTool("analyze_portfolio",
		mcp.WithDescription("Value a set of holdings against live prices. Unresolvable tickers are excluded from the total."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User identifier"),
		),
		mcp.WithString("holdings",
			mcp.Required(),
			mcp.Description(`Holdings as JSON ([{"ticker":"TCS","quantity":10}]) or pairs ("TCS:10, RELIANCE:5")`),
		),
	)
}

// createSetPriceAlertTool returns the set_price_alert tool definition
func createSetPriceAlertTool() mcp.Tool {
	return mcp.NewTool("set_price_alert",
		mcp.WithDescription("Register a single-fire price alert. The alert deactivates the first time it triggers."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User identifier"),
		),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol to watch"),
		),
		mcp.WithNumber("threshold",
			mcp.Required(),
			mcp.Description("Threshold price in INR"),
		),
		mcp.WithString("direction",
			mcp.Description("Trigger direction: above (default) or below"),
		),
	)
}

// createCheckAlertsTool returns the check_alerts tool definition
func createCheckAlertsTool() mcp.Tool {
	return mcp.NewTool("check_alerts",
		mcp.WithDescription("Evaluate a user's active alerts against current prices and report any that fired"),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("User identifier"),
		),
	)
}
