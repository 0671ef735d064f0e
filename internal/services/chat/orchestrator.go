package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/models"
	"github.com/ternarybob/nivesh/internal/services/portfolio"
)

// Service orchestrates one chat request end to end: classify, fetch,
// compose, persist. Memory recall runs concurrently with data fetching.
// Every request persists exactly two turns, the user's and the reply,
// whatever path the answer took.
type Service struct {
	classifier *Classifier
	market     interfaces.MarketDataService
	alerts     interfaces.AlertService
	portfolio  interfaces.PortfolioService
	memory     interfaces.MemoryService
	llm        interfaces.LLMService
	search     interfaces.SearchService
	reports    interfaces.ReportService
	logger     arbor.ILogger

	recentTurns  int
	similarTurns int
}

// Options bundles the orchestrator's tuning knobs
type Options struct {
	RecentTurns  int
	SimilarTurns int
}

// NewService creates the chat orchestrator. search and reports may be nil;
// the matching intents then answer with an unavailable notice.
func NewService(
	classifier *Classifier,
	market interfaces.MarketDataService,
	alertSvc interfaces.AlertService,
	portfolioSvc interfaces.PortfolioService,
	memorySvc interfaces.MemoryService,
	llmSvc interfaces.LLMService,
	searchSvc interfaces.SearchService,
	reportSvc interfaces.ReportService,
	opts Options,
	logger arbor.ILogger,
) *Service {
	if opts.RecentTurns <= 0 {
		opts.RecentTurns = 6
	}
	if opts.SimilarTurns < 0 {
		opts.SimilarTurns = 0
	}
	return &Service{
		classifier:   classifier,
		market:       market,
		alerts:       alertSvc,
		portfolio:    portfolioSvc,
		memory:       memorySvc,
		llm:          llmSvc,
		search:       searchSvc,
		reports:      reportSvc,
		logger:       logger,
		recentTurns:  opts.RecentTurns,
		similarTurns: opts.SimilarTurns,
	}
}

// fetchResult is what a data sub-workflow produced
type fetchResult struct {
	// data is the DATA section given to the LLM (and to the degraded
	// fallback). Empty for conversational messages.
	data string
	// direct short-circuits composition: when set it is returned verbatim
	direct string
}

// HandleRequest processes one user message and returns the reply text
func (s *Service) HandleRequest(ctx context.Context, userID string, message string) (string, error) {
	requestID := common.NewRequestID()
	log := s.logger.WithCorrelationId(requestID)

	log.Info().Str("user_id", userID).Str("state", "received").Msg("Chat request received")

	classifications, err := s.classifier.Classify(message)
	if err != nil {
		if errors.Is(err, interfaces.ErrClassificationFailure) {
			s.persistExchange(ctx, userID, message, clarificationReply, log)
			return clarificationReply, nil
		}
		return "", err
	}
	intents := make([]string, len(classifications))
	for i, classification := range classifications {
		intents[i] = string(classification.Intent)
	}
	log.Info().Str("state", "classified").Str("intents", strings.Join(intents, ",")).Msg("Intents classified")

	// Memory recall and data fetch run concurrently; neither blocks the
	// other and both degrade independently.
	var wg sync.WaitGroup
	var recent, similar []models.ConversationTurn

	wg.Add(1)
	go func() {
		defer wg.Done()
		recent, _ = s.memory.RecentContext(ctx, userID, s.recentTurns)
		if s.similarTurns > 0 {
			similar, _ = s.memory.SimilarPast(ctx, userID, message, s.similarTurns)
		}
	}()

	results := s.fetchAll(ctx, userID, message, classifications, log)
	wg.Wait()

	data := mergeSections(results)
	log.Info().Str("state", "fetched").Int("data_bytes", len(data)).Msg("Sub-workflows complete")

	// A lone direct reply needs no composition; in a compound request the
	// direct text becomes one section among the others.
	if len(results) == 1 && results[0].direct != "" {
		s.persistExchange(ctx, userID, message, results[0].direct, log)
		return results[0].direct, nil
	}

	answer := s.compose(ctx, message, data, recent, similar, log)
	log.Info().Str("state", "composed").Msg("Answer composed")

	s.persistExchange(ctx, userID, message, answer, log)
	log.Info().Str("state", "done").Msg("Chat request complete")

	return answer, nil
}

// fetchAll runs one sub-workflow per classification concurrently,
// preserving classification order in the results
func (s *Service) fetchAll(ctx context.Context, userID, message string, classifications []Classification, log arbor.ILogger) []fetchResult {
	results := make([]fetchResult, len(classifications))

	var wg sync.WaitGroup
	for i, classification := range classifications {
		wg.Add(1)
		go func(i int, classification Classification) {
			defer wg.Done()
			results[i] = s.fetchData(ctx, userID, message, classification, log)
		}(i, classification)
	}
	wg.Wait()

	return results
}

// mergeSections joins sub-workflow output into one data block. Direct
// replies count as sections here; they only short-circuit when alone.
func mergeSections(results []fetchResult) string {
	sections := make([]string, 0, len(results))
	for _, result := range results {
		switch {
		case result.data != "":
			sections = append(sections, result.data)
		case result.direct != "":
			sections = append(sections, result.direct)
		}
	}
	return strings.Join(sections, "\n\n")
}

// fetchData runs the sub-workflow for one classified intent
func (s *Service) fetchData(ctx context.Context, userID, message string, classification Classification, log arbor.ILogger) fetchResult {
	switch classification.Intent {
	case IntentQuote:
		if classification.Symbol == "" {
			return fetchResult{direct: "Which stock would you like a quote for?"}
		}
		return s.fetchQuoteData(ctx, classification.Symbol)

	case IntentIndex:
		quote, err := s.market.FetchIndex(ctx, classification.Symbol)
		if err != nil {
			return fetchResult{data: fmt.Sprintf("%s: level unavailable right now", classification.Symbol)}
		}
		return fetchResult{data: fmt.Sprintf("%s\nSentiment: %s", formatQuoteLine(quote), sentimentTag(quote.ChangePct))}

	case IntentGold:
		return s.fetchQuoteData(ctx, classification.Symbol)

	case IntentPortfolio:
		return s.fetchPortfolioData(ctx, userID, message, false, log)

	case IntentReport:
		return s.fetchPortfolioData(ctx, userID, message, true, log)

	case IntentAlertSet:
		return s.registerAlert(ctx, userID, classification)

	case IntentAlertCheck:
		return s.checkAlerts(ctx, userID, log)

	case IntentNews:
		return s.fetchNews(ctx, message, log)

	default:
		return fetchResult{}
	}
}

// fetchQuoteData fetches one symbol and renders it as a data line
func (s *Service) fetchQuoteData(ctx context.Context, symbol string) fetchResult {
	quote, err := s.market.FetchQuote(ctx, symbol)
	if err != nil {
		return fetchResult{data: fmt.Sprintf("%s: price unavailable right now", strings.ToUpper(symbol))}
	}
	return fetchResult{data: formatQuoteLine(quote)}
}

// fetchPortfolioData parses holdings, values them and optionally writes a
// PDF report
func (s *Service) fetchPortfolioData(ctx context.Context, userID, message string, withReport bool, log arbor.ILogger) fetchResult {
	holdings, err := portfolio.ParseHoldings(message)
	if err != nil {
		return fetchResult{direct: "Please list your holdings like \"RELIANCE:100, TCS:50\" and I will value them."}
	}

	snapshot, err := s.portfolio.Analyze(ctx, userID, holdings)
	if err != nil {
		log.Warn().Err(err).Msg("Portfolio analysis failed")
		return fetchResult{data: "Portfolio valuation unavailable right now"}
	}

	data := formatPortfolioSection(snapshot)

	if withReport {
		if s.reports == nil {
			data += "\nReport generation is not enabled"
		} else if path, err := s.reports.GeneratePortfolioReport(snapshot); err != nil {
			log.Warn().Err(err).Msg("Report generation failed")
			data += "\nReport generation failed"
		} else {
			data += fmt.Sprintf("\nReport saved to %s", path)
		}
	}

	return fetchResult{data: data}
}

// registerAlert creates the alert described by the classification
func (s *Service) registerAlert(ctx context.Context, userID string, classification Classification) fetchResult {
	if classification.Symbol == "" || classification.Threshold <= 0 {
		return fetchResult{direct: "To set an alert tell me the symbol and price, like \"alert me when TCS goes above 4200\"."}
	}

	alert := &models.Alert{
		UserID:         userID,
		Symbol:         classification.Symbol,
		ThresholdPrice: classification.Threshold,
		Direction:      classification.Direction,
	}
	if _, err := s.alerts.Register(ctx, alert); err != nil {
		return fetchResult{direct: fmt.Sprintf("I could not set that alert: %v", err)}
	}

	return fetchResult{direct: fmt.Sprintf("Done. I will let you know when %s goes %s %s.",
		alert.Symbol, alert.Direction, formatINR(alert.ThresholdPrice))}
}

// checkAlerts evaluates and lists the user's alerts
func (s *Service) checkAlerts(ctx context.Context, userID string, log arbor.ILogger) fetchResult {
	var b strings.Builder

	fired, err := s.alerts.CheckAlerts(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("Alert check failed")
		return fetchResult{data: "Alert status unavailable right now"}
	}
	if len(fired) > 0 {
		b.WriteString("Alerts just triggered:\n")
		for _, alert := range fired {
			b.WriteString(formatAlertLine(alert) + "\n")
		}
	}

	active, err := s.alerts.ActiveAlerts(ctx, userID)
	if err == nil {
		if len(active) > 0 {
			b.WriteString("Still watching:\n")
			for _, alert := range active {
				b.WriteString(formatAlertLine(alert) + "\n")
			}
		} else if len(fired) == 0 {
			b.WriteString("No alerts set")
		}
	}

	return fetchResult{data: strings.TrimRight(b.String(), "\n")}
}

// fetchNews searches headlines for the message
func (s *Service) fetchNews(ctx context.Context, message string, log arbor.ILogger) fetchResult {
	if s.search == nil {
		return fetchResult{data: "News search is not enabled"}
	}

	results, err := s.search.SearchNews(ctx, message, 5)
	if err != nil || len(results) == 0 {
		if err != nil {
			log.Warn().Err(err).Msg("News search failed")
		}
		return fetchResult{data: "No news found right now"}
	}

	var b strings.Builder
	if nifty, err := s.market.FetchIndex(ctx, "nifty"); err == nil {
		fmt.Fprintf(&b, "Market sentiment: %s (NIFTY 50 %+.2f%%)\n", sentimentTag(nifty.ChangePct), nifty.ChangePct)
	}
	for _, item := range results {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", item.Title, item.Snippet, item.URL)
	}
	return fetchResult{data: strings.TrimRight(b.String(), "\n")}
}

// compose turns the merged data block into a conversational answer. LLM
// failures degrade to the raw data behind an apology header, never to an
// error.
func (s *Service) compose(ctx context.Context, message string, data string, recent, similar []models.ConversationTurn, log arbor.ILogger) string {
	messages := []interfaces.Message{{Role: "system", Content: systemPrompt}}

	if preamble := buildMemoryPreamble(recent, similar); preamble != "" {
		messages = append(messages, interfaces.Message{Role: "system", Content: preamble})
	}

	userContent := message
	if data != "" {
		userContent = fmt.Sprintf("%s\n\nDATA:\n%s", message, data)
	}
	messages = append(messages, interfaces.Message{Role: "user", Content: userContent})

	answer, err := s.llm.Chat(ctx, messages)
	if err != nil {
		log.Warn().Err(err).Msg("LLM composition failed, returning raw data")
		if data != "" {
			return degradedHeader + "\n\n" + data
		}
		return clarificationReply
	}
	return answer
}

// buildMemoryPreamble renders recalled turns as conversation context
func buildMemoryPreamble(recent, similar []models.ConversationTurn) string {
	if len(recent) == 0 && len(similar) == 0 {
		return ""
	}

	var b strings.Builder
	if len(recent) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range recent {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}
	if len(similar) > 0 {
		b.WriteString("Possibly relevant past exchanges:\n")
		for _, turn := range similar {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Text)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// persistExchange appends the user and assistant turns. Failures are
// logged; the answer is already decided and still goes out.
func (s *Service) persistExchange(ctx context.Context, userID, message, answer string, log arbor.ILogger) {
	userTurn := &models.ConversationTurn{UserID: userID, Role: models.TurnRoleUser, Text: message}
	if err := s.memory.Append(ctx, userTurn); err != nil {
		log.Warn().Err(err).Msg("Failed to persist user turn")
	}

	assistantTurn := &models.ConversationTurn{UserID: userID, Role: models.TurnRoleAssistant, Text: answer}
	if err := s.memory.Append(ctx, assistantTurn); err != nil {
		log.Warn().Err(err).Msg("Failed to persist assistant turn")
	}
}

// HealthCheck verifies the downstream LLM is reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.llm.HealthCheck(ctx)
}
